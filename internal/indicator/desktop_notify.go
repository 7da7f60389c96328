package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notificationsBus    = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	urgencyNormal       = 1
	urgencyCritical     = 2
	notifyCallSignature = "susssasa{sv}i"
)

// desktopNotice is one freedesktop Notify call.
type desktopNotice struct {
	AppName   string
	ReplaceID uint32
	Summary   string
	Urgency   int
	TimeoutMS int
}

func (d desktopNotice) args() []string {
	return []string{
		notifyCallSignature,
		d.AppName,
		strconv.FormatUint(uint64(d.ReplaceID), 10),
		"",
		d.Summary,
		"",
		"0",
		"1", "urgency", "y", strconv.Itoa(d.Urgency),
		strconv.Itoa(d.TimeoutMS),
	}
}

// desktopNotify posts notice and returns the id the server assigned.
func desktopNotify(ctx context.Context, notice desktopNotice) (uint32, error) {
	out, err := callNotifications(ctx, "Notify", notice.args()...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}

	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", out)
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}

func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := callNotifications(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

// callNotifications invokes method on the session notification daemon and
// returns busctl's trimmed reply.
func callNotifications(ctx context.Context, method string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notificationsBus, notificationsPath, notificationsBus, method}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, reply)
	}
	return reply, nil
}
