// Package indicator shows rewrite progress as desktop notifications and
// audio cues.
package indicator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/hypr"
)

const (
	busyTimeoutMS     = 120000
	defaultErrorMS    = 1200
	dispatchTimeout   = 400 * time.Millisecond
	colorBusy         = "rgb(cba6f7)"
	colorError        = "rgb(f38ba8)"
	hyprIconInfo      = 1
	hyprIconError     = 3
	defaultDesktopApp = "reright"
)

// Notifier routes indicator output to Hyprland or a freedesktop
// notification server, and plays cues through PulseAudio.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32

	soundMu sync.Mutex
	cues    sync.WaitGroup
	player  func(cueKind) error
}

// New builds a Notifier using the locale from the environment.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
	}
	n.player = func(kind cueKind) error { return emitCue(kind, n.cfg) }
	return n
}

// ShowRewriting shows the busy notice. word is empty for ad-hoc instructions.
func (n *Notifier) ShowRewriting(ctx context.Context, word string) {
	if !n.cfg.Enable {
		return
	}
	text := n.messages.rewritingText(word)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hyprIconInfo, busyTimeoutMS, colorBusy, text)
	})
}

// ShowError shows the localized message for a failure key.
func (n *Notifier) ShowError(ctx context.Context, failure string) {
	if !n.cfg.Enable {
		return
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrorMS
	}
	text := n.messages.failureText(failure)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hyprIconError, timeout, colorError, text)
	})
}

// CueStart plays the start cue.
func (n *Notifier) CueStart(context.Context) { n.playCue(cueStart) }

// CueComplete plays the success cue.
func (n *Notifier) CueComplete(context.Context) { n.playCue(cueComplete) }

// CueError plays the failure cue.
func (n *Notifier) CueError(context.Context) { n.playCue(cueError) }

// Hide dismisses the busy notice.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// Wait blocks until queued cues finish or timeout elapses, so a short-lived
// process does not cut its last cue off.
func (n *Notifier) Wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		n.cues.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func (n *Notifier) desktop() bool {
	return n.cfg.Backend == "desktop"
}

func (n *Notifier) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if n.desktop() {
		urgency := urgencyNormal
		if icon == hyprIconError {
			urgency = urgencyCritical
		}
		return n.notifyDesktop(ctx, desktopNotice{Summary: text, Urgency: urgency, TimeoutMS: timeoutMS})
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if n.desktop() {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop replaces the previous notification so busy and error
// notices share one bubble.
func (n *Notifier) notifyDesktop(ctx context.Context, notice desktopNotice) error {
	n.mu.Lock()
	notice.ReplaceID = n.desktopNotificationID
	n.mu.Unlock()

	notice.AppName = n.cfg.DesktopAppName
	if notice.AppName == "" {
		notice.AppName = defaultDesktopApp
	}

	id, err := desktopNotify(ctx, notice)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue plays kind in the background; cues never overlap.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.player(kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
