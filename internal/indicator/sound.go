package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jmacedoit/reright/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueComplete
	cueError
)

func (k cueKind) String() string {
	switch k {
	case cueStart:
		return "start"
	case cueComplete:
		return "complete"
	case cueError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	cueSampleRate   = 16000
	cueGap          = 22 * time.Millisecond
	cueFileTimeout  = 4 * time.Second
	cueVolume       = 0.18
	cueFilePlayer   = "pw-play"
	cueStreamLabel  = "reright indicator cue"
	cueClientName   = "reright"
	cueClientIcon   = "edit-paste"
	cueRampFraction = 10
)

type tone struct {
	hz       float64
	duration time.Duration
}

// Rising pair for start, a brighter rising pair for success, a falling pair
// for failure.
var cuePCM = map[cueKind][]int16{
	cueStart: synthesize(
		tone{hz: 660, duration: 60 * time.Millisecond},
		tone{hz: 880, duration: 60 * time.Millisecond},
	),
	cueComplete: synthesize(
		tone{hz: 740, duration: 65 * time.Millisecond},
		tone{hz: 988, duration: 90 * time.Millisecond},
	),
	cueError: synthesize(
		tone{hz: 440, duration: 90 * time.Millisecond},
		tone{hz: 330, duration: 120 * time.Millisecond},
	),
}

// emitCue plays the configured file for kind, falling back to the built-in tone.
func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	if path := cueFile(kind, cfg); path != "" {
		if err := playFile(path); err == nil {
			return nil
		}
	}

	samples := cuePCM[kind]
	if len(samples) == 0 {
		return nil
	}
	return playPCM(samples)
}

func cueFile(kind cueKind, cfg config.IndicatorConfig) string {
	switch kind {
	case cueStart:
		return expandHome(cfg.SoundStartFile)
	case cueComplete:
		return expandHome(cfg.SoundCompleteFile)
	case cueError:
		return expandHome(cfg.SoundErrorFile)
	}
	return ""
}

func expandHome(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

func playFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cueFileTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, cueFilePlayer, "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playPCM(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(cueClientName),
		pulse.ClientApplicationIconName(cueClientIcon),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(cueStreamLabel),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesize joins sine tones with short silent gaps.
func synthesize(tones ...tone) []int16 {
	gap := make([]int16, sampleCount(cueGap))
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, sine(t)...)
	}
	return pcm
}

// sine renders t with a linear attack and release of at most 5ms.
func sine(t tone) []int16 {
	n := sampleCount(t.duration)
	if n <= 0 || t.hz <= 0 {
		return nil
	}

	ramp := max(1, min(n/cueRampFraction, cueSampleRate/200))
	pcm := make([]int16, n)
	for i := range pcm {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * cueVolume * envelope * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
