package indicator

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// AudioOutput describes the Pulse sink that cues play on.
type AudioOutput struct {
	ID          string
	Description string
	Muted       bool
}

// DefaultAudioOutput returns the server's default sink.
func DefaultAudioOutput(_ context.Context) (AudioOutput, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(cueClientName),
		pulse.ClientApplicationIconName(cueClientIcon),
	)
	if err != nil {
		return AudioOutput{}, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	sink, err := client.DefaultSink()
	if err != nil {
		return AudioOutput{}, fmt.Errorf("read default sink: %w", err)
	}

	var sinks pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinks); err != nil {
		return AudioOutput{}, fmt.Errorf("list sinks: %w", err)
	}
	return defaultOutput(sink.ID(), sinks), nil
}

func defaultOutput(id string, sinks pulseproto.GetSinkInfoListReply) AudioOutput {
	out := AudioOutput{ID: id}
	for _, info := range sinks {
		if info == nil || info.SinkName != id {
			continue
		}
		out.Description = info.Device
		out.Muted = info.Mute
		break
	}
	return out
}
