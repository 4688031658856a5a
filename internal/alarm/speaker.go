package alarm

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const pollInterval = 10 * time.Millisecond

// Speaker plays a Tone on the system audio device via oto.
// oto allows one context per process, so create a single Speaker.
type Speaker struct {
	ctx *oto.Context
	pcm []byte

	mu     sync.Mutex
	active *oto.Player
}

// NewSpeaker initializes the audio device. A missing or busy device is
// reported as ErrAlarmUnavailable.
func NewSpeaker(tone Tone) (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlarmUnavailable, err)
	}
	<-ready
	return &Speaker{ctx: ctx, pcm: tone.PCM()}, nil
}

// Ring plays the tone and blocks until it finishes or ctx is done.
// A ring that starts while another is playing interrupts the older one.
func (s *Speaker) Ring(ctx context.Context) error {
	if len(s.pcm) == 0 {
		return fmt.Errorf("%w: empty tone", ErrAlarmUnavailable)
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAlarmUnavailable, err)
	}

	player := s.ctx.NewPlayer(bytes.NewReader(s.pcm))

	s.mu.Lock()
	if s.active != nil {
		s.active.Pause()
	}
	s.active = player
	s.mu.Unlock()

	player.Play()

	waitErr := waitPlayback(ctx, player)

	s.mu.Lock()
	if s.active == player {
		s.active = nil
	}
	s.mu.Unlock()

	if err := player.Close(); err != nil {
		return err
	}
	return waitErr
}

func waitPlayback(ctx context.Context, player *oto.Player) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
