package alarm

import (
	"encoding/binary"
	"math"
	"time"
)

// Output format shared by Tone and Speaker.
const (
	SampleRate   = 44100
	ChannelCount = 2
	bytesPerSamp = 2 // signed 16-bit little endian

	// fade keeps beep edges from clicking.
	fade = 5 * time.Millisecond
)

// Tone describes a beep pattern.
type Tone struct {
	FrequencyHz float64
	Beep        time.Duration
	Gap         time.Duration
	Beeps       int
	Volume      float64 // 0..1
}

// DefaultTone is three short 880Hz beeps.
func DefaultTone() Tone {
	return Tone{
		FrequencyHz: 880,
		Beep:        200 * time.Millisecond,
		Gap:         120 * time.Millisecond,
		Beeps:       3,
		Volume:      0.4,
	}
}

func frames(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}

// Duration is the total playback length of the pattern.
func (t Tone) Duration() time.Duration {
	if t.Beeps <= 0 {
		return 0
	}
	return time.Duration(t.Beeps)*t.Beep + time.Duration(t.Beeps-1)*t.Gap
}

// PCM renders the pattern as interleaved signed 16-bit little-endian frames.
func (t Tone) PCM() []byte {
	if t.Beeps <= 0 || t.Beep <= 0 || t.FrequencyHz <= 0 {
		return nil
	}
	vol := math.Max(0, math.Min(1, t.Volume))
	beepFrames := frames(t.Beep)
	gapFrames := frames(t.Gap)
	fadeFrames := frames(fade)
	if fadeFrames*2 > beepFrames {
		fadeFrames = beepFrames / 2
	}

	total := t.Beeps*beepFrames + (t.Beeps-1)*gapFrames
	buf := make([]byte, total*ChannelCount*bytesPerSamp)

	pos := 0
	for b := 0; b < t.Beeps; b++ {
		for i := 0; i < beepFrames; i++ {
			env := 1.0
			switch {
			case i < fadeFrames:
				env = float64(i) / float64(fadeFrames)
			case i >= beepFrames-fadeFrames:
				env = float64(beepFrames-i) / float64(fadeFrames)
			}
			v := math.Sin(2*math.Pi*t.FrequencyHz*float64(i)/SampleRate) * vol * env
			sample := int16(v * math.MaxInt16)
			for c := 0; c < ChannelCount; c++ {
				binary.LittleEndian.PutUint16(buf[pos:], uint16(sample))
				pos += bytesPerSamp
			}
		}
		if b < t.Beeps-1 {
			// Gap frames stay zero.
			pos += gapFrames * ChannelCount * bytesPerSamp
		}
	}
	return buf
}
