package synth

import (
	"context"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gopkg.in/yaml.v3"
)

// A Score is a list of notes to render offline.
type Score struct {
	Name  string       `yaml:"name"`
	Notes []*ScoreNote `yaml:"notes"`

	// Tail is how many seconds to keep rendering after the last note ends.
	Tail float64 `yaml:"tail"`
}

type ScoreNote struct {
	Time     float64 `yaml:"time"`
	Duration float64 `yaml:"duration"`
	Note     int     `yaml:"note"`
	Velocity float64 `yaml:"velocity"`
	Channel  int     `yaml:"channel"`
}

const (
	defaultScoreVelocity = .8
	defaultScoreTail     = .1
)

// LoadScore decodes a YAML score, filling in defaults and sorting the notes by
// time.
func LoadScore(r io.Reader) (*Score, error) {
	var s Score
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decoding score")
	}
	if s.Tail == 0 {
		s.Tail = defaultScoreTail
	}
	for i, n := range s.Notes {
		if n == nil {
			return nil, errors.Errorf("score %s: note %d is empty", s.Name, i)
		}
		if n.Velocity == 0 {
			n.Velocity = defaultScoreVelocity
		}
		if n.Channel == 0 {
			n.Channel = 1
		}
		if err := n.validate(); err != nil {
			return nil, errors.Wrapf(err, "score %s: note %d", s.Name, i)
		}
	}
	sort.SliceStable(s.Notes, func(i, j int) bool { return s.Notes[i].Time < s.Notes[j].Time })
	return &s, nil
}

func (n *ScoreNote) validate() error {
	switch {
	case !validNote(n.Note):
		return errors.Errorf("note %d out of range 0-127", n.Note)
	case !validChannel(n.Channel):
		return errors.Errorf("channel %d out of range 1-16", n.Channel)
	case n.Velocity < 0 || n.Velocity > 1:
		return errors.Errorf("velocity %v out of range 0-1", n.Velocity)
	case n.Time < 0:
		return errors.Errorf("negative time %v", n.Time)
	case n.Duration <= 0:
		return errors.Errorf("duration %v must be positive", n.Duration)
	}
	return nil
}

// Length returns the time at which the last note ends.
func (s *Score) Length() float64 {
	var t float64
	for _, n := range s.Notes {
		t = math.Max(t, n.Time+n.Duration)
	}
	return t
}

// A MidiSource renders blocks from MIDI it is handed.
type MidiSource interface {
	AudioSource
	GetNextAudioBlockWithMidi(ChannelInfo, *MidiBuffer) error
}

// RenderScore plays s on src offline and returns the audio, channels wide.
func RenderScore(ctx context.Context, src MidiSource, s *Score, p Params, channels int) (Buffer, error) {
	if p.SampleRate <= 0 || p.BufferSize <= 0 {
		return nil, errors.Errorf("invalid render parameters %+v", p)
	}
	src.PrepareToPlay(p.BufferSize, p.SampleRate)
	defer src.ReleaseResources()

	var d EventDelay
	Init(&d, p)
	var events MidiBuffer
	pos := 0
	for _, n := range s.Notes {
		n := n
		ch := uint8(n.Channel - 1)
		d.Delay(n.Time, func() { events.AddEvent(midi.NoteOn(ch, uint8(n.Note), noteOnVelocity(n.Velocity)), pos) })
		d.Delay(n.Time+n.Duration, func() { events.AddEvent(midi.NoteOff(ch, uint8(n.Note)), pos) })
	}

	total := int(math.Ceil((s.Length() + s.Tail) * p.SampleRate))
	out := NewBuffer(channels, total)
	for start := 0; start < total; start += p.BufferSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := p.BufferSize
		if start+n > total {
			n = total - start
		}
		events.Clear()
		for pos = start; pos < start+n; pos++ {
			d.Step()
		}
		if err := src.GetNextAudioBlockWithMidi(ChannelInfo{Buffer: out, StartSample: start, NumSamples: n}, &events); err != nil {
			return nil, errors.Wrapf(err, "rendering block at sample %d", start)
		}
	}
	return out, nil
}
