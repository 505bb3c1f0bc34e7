package synth

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
)

const collectorRate = 1024

// samples returns the time of n samples at collectorRate.  Powers of two
// keep the arithmetic exact.
func samples(n int) float64 { return float64(n) / collectorRate }

func TestMessageCollectorNotReset(t *testing.T) {
	c := newMessageCollector(func() float64 { return 0 })
	err := c.AddMessageToQueue(midi.NoteOn(0, 60, 100), 0)
	if !errors.Is(err, ErrCollectorNotReset) {
		t.Fatalf("AddMessageToQueue before Reset: err = %v", err)
	}
	c.HandleIncomingMidiMessage(midi.NoteOn(0, 60, 100), 0)
	c.Reset(collectorRate)
	var dst MidiBuffer
	c.RemoveNextBlockOfMessages(&dst, 64)
	if !dst.IsEmpty() {
		t.Errorf("%d messages kept from before Reset", dst.NumEvents())
	}
}

func TestMessageCollectorPositions(t *testing.T) {
	for _, test := range []struct {
		name     string
		arrivals []int // in samples after Reset
		elapsed  int   // samples between Reset and the block
		want     []int
	}{
		{"shorter than block", []int{10}, 32, []int{42}},
		{"one block", []int{0, 63}, 64, []int{0, 63}},
		{"squeezed", []int{100}, 128, []int{50}},
		{"only last eight blocks", []int{10, 1000}, 1024, []int{0, 61}},
	} {
		t.Run(test.name, func(t *testing.T) {
			var now float64
			c := newMessageCollector(func() float64 { return now })
			c.Reset(collectorRate)
			for _, a := range test.arrivals {
				if err := c.AddMessageToQueue(midi.NoteOn(0, 60, 100), samples(a)); err != nil {
					t.Fatal(err)
				}
			}
			now = samples(test.elapsed)
			var dst MidiBuffer
			c.RemoveNextBlockOfMessages(&dst, 64)
			if p := positions(&dst); !equalInts(p, test.want) {
				t.Errorf("positions = %v, want %v", p, test.want)
			}
		})
	}
}

func TestMessageCollectorDrains(t *testing.T) {
	var now float64
	c := newMessageCollector(func() float64 { return now })
	c.Reset(collectorRate)

	now = samples(16)
	c.HandleIncomingMidiMessage(midi.NoteOn(0, 60, 100), 0)
	now = samples(64)
	var dst MidiBuffer
	c.RemoveNextBlockOfMessages(&dst, 64)
	if p := positions(&dst); !equalInts(p, []int{16}) {
		t.Fatalf("positions = %v, want [16]", p)
	}

	// the next block starts where the previous one ended
	now = samples(80)
	c.HandleIncomingMidiMessage(midi.NoteOff(0, 60), 0)
	now = samples(128)
	dst.Clear()
	c.RemoveNextBlockOfMessages(&dst, 64)
	if p := positions(&dst); !equalInts(p, []int{16}) {
		t.Fatalf("positions = %v, want [16]", p)
	}

	dst.Clear()
	c.RemoveNextBlockOfMessages(&dst, 64)
	if !dst.IsEmpty() {
		t.Errorf("%d messages delivered twice", dst.NumEvents())
	}
}

func TestMessageCollectorDropsOldMessages(t *testing.T) {
	var now float64
	c := newMessageCollector(func() float64 { return now })
	c.Reset(collectorRate)
	c.AddMessageToQueue(midi.NoteOn(0, 60, 100), samples(0))
	c.AddMessageToQueue(midi.NoteOn(0, 61, 100), samples(2000))

	now = samples(2048)
	var dst MidiBuffer
	c.RemoveNextBlockOfMessages(&dst, 64)
	if dst.NumEvents() != 1 {
		t.Fatalf("%d messages delivered, want 1", dst.NumEvents())
	}
	var ch, key, vel uint8
	if !dst.Events()[0].Message.GetNoteStart(&ch, &key, &vel) || key != 61 {
		t.Errorf("delivered %v, want note 61", dst.Events()[0].Message)
	}
}

func TestMessageCollectorEmptyBlockKeepsQueue(t *testing.T) {
	var now float64
	c := newMessageCollector(func() float64 { return now })
	c.Reset(collectorRate)
	if err := c.AddMessageToQueue(midi.NoteOff(0, 60), samples(10)); err != nil {
		t.Fatal(err)
	}

	var dst MidiBuffer
	now = samples(32)
	c.RemoveNextBlockOfMessages(&dst, 0)
	if !dst.IsEmpty() {
		t.Fatalf("%d messages delivered into an empty block", dst.NumEvents())
	}
	now = samples(64)
	c.RemoveNextBlockOfMessages(&dst, 64)
	if p := positions(&dst); !equalInts(p, []int{10}) {
		t.Errorf("positions = %v, want [10]", p)
	}
}
