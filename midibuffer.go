package synth

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
)

type MidiEvent struct {
	Message        midi.Message
	SamplePosition int
}

// A MidiBuffer is a list of MIDI messages ordered by sample position.  Events
// at the same position keep the order in which they were added.
type MidiBuffer struct {
	events []MidiEvent
}

// AddEvent inserts a copy of msg at pos.
func (b *MidiBuffer) AddEvent(msg midi.Message, pos int) {
	i := sort.Search(len(b.events), func(i int) bool { return b.events[i].SamplePosition > pos })
	b.events = append(b.events, MidiEvent{})
	copy(b.events[i+1:], b.events[i:])
	b.events[i] = MidiEvent{append(midi.Message(nil), msg...), pos}
}

// AddEvents copies the events of src in [start, start+n) into b, shifting
// them by offset.  A negative n copies everything from start on.
func (b *MidiBuffer) AddEvents(src *MidiBuffer, start, n, offset int) {
	for _, e := range src.EventsFrom(start) {
		if n >= 0 && e.SamplePosition >= start+n {
			break
		}
		b.AddEvent(e.Message, e.SamplePosition+offset)
	}
}

func (b *MidiBuffer) Clear() { b.events = b.events[:0] }

// ClearRange removes the events in [start, start+n).
func (b *MidiBuffer) ClearRange(start, n int) {
	if n <= 0 {
		return
	}
	i := b.firstIndexAt(start)
	j := b.firstIndexAt(start + n)
	b.events = append(b.events[:i], b.events[j:]...)
}

// ClearBefore removes the events positioned before pos.
func (b *MidiBuffer) ClearBefore(pos int) {
	b.events = append(b.events[:0], b.events[b.firstIndexAt(pos):]...)
}

func (b *MidiBuffer) IsEmpty() bool  { return len(b.events) == 0 }
func (b *MidiBuffer) NumEvents() int { return len(b.events) }

func (b *MidiBuffer) FirstEventTime() int {
	if len(b.events) == 0 {
		return 0
	}
	return b.events[0].SamplePosition
}

func (b *MidiBuffer) LastEventTime() int {
	if len(b.events) == 0 {
		return 0
	}
	return b.events[len(b.events)-1].SamplePosition
}

// Events returns the events in order.  The slice is owned by b.
func (b *MidiBuffer) Events() []MidiEvent { return b.events }

// EventsFrom returns the events at or after pos.
func (b *MidiBuffer) EventsFrom(pos int) []MidiEvent {
	return b.events[b.firstIndexAt(pos):]
}

func (b *MidiBuffer) firstIndexAt(pos int) int {
	return sort.Search(len(b.events), func(i int) bool { return b.events[i].SamplePosition >= pos })
}
