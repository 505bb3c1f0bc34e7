package synth

import (
	"math"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

// A KeyboardListener hears about keys going up and down on a KeyboardState.
// Callbacks run on whichever goroutine changed the state, after its lock is
// released.
type KeyboardListener interface {
	HandleNoteOn(s *KeyboardState, channel, note int, velocity float64)
	HandleNoteOff(s *KeyboardState, channel, note int, velocity float64)
}

// KeyboardState records which keys are down on each MIDI channel (1-16).
// Keys pressed through NoteOn and NoteOff, typically from a UI goroutine, are
// queued and handed to the audio goroutine by ProcessNextMidiBuffer.
type KeyboardState struct {
	mu         sync.Mutex
	noteStates [128]uint16
	pending    MidiBuffer
	listeners  []KeyboardListener
	now        func() time.Time
	epoch      time.Time
}

// queued UI events older than this are dropped
const keyboardQueueWindow = 500 // ms

func NewKeyboardState() *KeyboardState {
	return newKeyboardState(time.Now)
}

func newKeyboardState(now func() time.Time) *KeyboardState {
	return &KeyboardState{now: now, epoch: now()}
}

func (s *KeyboardState) AddListener(l KeyboardListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *KeyboardState) RemoveListener(l KeyboardListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.listeners {
		if m == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Reset releases every key without queueing note-offs.
func (s *KeyboardState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteStates = [128]uint16{}
	s.pending.Clear()
}

func (s *KeyboardState) IsNoteOn(channel, note int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNoteOn(channel, note)
}

// IsNoteOnForChannels reports whether note is down on any channel whose bit
// (1 << (channel-1)) is set in mask.
func (s *KeyboardState) IsNoteOnForChannels(mask uint16, note int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validNote(note) && s.noteStates[note]&mask != 0
}

func (s *KeyboardState) isNoteOn(channel, note int) bool {
	return validNote(note) && validChannel(channel) && s.noteStates[note]&(1<<uint(channel-1)) != 0
}

func (s *KeyboardState) NoteOn(channel, note int, velocity float64) {
	if !validNote(note) || !validChannel(channel) {
		return
	}
	var notify []func()
	s.mu.Lock()
	s.queue(midi.NoteOn(uint8(channel-1), uint8(note), noteOnVelocity(velocity)))
	notify = s.noteOn(notify, channel, note, velocity)
	s.mu.Unlock()
	run(notify)
}

func (s *KeyboardState) NoteOff(channel, note int, velocity float64) {
	var notify []func()
	s.mu.Lock()
	if s.isNoteOn(channel, note) {
		s.queue(midi.NoteOff(uint8(channel-1), uint8(note)))
		notify = s.noteOff(notify, channel, note, velocity)
	}
	s.mu.Unlock()
	run(notify)
}

// AllNotesOff releases every key on channel, or on all channels if channel
// is 0.
func (s *KeyboardState) AllNotesOff(channel int) {
	if channel <= 0 {
		for c := 1; c <= numChannels; c++ {
			s.AllNotesOff(c)
		}
		return
	}
	for note := 0; note < 128; note++ {
		s.NoteOff(channel, note, 0)
	}
}

// ProcessNextMidiBuffer updates the key states from the events already in
// buf and, if injectIndirectEvents is set, adds the queued NoteOn/NoteOff
// events to buf, spread over [start, start+n) in the order they arrived.  The
// queue is emptied either way.
func (s *KeyboardState) ProcessNextMidiBuffer(buf *MidiBuffer, start, n int, injectIndirectEvents bool) {
	var notify []func()
	s.mu.Lock()
	for _, e := range buf.EventsFrom(start) {
		if e.SamplePosition >= start+n {
			break
		}
		notify = s.processNextMidiEvent(notify, e.Message)
	}

	if injectIndirectEvents && !s.pending.IsEmpty() && n > 0 {
		first := s.pending.FirstEventTime()
		scale := float64(n) / float64(s.pending.LastEventTime()+1-first)
		for _, e := range s.pending.Events() {
			pos := int(math.Round(float64(e.SamplePosition-first) * scale))
			buf.AddEvent(e.Message, start+clamp(pos, 0, n-1))
		}
	}
	s.pending.Clear()
	s.mu.Unlock()
	run(notify)
}

// ProcessNextMidiEvent updates the key states from msg as if it had been
// played on the keyboard, without queueing anything.
func (s *KeyboardState) ProcessNextMidiEvent(msg midi.Message) {
	s.mu.Lock()
	notify := s.processNextMidiEvent(nil, msg)
	s.mu.Unlock()
	run(notify)
}

func (s *KeyboardState) processNextMidiEvent(notify []func(), msg midi.Message) []func() {
	var ch, key, vel, ctl, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return s.noteOn(notify, int(ch)+1, int(key), float64(vel)/127)
	case msg.GetNoteOff(&ch, &key, &vel):
		return s.noteOff(notify, int(ch)+1, int(key), float64(vel)/127)
	case msg.GetNoteEnd(&ch, &key):
		return s.noteOff(notify, int(ch)+1, int(key), 0)
	case msg.GetControlChange(&ch, &ctl, &val) && (ctl == ccAllNotesOff || ctl == ccAllSoundOff):
		for note := 0; note < 128; note++ {
			notify = s.noteOff(notify, int(ch)+1, note, 0)
		}
	}
	return notify
}

func (s *KeyboardState) noteOn(notify []func(), channel, note int, velocity float64) []func() {
	if !validNote(note) || !validChannel(channel) {
		return notify
	}
	s.noteStates[note] |= 1 << uint(channel-1)
	for _, l := range s.listeners {
		l := l
		notify = append(notify, func() { l.HandleNoteOn(s, channel, note, velocity) })
	}
	return notify
}

func (s *KeyboardState) noteOff(notify []func(), channel, note int, velocity float64) []func() {
	if !s.isNoteOn(channel, note) {
		return notify
	}
	s.noteStates[note] &^= 1 << uint(channel-1)
	for _, l := range s.listeners {
		l := l
		notify = append(notify, func() { l.HandleNoteOff(s, channel, note, velocity) })
	}
	return notify
}

func (s *KeyboardState) queue(msg midi.Message) {
	t := int(s.now().Sub(s.epoch) / time.Millisecond)
	s.pending.AddEvent(msg, t)
	s.pending.ClearBefore(t - keyboardQueueWindow)
}

func run(fs []func()) {
	for _, f := range fs {
		f()
	}
}

func validNote(note int) bool       { return note >= 0 && note < 128 }
func validChannel(channel int) bool { return channel >= 1 && channel <= numChannels }

func velocityByte(v float64) uint8 {
	return uint8(clamp(int(math.Round(v*127)), 0, 127))
}

// noteOnVelocity never returns 0, which would read as a note-off.
func noteOnVelocity(v float64) uint8 {
	if b := velocityByte(v); b > 0 {
		return b
	}
	return 1
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
