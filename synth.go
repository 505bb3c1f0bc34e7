package synth

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
)

var (
	ErrSampleRateNotSet = errors.New("synth: playback sample rate not set")
	ErrBlockRange       = errors.New("synth: block range outside buffer")
)

const (
	ccSustain      = 0x40
	ccSostenuto    = 0x42
	ccSoftPedal    = 0x43
	ccAllSoundOff  = 0x78
	ccAllNotesOff  = 0x7b
	numChannels    = 16
	pitchWheelZero = 0x2000
)

// A Synthesiser plays MIDI on a pool of voices.  Each note-on is matched
// against the registered sounds and started on a free voice that can play
// the sound, or on a stolen voice when none is free.
//
// All methods are safe for concurrent use.  Channels are numbered 1-16;
// channel 0 in AllNotesOff means every channel.
type Synthesiser struct {
	mu         sync.Mutex
	voices     []Voice
	sounds     []Sound
	sampleRate float64

	lastNoteOnCounter uint32
	lastPitchWheel    [numChannels]int
	sustainDown       [numChannels]bool

	minSubBlock    int
	strictSubBlock bool
	noStealing     bool
}

func NewSynthesiser() *Synthesiser {
	s := &Synthesiser{minSubBlock: 32}
	for i := range s.lastPitchWheel {
		s.lastPitchWheel[i] = pitchWheelZero
	}
	return s
}

func (s *Synthesiser) AddVoice(v Voice) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	Init(v, Params{SampleRate: s.sampleRate})
	s.voices = append(s.voices, v)
	return v
}

func (s *Synthesiser) RemoveVoice(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = append(s.voices[:i], s.voices[i+1:]...)
}

func (s *Synthesiser) ClearVoices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = nil
}

func (s *Synthesiser) NumVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

func (s *Synthesiser) Voice(i int) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voices[i]
}

func (s *Synthesiser) AddSound(snd Sound) Sound {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds, snd)
	return snd
}

func (s *Synthesiser) RemoveSound(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds[:i], s.sounds[i+1:]...)
}

func (s *Synthesiser) ClearSounds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = nil
}

func (s *Synthesiser) NumSounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sounds)
}

func (s *Synthesiser) SetNoteStealingEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noStealing = !enabled
}

func (s *Synthesiser) IsNoteStealingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.noStealing
}

// SetMinimumRenderingSubdivisionSize sets the shortest run of samples that
// RenderNextBlock renders between two MIDI events.  Events closer together
// than that are handled at the start of the run.  Unless strict, the first
// event of a block may split it at any position.
func (s *Synthesiser) SetMinimumRenderingSubdivisionSize(n int, strict bool) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minSubBlock = n
	s.strictSubBlock = strict
}

// SetCurrentPlaybackSampleRate stops every voice immediately and passes the
// new rate on to them.
func (s *Synthesiser) SetCurrentPlaybackSampleRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampleRate == rate {
		return
	}
	s.allNotesOff(0, false)
	s.sampleRate = rate
	Init(s.voices, Params{SampleRate: rate})
}

func (s *Synthesiser) SampleRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// RenderNextBlock adds the voices' output for out[start:start+n] while
// playing the events of events that fall inside that range at their sample
// positions.  Events at or after start+n are handled once the block has been
// rendered.
func (s *Synthesiser) RenderNextBlock(out Buffer, events *MidiBuffer, start, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sampleRate == 0 {
		return ErrSampleRateNotSet
	}
	if start < 0 || n < 0 || start+n > out.NumSamples() {
		return ErrBlockRange
	}

	var pending []MidiEvent
	if events != nil {
		pending = events.EventsFrom(start)
	}
	first := true
	for n > 0 {
		if len(pending) == 0 {
			s.renderVoices(out, start, n)
			return nil
		}
		e := pending[0]
		toNext := e.SamplePosition - start
		if toNext >= n {
			s.renderVoices(out, start, n)
			break
		}
		shortest := s.minSubBlock
		if first && !s.strictSubBlock {
			shortest = 1
		}
		if toNext < shortest {
			s.handleMidiEvent(e.Message)
			pending = pending[1:]
			continue
		}
		first = false
		s.renderVoices(out, start, toNext)
		s.handleMidiEvent(e.Message)
		pending = pending[1:]
		start += toNext
		n -= toNext
	}
	for _, e := range pending {
		s.handleMidiEvent(e.Message)
	}
	return nil
}

func (s *Synthesiser) renderVoices(out Buffer, start, n int) {
	for _, v := range s.voices {
		v.RenderNextBlock(out, start, n)
	}
}

func (s *Synthesiser) handleMidiEvent(msg midi.Message) {
	var ch, key, vel, ctl, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		s.noteOn(int(ch)+1, int(key), float64(vel)/127)
	case msg.GetNoteOff(&ch, &key, &vel):
		s.noteOff(int(ch)+1, int(key), float64(vel)/127, true)
	case msg.GetNoteEnd(&ch, &key):
		s.noteOff(int(ch)+1, int(key), 0, true)
	case msg.GetControlChange(&ch, &ctl, &val):
		switch ctl {
		case ccAllNotesOff:
			s.allNotesOff(int(ch)+1, true)
		case ccAllSoundOff:
			s.allNotesOff(int(ch)+1, false)
		default:
			s.controllerMoved(int(ch)+1, int(ctl), int(val))
		}
	case msg.GetPitchBend(&ch, &rel, &abs):
		s.pitchWheelMoved(int(ch)+1, int(abs))
	case msg.GetPolyAfterTouch(&ch, &key, &val):
		s.aftertouchChanged(int(ch)+1, int(key), int(val))
	case msg.GetAfterTouch(&ch, &val):
		s.channelPressureChanged(int(ch)+1, int(val))
	}
}

// NoteOn starts note on channel for every sound that applies to it.  A voice
// already playing the same note on the same channel is released first.
func (s *Synthesiser) NoteOn(channel, note int, velocity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOn(channel, note, velocity)
}

func (s *Synthesiser) noteOn(channel, note int, velocity float64) {
	for _, snd := range s.sounds {
		if !snd.AppliesToNote(note) || !snd.AppliesToChannel(channel) {
			continue
		}
		for _, v := range s.voices {
			if b := v.base(); b.CurrentlyPlayingNote() == note && b.IsPlayingChannel(channel) {
				v.StopNote(1, true)
			}
		}
		s.startVoice(s.findFreeVoice(snd, note), snd, channel, note, velocity)
	}
}

func (s *Synthesiser) startVoice(v Voice, snd Sound, channel, note int, velocity float64) {
	if v == nil || snd == nil {
		return
	}
	b := v.base()
	if b.IsVoiceActive() {
		v.StopNote(0, false)
	}
	s.lastNoteOnCounter++
	b.note = note
	b.channel = channel
	b.sound = snd
	b.noteOnTime = s.lastNoteOnCounter
	b.keyDown = true
	b.sostenutoDown = false
	b.sustainDown = s.isSustainDown(channel)
	v.StartNote(note, velocity, snd, s.pitchWheel(channel))
}

// NoteOff releases note on channel unless a sustain or sostenuto pedal holds
// it.
func (s *Synthesiser) NoteOff(channel, note int, velocity float64, allowTailOff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOff(channel, note, velocity, allowTailOff)
}

func (s *Synthesiser) noteOff(channel, note int, velocity float64, allowTailOff bool) {
	for _, v := range s.voices {
		b := v.base()
		if b.CurrentlyPlayingNote() != note || !b.IsPlayingChannel(channel) {
			continue
		}
		if snd := b.sound; !snd.AppliesToNote(note) || !snd.AppliesToChannel(channel) {
			continue
		}
		b.keyDown = false
		if !(b.sustainDown || b.sostenutoDown) {
			v.StopNote(velocity, allowTailOff)
		}
	}
}

func (s *Synthesiser) AllNotesOff(channel int, allowTailOff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allNotesOff(channel, allowTailOff)
}

func (s *Synthesiser) allNotesOff(channel int, allowTailOff bool) {
	for _, v := range s.voices {
		if b := v.base(); b.IsVoiceActive() && (channel <= 0 || b.IsPlayingChannel(channel)) {
			v.StopNote(1, allowTailOff)
		}
	}
	if channel <= 0 {
		s.sustainDown = [numChannels]bool{}
	} else if channel <= numChannels {
		s.sustainDown[channel-1] = false
	}
}

func (s *Synthesiser) pitchWheelMoved(channel, value int) {
	if channel >= 1 && channel <= numChannels {
		s.lastPitchWheel[channel-1] = value
	}
	for _, v := range s.voices {
		if v.base().IsPlayingChannel(channel) {
			v.PitchWheelMoved(value)
		}
	}
}

func (s *Synthesiser) controllerMoved(channel, controller, value int) {
	switch controller {
	case ccSustain:
		s.sustainPedal(channel, value >= 64)
	case ccSostenuto:
		s.sostenutoPedal(channel, value >= 64)
	case ccSoftPedal:
		// no voice here responds to the soft pedal
	}
	for _, v := range s.voices {
		if v.base().IsPlayingChannel(channel) {
			v.ControllerMoved(controller, value)
		}
	}
}

func (s *Synthesiser) aftertouchChanged(channel, note, value int) {
	for _, v := range s.voices {
		if b := v.base(); b.CurrentlyPlayingNote() == note && b.IsPlayingChannel(channel) {
			v.AftertouchChanged(value)
		}
	}
}

func (s *Synthesiser) channelPressureChanged(channel, value int) {
	for _, v := range s.voices {
		if v.base().IsPlayingChannel(channel) {
			v.ChannelPressureChanged(value)
		}
	}
}

func (s *Synthesiser) sustainPedal(channel int, down bool) {
	if channel < 1 || channel > numChannels {
		return
	}
	if down {
		s.sustainDown[channel-1] = true
		for _, v := range s.voices {
			if b := v.base(); b.IsPlayingChannel(channel) && b.keyDown {
				b.sustainDown = true
			}
		}
		return
	}
	for _, v := range s.voices {
		b := v.base()
		if !b.IsPlayingChannel(channel) {
			continue
		}
		b.sustainDown = false
		if !(b.keyDown || b.sostenutoDown) {
			v.StopNote(1, true)
		}
	}
	s.sustainDown[channel-1] = false
}

func (s *Synthesiser) sostenutoPedal(channel int, down bool) {
	for _, v := range s.voices {
		b := v.base()
		if !b.IsPlayingChannel(channel) {
			continue
		}
		if down {
			b.sostenutoDown = b.keyDown
			continue
		}
		if b.sostenutoDown {
			b.sostenutoDown = false
			if !(b.keyDown || b.sustainDown) {
				v.StopNote(1, true)
			}
		}
	}
}

func (s *Synthesiser) isSustainDown(channel int) bool {
	return channel >= 1 && channel <= numChannels && s.sustainDown[channel-1]
}

func (s *Synthesiser) pitchWheel(channel int) int {
	if channel < 1 || channel > numChannels {
		return pitchWheelZero
	}
	return s.lastPitchWheel[channel-1]
}

func (s *Synthesiser) findFreeVoice(snd Sound, note int) Voice {
	for _, v := range s.voices {
		if !v.base().IsVoiceActive() && v.CanPlaySound(snd) {
			return v
		}
	}
	if s.noStealing {
		return nil
	}
	return s.findVoiceToSteal(snd, note)
}

// findVoiceToSteal picks, oldest first: a voice already playing note, a
// released voice, a voice whose key is up, then any voice.  The lowest and
// highest held notes are kept unless nothing else is left.
func (s *Synthesiser) findVoiceToSteal(snd Sound, note int) Voice {
	var usable []Voice
	var low, top Voice
	for _, v := range s.voices {
		if !v.CanPlaySound(snd) {
			continue
		}
		usable = append(usable, v)
		b := v.base()
		if b.IsPlayingButReleased() {
			continue
		}
		n := b.CurrentlyPlayingNote()
		if low == nil || n < low.base().CurrentlyPlayingNote() {
			low = v
		}
		if top == nil || n > top.base().CurrentlyPlayingNote() {
			top = v
		}
	}
	if top == low {
		top = nil
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].base().WasStartedBefore(usable[j].base())
	})

	for _, v := range usable {
		if v.base().CurrentlyPlayingNote() == note {
			return v
		}
	}
	for _, v := range usable {
		if v != low && v != top && v.base().IsPlayingButReleased() {
			return v
		}
	}
	for _, v := range usable {
		if v != low && v != top && !v.base().IsKeyDown() {
			return v
		}
	}
	for _, v := range usable {
		if v != low && v != top {
			return v
		}
	}
	if top != nil {
		return top
	}
	return low
}
