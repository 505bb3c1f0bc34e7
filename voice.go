package synth

// A Voice plays one note at a time for a Synthesiser.  Implementations embed
// VoiceBase, which carries the bookkeeping the Synthesiser uses to allocate
// and steal voices.
type Voice interface {
	Initer
	CanPlaySound(Sound) bool
	StartNote(note int, velocity float64, sound Sound, pitchWheel int)
	StopNote(velocity float64, allowTailOff bool)
	PitchWheelMoved(value int)
	ControllerMoved(controller, value int)
	AftertouchChanged(value int)
	ChannelPressureChanged(value int)

	// RenderNextBlock adds the voice's output to out[start:start+n] on every
	// channel.
	RenderNextBlock(out Buffer, start, n int)

	base() *VoiceBase
}

type VoiceBase struct {
	params        Params
	note          int
	channel       int
	sound         Sound
	noteOnTime    uint32
	keyDown       bool
	sustainDown   bool
	sostenutoDown bool
}

func (v *VoiceBase) base() *VoiceBase { return v }

func (v *VoiceBase) InitAudio(p Params) { v.params = p }

func (v *VoiceBase) SampleRate() float64 { return v.params.SampleRate }

// CurrentlyPlayingNote returns the note being played, or -1 if the voice is
// idle.
func (v *VoiceBase) CurrentlyPlayingNote() int {
	if v.sound == nil {
		return -1
	}
	return v.note
}

func (v *VoiceBase) CurrentlyPlayingSound() Sound { return v.sound }

func (v *VoiceBase) IsVoiceActive() bool { return v.sound != nil }

func (v *VoiceBase) IsPlayingChannel(channel int) bool {
	return v.sound != nil && v.channel == channel
}

func (v *VoiceBase) IsKeyDown() bool { return v.keyDown }

func (v *VoiceBase) IsSustainPedalDown() bool { return v.sustainDown }

func (v *VoiceBase) IsSostenutoPedalDown() bool { return v.sostenutoDown }

// IsPlayingButReleased reports whether the voice is still sounding although
// nothing holds its note: no key, no sustain and no sostenuto.
func (v *VoiceBase) IsPlayingButReleased() bool {
	return v.IsVoiceActive() && !(v.keyDown || v.sustainDown || v.sostenutoDown)
}

func (v *VoiceBase) WasStartedBefore(other *VoiceBase) bool {
	return v.noteOnTime < other.noteOnTime
}

// ClearCurrentNote marks the voice idle.  Voices call it when their note has
// finished sounding.
func (v *VoiceBase) ClearCurrentNote() {
	v.note = -1
	v.sound = nil
	v.sustainDown = false
	v.sostenutoDown = false
}

func (v *VoiceBase) PitchWheelMoved(int)        {}
func (v *VoiceBase) ControllerMoved(int, int)   {}
func (v *VoiceBase) AftertouchChanged(int)      {}
func (v *VoiceBase) ChannelPressureChanged(int) {}
