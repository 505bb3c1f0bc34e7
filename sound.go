package synth

// A Sound describes which notes and MIDI channels (1-16) a kind of voice may
// play.  Voices decide whether they can play a Sound with CanPlaySound.
type Sound interface {
	AppliesToNote(note int) bool
	AppliesToChannel(channel int) bool
}

// SineWaveSound applies to every note on every channel.
type SineWaveSound struct{}

func (*SineWaveSound) AppliesToNote(int) bool    { return true }
func (*SineWaveSound) AppliesToChannel(int) bool { return true }
