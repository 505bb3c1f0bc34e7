package synth

// An AudioSource fills blocks of audio for a Player.  PrepareToPlay is called
// before the first block and ReleaseResources after the last.
type AudioSource interface {
	PrepareToPlay(samplesPerBlock int, sampleRate float64)
	ReleaseResources()
	GetNextAudioBlock(ChannelInfo) error
}

const numSineVoices = 4

// SynthAudioSource plays a KeyboardState and a MessageCollector on a
// Synthesiser with four SineWaveVoices and one SineWaveSound.
type SynthAudioSource struct {
	keyboardState *KeyboardState
	synth         *Synthesiser
	collector     *MessageCollector

	incoming, collected MidiBuffer
}

// NewSynthAudioSource returns a source reading keyState, or a KeyboardState
// of its own if keyState is nil.
func NewSynthAudioSource(keyState *KeyboardState) *SynthAudioSource {
	if keyState == nil {
		keyState = NewKeyboardState()
	}
	s := &SynthAudioSource{
		keyboardState: keyState,
		synth:         NewSynthesiser(),
		collector:     NewMessageCollector(),
	}
	for i := 0; i < numSineVoices; i++ {
		s.synth.AddVoice(new(SineWaveVoice))
	}
	s.synth.AddSound(new(SineWaveSound))
	return s
}

func (s *SynthAudioSource) KeyboardState() *KeyboardState { return s.keyboardState }

func (s *SynthAudioSource) Synthesiser() *Synthesiser { return s.synth }

func (s *SynthAudioSource) MidiCollector() *MessageCollector { return s.collector }

// SetUsingSineWaveSound clears the synthesiser's sounds.
func (s *SynthAudioSource) SetUsingSineWaveSound() {
	s.synth.ClearSounds()
}

func (s *SynthAudioSource) PrepareToPlay(_ int, sampleRate float64) {
	s.synth.SetCurrentPlaybackSampleRate(sampleRate)
	s.collector.Reset(sampleRate)
}

func (s *SynthAudioSource) ReleaseResources() {}

// GetNextAudioBlock renders the messages collected since the previous block
// together with the keys pressed on the KeyboardState.
func (s *SynthAudioSource) GetNextAudioBlock(info ChannelInfo) error {
	info.ClearActiveBufferRegion()

	s.incoming.Clear()
	s.collected.Clear()
	s.collector.RemoveNextBlockOfMessages(&s.collected, info.NumSamples)
	s.incoming.AddEvents(&s.collected, 0, -1, info.StartSample)
	s.keyboardState.ProcessNextMidiBuffer(&s.incoming, info.StartSample, info.NumSamples, true)

	return s.synth.RenderNextBlock(info.Buffer, &s.incoming, info.StartSample, info.NumSamples)
}

// GetNextAudioBlockWithMidi renders events without consulting the
// KeyboardState or the MessageCollector.
func (s *SynthAudioSource) GetNextAudioBlockWithMidi(info ChannelInfo, events *MidiBuffer) error {
	info.ClearActiveBufferRegion()
	return s.synth.RenderNextBlock(info.Buffer, events, info.StartSample, info.NumSamples)
}
