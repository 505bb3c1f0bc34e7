package synth

// SineWaveVoice plays a sine at the note's pitch with a level proportional to
// velocity, fading out with a TailOff when released.
type SineWaveVoice struct {
	VoiceBase
	osc     SineOsc
	level   float64
	tailOff TailOff
}

const velocityLevel = .15

func (v *SineWaveVoice) InitAudio(p Params) {
	v.VoiceBase.InitAudio(p)
	v.osc.Params = p
}

func (v *SineWaveVoice) CanPlaySound(s Sound) bool {
	_, ok := s.(*SineWaveSound)
	return ok
}

func (v *SineWaveVoice) StartNote(note int, velocity float64, _ Sound, _ int) {
	v.osc.Reset()
	v.level = velocity * velocityLevel
	v.tailOff.Reset()
	v.osc.SetFreq(NoteHz(note))
}

func (v *SineWaveVoice) StopNote(_ float64, allowTailOff bool) {
	if allowTailOff {
		v.tailOff.Release()
		return
	}
	v.ClearCurrentNote()
	v.osc.Stop()
}

func (v *SineWaveVoice) RenderNextBlock(out Buffer, start, n int) {
	if !v.osc.Running() {
		return
	}
	if !v.tailOff.Releasing() {
		for i := start; i < start+n; i++ {
			x := float32(v.osc.Sine() * v.level)
			for c := range out {
				out.AddSample(c, i, x)
			}
		}
		return
	}
	for i := start; i < start+n; i++ {
		x := float32(v.osc.Sine() * v.level * v.tailOff.Sing())
		for c := range out {
			out.AddSample(c, i, x)
		}
		if v.tailOff.Done() {
			v.ClearCurrentNote()
			v.osc.Stop()
			break
		}
	}
}
