package synth

import "math"

// SineOsc is a phase-accumulating sine oscillator.
type SineOsc struct {
	Params       Params
	angle, delta float64
}

func (o *SineOsc) SetFreq(freq float64) {
	if o.Params.SampleRate == 0 {
		o.delta = 0
		return
	}
	o.delta = freq / o.Params.SampleRate * 2 * math.Pi
}

func (o *SineOsc) Reset()        { o.angle = 0 }
func (o *SineOsc) Stop()         { o.delta = 0 }
func (o *SineOsc) Running() bool { return o.delta != 0 }

func (o *SineOsc) Sine() float64 {
	x := math.Sin(o.angle)
	o.angle += o.delta
	return x
}

// NoteHz returns the equal-tempered frequency of a MIDI note, A4 (69) = 440Hz.
func NoteHz(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}
