package synth

import "math"

// AmpMeter measures the RMS amplitude of the most recent windowSize seconds.
type AmpMeter struct {
	windowSize float64
	buf        []float64
	i          int
	sum        float64
}

func NewAmpMeter(windowSize float64) *AmpMeter {
	return &AmpMeter{windowSize: windowSize}
}

func (a *AmpMeter) InitAudio(p Params) {
	n := int(p.SampleRate * a.windowSize)
	if n < 1 {
		n = 1
	}
	a.buf = make([]float64, n)
	a.i = 0
	a.sum = 0
}

func (a *AmpMeter) Amplitude(x []float32) float64 {
	for _, x := range x {
		a.sum -= a.buf[a.i]
		a.buf[a.i] = float64(x) * float64(x)
		a.sum += a.buf[a.i]
		a.i = (a.i + 1) % len(a.buf)
	}
	if a.sum < 0 {
		a.sum = 0
	}
	return math.Sqrt(a.sum / float64(len(a.buf)))
}
