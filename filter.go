package synth

import "math"

// dcCutoff is the corner frequency of DCFilter in Hz.
const dcCutoff = 10

// DCFilter is a one-pole high-pass filter that removes any constant offset
// from a signal while passing audible frequencies.
type DCFilter struct {
	a, x, y float64
}

func (f *DCFilter) InitAudio(p Params) {
	rc := 1 / (2 * math.Pi * dcCutoff)
	f.a = rc / (rc + 1/p.SampleRate)
	f.x, f.y = 0, 0
}

func (f *DCFilter) Filter(x float64) float64 {
	f.y = f.a * (f.y + x - f.x)
	f.x = x
	return f.y
}

// FilterBlock filters x in place.
func (f *DCFilter) FilterBlock(x []float32) {
	for i := range x {
		x[i] = float32(f.Filter(float64(x[i])))
	}
}
