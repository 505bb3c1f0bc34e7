package synth

import (
	"math"
	"math/cmplx"

	"github.com/ktye/fft"
	"github.com/pkg/errors"
)

// PeakFrequency returns the frequency of the strongest spectral component of
// x.  It analyses the largest power-of-two prefix of x through a Hann window
// and refines the peak bin by fitting a parabola to the log magnitudes around
// it.
func PeakFrequency(x []float32, sampleRate float64) (float64, error) {
	size := 1
	for size*2 <= len(x) {
		size *= 2
	}
	if size < 4 {
		return 0, errors.New("synth: too few samples for spectral analysis")
	}
	f, err := fft.New(size)
	if err != nil {
		return 0, err
	}

	buf := make([]complex128, size)
	for i := range buf {
		env := (1 - math.Cos(2*math.Pi*float64(i)/float64(size))) / 2
		buf[i] = complex(float64(x[i])*env, 0)
	}
	buf = f.Transform(buf)

	mag := func(i int) float64 { return cmplx.Abs(buf[i]) }
	peak := 1
	for i := 2; i < size/2; i++ {
		if mag(i) > mag(peak) {
			peak = i
		}
	}
	if mag(peak) == 0 {
		return 0, errors.New("synth: silent input")
	}

	bin := float64(peak)
	if a, b, c := mag(peak-1), mag(peak), mag(peak+1); a > 0 && c > 0 {
		a, b, c = math.Log(a), math.Log(b), math.Log(c)
		if d := a - 2*b + c; d != 0 {
			bin += (a - c) / (2 * d)
		}
	}
	return bin * sampleRate / float64(size), nil
}
