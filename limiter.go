package synth

import "math"

// Saturate soft-clips x into (-1, 1).  It is close to linear for the levels a
// few sine voices produce.
func Saturate(x float64) float64 {
	return math.Tanh(x)
}
