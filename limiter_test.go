package synth

import (
	"math"
	"math/rand"
	"testing"
)

func TestSaturate(t *testing.T) {
	for _, x := range []float64{-100, -4, -1, -.15, 0, .15, 1, 4, 100} {
		y := Saturate(x)
		if math.Abs(y) >= 1 && !math.IsInf(x, 0) && math.Abs(x) < 10 {
			t.Errorf("Saturate(%v) = %v, want |y| < 1", x, y)
		}
		if math.Signbit(y) != math.Signbit(x) {
			t.Errorf("Saturate(%v) = %v changed sign", x, y)
		}
	}
	if y := Saturate(.15); math.Abs(y-.15) > .002 {
		t.Errorf("Saturate(.15) = %v, want about .15", y)
	}
}

func BenchmarkSaturate(b *testing.B) {
	x := make([]float64, 1024)
	for i := range x {
		x[i] = 8*rand.Float64() - 4
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Saturate(x[i&(1<<10-1)])
	}
}
