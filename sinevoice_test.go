package synth

import (
	"math"
	"testing"
)

func startedSineVoice(note int, velocity float64) *SineWaveVoice {
	v := new(SineWaveVoice)
	Init(v, Params{SampleRate: 48000})
	v.StartNote(note, velocity, new(SineWaveSound), pitchWheelZero)
	return v
}

func peak(x []float32) float64 {
	var p float64
	for _, x := range x {
		p = math.Max(p, math.Abs(float64(x)))
	}
	return p
}

func TestSineWaveVoiceCanPlaySound(t *testing.T) {
	v := new(SineWaveVoice)
	if !v.CanPlaySound(new(SineWaveSound)) {
		t.Error("sine voice refused the sine sound")
	}
	if v.CanPlaySound(channelSound(2)) {
		t.Error("sine voice accepted another kind of sound")
	}
}

func TestSineWaveVoicePitchAndLevel(t *testing.T) {
	for _, velocity := range []float64{1, .5} {
		v := startedSineVoice(69, velocity)
		out := NewBuffer(2, 1<<14)
		v.RenderNextBlock(out, 0, out.NumSamples())

		level := velocity * velocityLevel
		if p := peak(out[0]); p > level+1e-6 || p < level*.999 {
			t.Errorf("velocity %v: peak %v, want %v", velocity, p, level)
		}
		f, err := PeakFrequency(out[0], 48000)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(f-440) > 2 {
			t.Errorf("velocity %v: frequency %.2f, want 440", velocity, f)
		}
		for i := range out[0] {
			if out[0][i] != out[1][i] {
				t.Fatalf("channels differ at sample %d", i)
			}
		}
	}
}

func TestSineWaveVoiceAddsToBuffer(t *testing.T) {
	a := startedSineVoice(60, 1)
	b := startedSineVoice(60, 1)

	alone := NewBuffer(1, 256)
	a.RenderNextBlock(alone, 0, 256)

	mixed := NewBuffer(1, 256)
	for i := range mixed[0] {
		mixed[0][i] = 1
	}
	b.RenderNextBlock(mixed, 0, 256)
	for i := range mixed[0] {
		if d := mixed[0][i] - (1 + alone[0][i]); math.Abs(float64(d)) > 1e-6 {
			t.Fatalf("sample %d: %v, want %v", i, mixed[0][i], 1+alone[0][i])
		}
	}
}

func TestSineWaveVoiceBlockSizeIndependent(t *testing.T) {
	a := startedSineVoice(64, .8)
	b := startedSineVoice(64, .8)
	whole := NewBuffer(1, 1000)
	parts := NewBuffer(1, 1000)

	a.RenderNextBlock(whole, 0, 1000)
	for start := 0; start < 1000; start += 7 {
		n := 7
		if start+n > 1000 {
			n = 1000 - start
		}
		b.RenderNextBlock(parts, start, n)
	}
	for i := range whole[0] {
		if whole[0][i] != parts[0][i] {
			t.Fatalf("sample %d: %v rendered whole, %v in parts", i, whole[0][i], parts[0][i])
		}
	}
}

func TestSineWaveVoiceTailOff(t *testing.T) {
	v := startedSineVoice(69, 1)
	v.RenderNextBlock(NewBuffer(1, 100), 0, 100)

	v.StopNote(0, true)
	out := NewBuffer(1, 1000)
	v.RenderNextBlock(out, 0, 1000)

	const tailLength = 528
	if p := peak(out[0][:100]); p < .05 {
		t.Errorf("release starts too quietly: peak %v", p)
	}
	if p := peak(out[0][tailLength-50 : tailLength]); p == 0 || p > .15*.01 {
		t.Errorf("end of tail peak %v, want small but not silent", p)
	}
	if p := peak(out[0][tailLength:]); p != 0 {
		t.Errorf("voice still sounding after tail: peak %v", p)
	}
	if v.osc.Running() {
		t.Error("oscillator still running after tail")
	}

	// the voice stays silent until the next note
	more := NewBuffer(1, 100)
	v.RenderNextBlock(more, 0, 100)
	if p := peak(more[0]); p != 0 {
		t.Errorf("finished voice rendered peak %v", p)
	}
}

func TestSineWaveVoiceReleaseTwice(t *testing.T) {
	a := startedSineVoice(69, 1)
	b := startedSineVoice(69, 1)
	a.StopNote(0, true)
	b.StopNote(0, true)

	outA := NewBuffer(1, 200)
	outB := NewBuffer(1, 200)
	a.RenderNextBlock(outA, 0, 200)
	b.RenderNextBlock(outB, 0, 100)
	b.StopNote(0, true)
	b.RenderNextBlock(outB, 100, 100)
	for i := range outA[0] {
		if outA[0][i] != outB[0][i] {
			t.Fatalf("second release changed the tail at sample %d", i)
		}
	}
}

func TestSineWaveVoiceStopImmediately(t *testing.T) {
	v := startedSineVoice(69, 1)
	v.RenderNextBlock(NewBuffer(1, 100), 0, 100)
	v.StopNote(0, false)

	out := NewBuffer(1, 100)
	v.RenderNextBlock(out, 0, 100)
	if p := peak(out[0]); p != 0 {
		t.Errorf("stopped voice rendered peak %v", p)
	}
	if v.IsVoiceActive() {
		t.Error("stopped voice still active")
	}
}

func BenchmarkSineWaveVoice(b *testing.B) {
	v := startedSineVoice(69, 1)
	out := NewBuffer(2, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.RenderNextBlock(out, 0, 512)
	}
}
