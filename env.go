package synth

const (
	tailOffDecay = .99
	tailOffFloor = .005
)

// TailOff is the release envelope of a voice.  It is idle at 0; Release
// starts it at 1 and each Sing multiplies it by tailOffDecay.
type TailOff struct {
	x float64
}

func (e *TailOff) Reset() { e.x = 0 }

// Release starts the decay.  Releasing an envelope that is already decaying
// does not restart it.
func (e *TailOff) Release() {
	if e.x == 0 {
		e.x = 1
	}
}

func (e *TailOff) Releasing() bool { return e.x > 0 }

// Sing returns the current gain and advances the decay by one sample.
func (e *TailOff) Sing() float64 {
	x := e.x
	e.x *= tailOffDecay
	return x
}

func (e *TailOff) Done() bool {
	return e.x > 0 && e.x <= tailOffFloor
}
