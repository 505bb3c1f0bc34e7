package synth

// EventDelay runs callbacks a number of samples in the future.  Each Step
// runs the callbacks due at the current sample and then advances one sample.
type EventDelay struct {
	Params Params
	events []delayEvent
}

type delayEvent struct {
	n int // samples after the previous event
	f func()
}

// Delay schedules f to run t seconds from now.
func (d *EventDelay) Delay(t float64, f func()) {
	if d.Params.SampleRate == 0 {
		panic("EventDelay.Delay called before InitAudio")
	}
	n := int(t * d.Params.SampleRate)
	if n < 0 {
		n = 0
	}
	i := 0
	for ; i < len(d.events); i++ {
		e := &d.events[i]
		if n < e.n {
			e.n -= n
			break
		}
		n -= e.n
	}
	d.events = append(d.events, delayEvent{})
	copy(d.events[i+1:], d.events[i:])
	d.events[i] = delayEvent{n, f}
}

func (d *EventDelay) Step() {
	for len(d.events) > 0 && d.events[0].n <= 0 {
		e := d.events[0]
		d.events = d.events[1:]
		e.f()
	}
	if len(d.events) > 0 {
		d.events[0].n--
	}
}

func (d *EventDelay) Pending() int { return len(d.events) }
