package synth

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
)

var ErrCollectorNotReset = errors.New("synth: MessageCollector used before Reset")

// A MessageCollector queues MIDI messages arriving on an input goroutine and
// hands them to the audio goroutine a block at a time, placing each message
// in the block according to when it arrived.
type MessageCollector struct {
	mu           sync.Mutex
	sampleRate   float64
	lastCallback float64
	incoming     MidiBuffer
	now          func() float64
}

func NewMessageCollector() *MessageCollector {
	start := time.Now()
	return newMessageCollector(func() float64 { return time.Since(start).Seconds() })
}

func newMessageCollector(now func() float64) *MessageCollector {
	return &MessageCollector{now: now}
}

// Now returns the collector's clock in seconds, the time base of
// AddMessageToQueue.
func (c *MessageCollector) Now() float64 { return c.now() }

// Reset discards queued messages and sets the sample rate used to place
// messages.  It must be called before messages are added.
func (c *MessageCollector) Reset(sampleRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleRate = sampleRate
	c.incoming.Clear()
	c.lastCallback = c.now()
}

// AddMessageToQueue queues msg as having arrived at timestamp seconds on the
// collector's clock.
func (c *MessageCollector) AddMessageToQueue(msg midi.Message, timestamp float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampleRate <= 0 {
		return ErrCollectorNotReset
	}
	pos := int((timestamp - c.lastCallback) * c.sampleRate)
	c.incoming.AddEvent(msg, pos)

	// if the audio side stops collecting, keep at most a second of messages
	c.incoming.ClearBefore(pos - int(c.sampleRate))
	return nil
}

// HandleIncomingMidiMessage queues msg as arriving now.  Its signature fits
// gomidi's midi.ListenTo.  Messages arriving before Reset are dropped.
func (c *MessageCollector) HandleIncomingMidiMessage(msg midi.Message, _ int32) {
	_ = c.AddMessageToQueue(msg, c.now())
}

// RemoveNextBlockOfMessages moves the queued messages into dst at positions
// in [0, n), where n is the length of the block about to be rendered.  The
// time since the previous call is mapped onto the block; if more time passed
// than the block lasts, it is squeezed, keeping at most the last eight
// block-lengths.
func (c *MessageCollector) RemoveNextBlockOfMessages(dst *MidiBuffer, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return
	}

	now := c.now()
	elapsed := now - c.lastCallback
	c.lastCallback = now

	if c.incoming.IsEmpty() {
		return
	}

	source := int(math.Round(elapsed * c.sampleRate))
	if source < 1 {
		source = 1
	}

	if source > n {
		start := 0
		if longest := n * 8; source > longest {
			start = source - longest
			source = longest
		}
		scale := (n << 10) / source
		for _, e := range c.incoming.Events() {
			pos := ((e.SamplePosition - start) * scale) >> 10
			dst.AddEvent(e.Message, clamp(pos, 0, n-1))
		}
	} else {
		start := n - source
		for _, e := range c.incoming.Events() {
			dst.AddEvent(e.Message, clamp(e.SamplePosition+start, 0, n-1))
		}
	}
	c.incoming.Clear()
}
