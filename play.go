package synth

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Initialize must be called before any Player is started or devices are
// listed; Terminate releases the audio system afterwards.
func Initialize() error {
	return errors.Wrap(portaudio.Initialize(), "initializing portaudio")
}

func Terminate() error {
	return errors.Wrap(portaudio.Terminate(), "terminating portaudio")
}

// Devices returns the audio devices that can play output.
func Devices() ([]*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing audio devices")
	}
	var out []*portaudio.DeviceInfo
	for _, d := range all {
		if d.MaxOutputChannels > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

// A Player plays an AudioSource on the default output device, removing DC
// offset and saturating the output.
type Player struct {
	src      AudioSource
	params   Params
	channels int
	log      *slog.Logger

	stream   *portaudio.Stream
	filters  []DCFilter
	meter    *AmpMeter
	level    atomic.Uint64
	failed   atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewPlayer(src AudioSource, p Params, channels int, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{
		src:      src,
		params:   p,
		channels: channels,
		log:      log,
		meter:    NewAmpMeter(.1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *Player) prepare() {
	p.src.PrepareToPlay(p.params.BufferSize, p.params.SampleRate)
	p.filters = make([]DCFilter, p.channels)
	Init(p.filters, p.params)
	p.meter.InitAudio(p.params)
}

func (p *Player) Start() error {
	p.prepare()

	stream, err := portaudio.OpenDefaultStream(0, p.channels, p.params.SampleRate, p.params.BufferSize, p.process)
	if err != nil {
		p.src.ReleaseResources()
		return errors.Wrap(err, "opening output stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		p.src.ReleaseResources()
		return errors.Wrap(err, "starting output stream")
	}
	p.stream = stream
	p.log.Info("playing", "sample_rate", p.params.SampleRate, "block_size", p.params.BufferSize, "channels", p.channels)

	go func() {
		<-p.stop
		if err := stream.Stop(); err != nil {
			p.log.Error("stopping output stream", "err", err)
		}
		if err := stream.Close(); err != nil {
			p.log.Error("closing output stream", "err", err)
		}
		p.src.ReleaseResources()
		close(p.done)
	}()
	return nil
}

// Stop asks the player to stop.  It does not wait; receive from Done for
// that.
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Player) Done() <-chan struct{} { return p.done }

// Play starts the player and blocks until ctx is done.
func (p *Player) Play(ctx context.Context) error {
	if err := p.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	<-p.done
	return nil
}

// Level returns the RMS level of the first output channel over the last
// tenth of a second.
func (p *Player) Level() float64 {
	return math.Float64frombits(p.level.Load())
}

func (p *Player) process(out [][]float32) {
	buf := Buffer(out)
	n := buf.NumSamples()
	if err := p.src.GetNextAudioBlock(ChannelInfo{Buffer: buf, NumSamples: n}); err != nil {
		if !p.failed.Swap(true) {
			p.log.Error("rendering audio", "err", err)
		}
		buf.Clear(0, n)
		return
	}
	for ch, c := range buf {
		if ch < len(p.filters) {
			p.filters[ch].FilterBlock(c)
		}
		for i, x := range c {
			c[i] = float32(Saturate(float64(x)))
		}
	}
	if len(buf) > 0 {
		p.level.Store(math.Float64bits(p.meter.Amplitude(buf[0])))
	}
}
