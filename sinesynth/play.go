package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/gordonklaus/synth"
)

const keyVelocity = .8

func newPlayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play from the terminal keyboard and an optional MIDI input",
		Long: `Play from the terminal keyboard.

The keys ` + pianoKeys + ` play a chromatic octave and a half from the base
note, z and x move down and up an octave, and esc quits.  With --midi-in the
named MIDI input plays too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return play(ctx, a, cmd.OutOrStdout())
		},
	}
	addAudioFlags(cmd)
	d := defaultConfig()
	cmd.Flags().Int(flagBaseNote, d.BaseNote, "MIDI note played by the 'a' key")
	cmd.Flags().Duration(flagHold, d.Hold, "how long a key sounds after it is pressed")
	cmd.Flags().String(flagMidiIn, "", "MIDI input port to play from (see ports)")
	return cmd
}

func play(ctx context.Context, a *app, out io.Writer) error {
	cfg := a.cfg
	events, err := keyboard.GetKeys(16)
	if err != nil {
		return errors.Wrap(err, "opening terminal keyboard")
	}
	// restores the default logger once the terminal leaves raw mode
	defer newLogger(a.logOut, a.debug)
	defer keyboard.Close()
	log := newLogger(rawTerminal{a.logOut}, a.debug)

	if err := synth.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := synth.Terminate(); err != nil {
			log.Error("terminating audio", "err", err)
		}
	}()

	src := newSource(cfg)
	keys := src.KeyboardState()
	keys.AddListener(noteLogger{log})

	if cfg.MidiIn != "" {
		stop, err := listenMIDI(cfg.MidiIn, src.MidiCollector(), log)
		if err != nil {
			return err
		}
		defer func() {
			stop()
			midi.CloseDriver()
		}()
	}

	player := synth.NewPlayer(src, synth.Params{SampleRate: cfg.SampleRate, BufferSize: cfg.BlockSize}, cfg.Channels, log)
	if err := player.Start(); err != nil {
		return err
	}
	defer func() {
		player.Stop()
		<-player.Done()
	}()

	km := newKeymap(cfg.BaseNote)
	holder := newKeyHolder(keys, cfg.Hold)
	defer holder.releaseAll()

	fmt.Fprintf(out, "keys %s from %s, z/x octave, esc quits\r\n", pianoKeys, noteName(km.base))
	meter := time.NewTicker(100 * time.Millisecond)
	defer meter.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-meter.C:
			fmt.Fprintf(out, "\r%s", levelBar(player.Level(), 40))
		case ev := <-events:
			if ev.Err != nil {
				return errors.Wrap(ev.Err, "reading terminal keyboard")
			}
			switch {
			case ev.Key == keyboard.KeyEsc || ev.Key == keyboard.KeyCtrlC:
				return nil
			case ev.Rune == 'z':
				km.octave(-1)
				log.Debug("octave", "base", noteName(km.base))
			case ev.Rune == 'x':
				km.octave(1)
				log.Debug("octave", "base", noteName(km.base))
			default:
				if note, ok := km.note(ev.Rune); ok {
					holder.press(note)
				}
			}
		}
	}
}

// newSource returns a SynthAudioSource with cfg.Voices voices.
func newSource(cfg Config) *synth.SynthAudioSource {
	src := synth.NewSynthAudioSource(nil)
	s := src.Synthesiser()
	for s.NumVoices() < cfg.Voices {
		s.AddVoice(new(synth.SineWaveVoice))
	}
	for s.NumVoices() > cfg.Voices {
		s.RemoveVoice(s.NumVoices() - 1)
	}
	return src
}

func listenMIDI(port string, c *synth.MessageCollector, log *slog.Logger) (stop func(), err error) {
	in, err := midi.FindInPort(port)
	if err != nil {
		return nil, errors.Wrapf(err, "finding MIDI input %q", port)
	}
	stop, err = midi.ListenTo(in, c.HandleIncomingMidiMessage, midi.HandleError(func(err error) {
		log.Warn("MIDI input error", "port", port, "err", err)
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "listening to MIDI input %q", port)
	}
	log.Info("MIDI input connected", "port", port)
	return stop, nil
}

// A keyHolder turns key presses into notes that sound for hold after the
// most recent press of their key.
type keyHolder struct {
	keys *synth.KeyboardState
	hold time.Duration

	mu     sync.Mutex
	timers map[int]*time.Timer
}

func newKeyHolder(keys *synth.KeyboardState, hold time.Duration) *keyHolder {
	return &keyHolder{keys: keys, hold: hold, timers: map[int]*time.Timer{}}
}

func (h *keyHolder) press(note int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.timers[note]; ok && t.Stop() {
		t.Reset(h.hold)
		return
	}
	h.keys.NoteOn(1, note, keyVelocity)
	var t *time.Timer
	t = time.AfterFunc(h.hold, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.timers[note] != t {
			return
		}
		delete(h.timers, note)
		h.keys.NoteOff(1, note, 0)
	})
	h.timers[note] = t
}

func (h *keyHolder) releaseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for note, t := range h.timers {
		t.Stop()
		delete(h.timers, note)
		h.keys.NoteOff(1, note, 0)
	}
}

type noteLogger struct{ log *slog.Logger }

func (l noteLogger) HandleNoteOn(_ *synth.KeyboardState, channel, note int, velocity float64) {
	l.log.Debug("note on", "channel", channel, "note", noteName(note), "velocity", velocity)
}

func (l noteLogger) HandleNoteOff(_ *synth.KeyboardState, channel, note int, _ float64) {
	l.log.Debug("note off", "channel", channel, "note", noteName(note))
}

// levelBar draws an RMS level on a decibel scale from -60 dB to 0 dB.
func levelBar(level float64, width int) string {
	n := 0
	if level > 0 {
		db := 20 * math.Log10(level)
		n = int(math.Round((db + 60) / 60 * float64(width)))
		n = max(0, min(n, width))
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}
