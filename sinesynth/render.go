package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gordonklaus/synth"
)

func newRenderCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render SCORE.yaml",
		Short: "Render a YAML score to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return render(ctx, a, args[0], output, cmd.OutOrStdout())
		},
	}
	addAudioFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "out.wav", "WAV file to write")
	return cmd
}

func render(ctx context.Context, a *app, scorePath, wavPath string, out io.Writer) error {
	cfg := a.cfg
	f, err := os.Open(scorePath)
	if err != nil {
		return errors.Wrap(err, "opening score")
	}
	score, err := synth.LoadScore(f)
	f.Close()
	if err != nil {
		return errors.Wrap(err, scorePath)
	}
	if score.Name == "" {
		score.Name = scorePath
	}
	a.log.Debug("score loaded", "name", score.Name, "notes", len(score.Notes), "length", score.Length())

	p := synth.Params{SampleRate: cfg.SampleRate, BufferSize: cfg.BlockSize}
	buf, err := synth.RenderScore(ctx, newSource(cfg), score, p, cfg.Channels)
	if err != nil {
		return err
	}

	w, err := os.Create(wavPath)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := synth.WriteWAV(w, buf, int(cfg.SampleRate)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing output")
	}

	meter := synth.NewAmpMeter(float64(buf.NumSamples()) / cfg.SampleRate)
	synth.Init(meter, p)
	level := meter.Amplitude(buf[0])
	a.log.Info("rendered", "score", score.Name, "output", wavPath, "samples", buf.NumSamples(), "rms", level)
	if hz, err := synth.PeakFrequency(buf[0], cfg.SampleRate); err == nil {
		a.log.Info("spectrum", "peak_hz", hz)
	} else {
		a.log.Debug("no spectrum", "err", err)
	}
	fmt.Fprintf(out, "%s: %.2fs, %d channels, %s\n", wavPath, float64(buf.NumSamples())/cfg.SampleRate, buf.NumChannels(), levelBar(level, 40))
	return nil
}
