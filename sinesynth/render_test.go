package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
)

const a4Score = `
name: a4
tail: 0.5
notes:
  - {time: 0, duration: 0.5, note: 69}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeWAV(t *testing.T, path string) (sampleRate, channels, samples int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return int(d.SampleRate), buf.Format.NumChannels, len(buf.Data)
}

func TestRenderCommand(t *testing.T) {
	score := writeFile(t, "a4.yaml", a4Score)
	wavPath := filepath.Join(t.TempDir(), "a4.wav")
	out, err := execute(t, "render", score, "-o", wavPath, "--sample-rate", "16000", "--channels", "1")
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, wavPath) {
		t.Errorf("output does not name the file:\n%s", out)
	}
	sr, ch, n := decodeWAV(t, wavPath)
	if sr != 16000 || ch != 1 || n != 16000 {
		t.Errorf("wav has %d Hz, %d channels, %d samples; want 16000 Hz, 1 channel, 16000 samples", sr, ch, n)
	}
}

func TestRenderCommandConfig(t *testing.T) {
	score := writeFile(t, "a4.yaml", a4Score)
	config := writeFile(t, "sinesynth.yaml", "sample_rate: 8000\nchannels: 1\n")
	dir := t.TempDir()

	wavPath := filepath.Join(dir, "config.wav")
	if out, err := execute(t, "--config", config, "render", score, "-o", wavPath); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if sr, ch, _ := decodeWAV(t, wavPath); sr != 8000 || ch != 1 {
		t.Errorf("wav has %d Hz, %d channels; want 8000 Hz, 1 channel", sr, ch)
	}

	wavPath = filepath.Join(dir, "flags.wav")
	if out, err := execute(t, "--config", config, "render", score, "-o", wavPath, "--channels", "2"); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if sr, ch, _ := decodeWAV(t, wavPath); sr != 8000 || ch != 2 {
		t.Errorf("wav has %d Hz, %d channels; want 8000 Hz, 2 channels", sr, ch)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "out.wav")
	score := writeFile(t, "a4.yaml", a4Score)
	for _, args := range [][]string{
		{"render"},
		{"render", filepath.Join(dir, "missing.yaml"), "-o", wavPath},
		{"render", writeFile(t, "bad.yaml", "notes: [{time: 0, duration: 1, note: 200}]"), "-o", wavPath},
		{"--config", writeFile(t, "bad-config.yaml", "voices: 0"), "render", score, "-o", wavPath},
		{"render", score, "-o", filepath.Join(dir, "no", "such", "dir.wav")},
		{"render", score, "-o", wavPath, "--block-size", "0"},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}
}
