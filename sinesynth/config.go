package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	Channels   int     `yaml:"channels"`
	Voices     int     `yaml:"voices"`

	// BaseNote is the note played by the 'a' key.
	BaseNote int `yaml:"base_note"`

	// Hold is how long a terminal key sounds after its last repeat.
	// Terminals report presses only, never releases.
	Hold time.Duration `yaml:"hold"`

	// MidiIn names a MIDI input port to play from, if set.
	MidiIn string `yaml:"midi_in"`
}

func defaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   2,
		Voices:     4,
		BaseNote:   60,
		Hold:       400 * time.Millisecond,
	}
}

// loadConfig reads the YAML file at path over the defaults.  An empty path
// yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "decoding config %s", path)
	}
	return cfg, errors.Wrapf(cfg.validate(), "config %s", path)
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return errors.Errorf("sample rate %v must be positive", c.SampleRate)
	case c.BlockSize <= 0:
		return errors.Errorf("block size %d must be positive", c.BlockSize)
	case c.Channels < 1:
		return errors.Errorf("channels %d must be at least 1", c.Channels)
	case c.Voices < 1:
		return errors.Errorf("voices %d must be at least 1", c.Voices)
	case c.BaseNote < 0 || c.BaseNote > maxBaseNote:
		return errors.Errorf("base note %d out of range 0-%d", c.BaseNote, maxBaseNote)
	case c.Hold <= 0:
		return errors.Errorf("hold %v must be positive", c.Hold)
	}
	return nil
}

// Flags shared by the commands that make sound.
const (
	flagSampleRate = "sample-rate"
	flagBlockSize  = "block-size"
	flagChannels   = "channels"
	flagVoices     = "voices"
	flagBaseNote   = "base-note"
	flagHold       = "hold"
	flagMidiIn     = "midi-in"
)

func addAudioFlags(cmd *cobra.Command) {
	d := defaultConfig()
	cmd.Flags().Float64(flagSampleRate, d.SampleRate, "sample rate in Hz")
	cmd.Flags().Int(flagBlockSize, d.BlockSize, "samples per audio block")
	cmd.Flags().Int(flagChannels, d.Channels, "output channels")
	cmd.Flags().Int(flagVoices, d.Voices, "number of voices")
}

// applyFlags overrides c with the flags set on cmd's command line.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	fs := cmd.Flags()
	var err error
	changed := func(name string) bool {
		return err == nil && fs.Lookup(name) != nil && fs.Changed(name)
	}
	if changed(flagSampleRate) {
		c.SampleRate, err = fs.GetFloat64(flagSampleRate)
	}
	if changed(flagBlockSize) {
		c.BlockSize, err = fs.GetInt(flagBlockSize)
	}
	if changed(flagChannels) {
		c.Channels, err = fs.GetInt(flagChannels)
	}
	if changed(flagVoices) {
		c.Voices, err = fs.GetInt(flagVoices)
	}
	if changed(flagBaseNote) {
		c.BaseNote, err = fs.GetInt(flagBaseNote)
	}
	if changed(flagHold) {
		c.Hold, err = fs.GetDuration(flagHold)
	}
	if changed(flagMidiIn) {
		c.MidiIn, err = fs.GetString(flagMidiIn)
	}
	if err != nil {
		return errors.Wrap(err, "reading flags")
	}
	return c.validate()
}
