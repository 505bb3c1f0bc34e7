// Command sinesynth plays a polyphonic sine-wave synthesiser from the
// terminal keyboard or a MIDI input, and renders YAML scores to WAV files.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg Config
	log *slog.Logger

	logOut io.Writer
	debug  bool
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: defaultConfig(), log: slog.Default(), logOut: os.Stderr}
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "sinesynth",
		Short:        "A polyphonic sine-wave synthesiser",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.logOut, a.debug = cmd.ErrOrStderr(), debug
			a.log = newLogger(a.logOut, debug)
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.applyFlags(cmd); err != nil {
				return err
			}
			a.cfg = cfg
			a.log.Debug("config loaded", "path", configPath, "config", cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newDevicesCmd(a),
		newPortsCmd(a),
	)
	return cmd
}
