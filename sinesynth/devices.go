package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gordonklaus/synth"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDevices(a, cmd.OutOrStdout())
		},
	}
}

func listDevices(a *app, out io.Writer) error {
	if err := synth.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := synth.Terminate(); err != nil {
			a.log.Error("terminating audio", "err", err)
		}
	}()

	devs, err := synth.Devices()
	if err != nil {
		return err
	}
	for _, d := range devs {
		fmt.Fprintf(out, "%s (%s)\t%d channels\t%.0f Hz\n", d.Name, d.HostApi.Name, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	return nil
}
