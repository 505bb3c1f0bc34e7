package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI input ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer midi.CloseDriver()
			ins := midi.GetInPorts()
			if len(ins) == 0 {
				a.log.Info("no MIDI input ports")
			}
			for _, in := range ins {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", in.Number(), in.String())
			}
			return nil
		},
	}
}
