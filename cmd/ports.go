package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/airchords/internal/synth"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, err := rtmididrv.New()
		if err != nil {
			return fmt.Errorf("rtmididrv: %w", err)
		}
		defer drv.Close()

		names, err := synth.ListOuts(drv)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return synth.ErrNoOutput
		}
		for i, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, name)
		}
		return nil
	},
}
