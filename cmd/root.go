package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/logging"
)

var (
	debug  bool
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "airchords",
	Short: "Play chords on a MIDI synth by raising fingers in front of a webcam",
	Long: `airchords watches a webcam for hands. Raising a finger strikes a chord,
lowering it lets the chord ring for the sustain time. Each of the ten fingers
has its own chord; the default table is in D major.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(debug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (adds source location)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
