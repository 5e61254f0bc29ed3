package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chase3718/airchords/internal/session"
)

var (
	dbPath     string
	exportPath string
)

func init() {
	sessionsCmd.Flags().StringVar(&dbPath, "db", "airchords.db", "session database")
	exportCmd.Flags().StringVar(&dbPath, "db", "airchords.db", "session database")
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default <id>.mid)")
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tLENGTH\tEVENTS\tOUTPUT")
		for _, s := range list {
			length := "recording"
			if !s.Ended.IsZero() {
				length = s.Ended.Sub(s.Started).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				s.ID, s.Started.Format(time.DateTime), length, s.Events, s.Output)
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write a recorded session as a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		store, err := session.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.Events(id)
		if err != nil {
			return err
		}
		path := exportPath
		if path == "" {
			path = id + ".mid"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := session.Export(f, "airchords "+id, events); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Infow("export: written", "id", id, "path", path, "events", len(events))
		return nil
	},
}
