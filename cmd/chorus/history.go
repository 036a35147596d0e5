package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "List past synthesis requests for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Maximum number of entries (1 to 100)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, _, cleanup, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	reqs, err := svc.History(cmd.Context(), args[0], flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("no history")
		return nil
	}
	for _, r := range reqs {
		line := fmt.Sprintf("  %s  %-8s %-8s %4d chars",
			r.CreatedAt.Format(time.RFC3339), r.Kind, r.Status, r.TextLength)
		if r.Status == "failure" {
			line += "  " + r.ErrorKind
		} else if r.Locator != "" {
			line += "  " + r.Locator
		}
		fmt.Println(line)
	}
	return nil
}
