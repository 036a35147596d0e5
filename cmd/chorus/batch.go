package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speechfoundry/chorus/internal/speech"
)

var flagBatchUser string

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Synthesize a list of named texts from a batch file",
	Long: `Batch reads a list of texts and synthesizes each one into its own
audio file. The format follows the file extension:

  .json  array of {"name": ..., "text": ...} objects
  .csv   name,text rows (a leading "name,text" header is skipped)
  other  plain text, one item per non-empty line

Items are processed in parallel; a failing item does not abort the rest
unless --stop-on-error is given or batch.continue_on_error is disabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&flagBatchUser, "user", "cli", "User ID recorded in history")
	batchCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Number of parallel synthesis workers")
	batchCmd.Flags().BoolVar(&flagStopOnError, "stop-on-error", false, "Stop dispatching items after the first failure")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := readBatchFile(args[0])
	if err != nil {
		return err
	}

	svc, _, cleanup, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.ProcessBatch(cmd.Context(), speech.BatchInput{
		Input:    speech.Input{UserID: flagBatchUser},
		Items:    items,
		Progress: printProgress,
	})
	if err != nil {
		return err
	}

	printRunResult(res)
	if res.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", res.Summary.Failed, res.Summary.Total)
	}
	return nil
}

// readBatchFile parses the batch input according to its extension.
func readBatchFile(path string) ([]speech.BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var items []speech.BatchItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
		return items, nil
	case ".csv":
		return parseCSVItems(data)
	default:
		return parseLineItems(data), nil
	}
}

func parseCSVItems(data []byte) ([]speech.BatchItem, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	var items []speech.BatchItem
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("parse batch file: row %d needs name,text columns", i+1)
		}
		if i == 0 && strings.EqualFold(rec[0], "name") && strings.EqualFold(rec[1], "text") {
			continue
		}
		items = append(items, speech.BatchItem{Name: rec[0], Text: rec[1]})
	}
	return items, nil
}

func parseLineItems(data []byte) []speech.BatchItem {
	var items []speech.BatchItem
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, speech.BatchItem{
			Name: fmt.Sprintf("item_%03d", len(items)+1),
			Text: line,
		})
	}
	return items
}
