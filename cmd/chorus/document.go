package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speechfoundry/chorus/internal/batch"
	"github.com/speechfoundry/chorus/internal/chunk"
	"github.com/speechfoundry/chorus/internal/speech"
)

var (
	flagDocName   string
	flagCombine   bool
	flagChunkSize int
	flagDocUser   string
	flagPreserve  bool
	flagPreview   bool
)

var documentCmd = &cobra.Command{
	Use:   "document <file>",
	Short: "Convert a whole text document to audio",
	Long: `Document reads a text file, splits it into chunks that respect
sentence boundaries, synthesizes the chunks in parallel, and writes one
audio file per chunk. With --combine the chunk audio is merged into a
single output file.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocument,
}

func init() {
	documentCmd.Flags().StringVar(&flagDocName, "name", "", "Base name for output files (defaults to the input file name)")
	documentCmd.Flags().BoolVar(&flagCombine, "combine", false, "Combine chunk audio into one file")
	documentCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "Maximum characters per chunk")
	documentCmd.Flags().StringVar(&flagDocUser, "user", "cli", "User ID recorded in history")
	documentCmd.Flags().BoolVar(&flagPreserve, "preserve-sentences", true, "Keep sentences intact when chunking")
	documentCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Number of parallel synthesis workers")
	documentCmd.Flags().BoolVar(&flagStopOnError, "stop-on-error", false, "Stop dispatching chunks after the first failure")
	documentCmd.Flags().BoolVar(&flagPreview, "preview", false, "Show the chunk plan without synthesizing")
	rootCmd.AddCommand(documentCmd)
}

func runDocument(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if cmd.Flags().Changed("preserve-sentences") {
		overridePreserve = &flagPreserve
	}
	if flagPreview {
		return previewDocument(string(data))
	}

	svc, _, cleanup, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	name := flagDocName
	if name == "" {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	res, err := svc.ProcessDocument(cmd.Context(), speech.DocumentInput{
		Input:    speech.Input{UserID: flagDocUser, Text: string(data)},
		Name:     name,
		Combine:  flagCombine,
		Progress: printProgress,
	})
	if err != nil {
		return err
	}

	printRunResult(res)
	if res.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d chunks failed", res.Summary.Failed, res.Summary.Total)
	}
	return nil
}

// previewDocument prints the chunk plan without touching the provider.
func previewDocument(text string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cleaned := chunk.Clean(text)
	chunks, err := chunk.Split(cleaned, cfg.Batch.ChunkSize, cfg.Batch.PreserveSentences)
	if err != nil {
		return err
	}
	var total float64
	for i, c := range chunks {
		est := chunk.EstimateDuration(c, cfg.TTS.SpeakingRate)
		total += est
		fmt.Printf("  chunk %03d: %5d chars, ~%.1fs\n", i+1, len(c), est)
	}
	fmt.Printf("%d chunks, ~%.1fs of audio\n", len(chunks), total)
	return nil
}

// printProgress writes one line per finished job to stderr so stdout
// stays clean for the final summary.
func printProgress(r batch.Result) {
	switch r.Status {
	case batch.StatusSuccess:
		fmt.Fprintf(os.Stderr, "  ok   %s\n", r.Name)
	case batch.StatusFailure:
		fmt.Fprintf(os.Stderr, "  FAIL %s: %s (%s)\n", r.Name, r.ErrMessage, r.ErrKind)
	case batch.StatusSkipped:
		fmt.Fprintf(os.Stderr, "  skip %s\n", r.Name)
	}
}

func printRunResult(res *speech.RunResult) {
	s := res.Summary
	fmt.Printf("Run %s: %d total, %d succeeded, %d failed, %d skipped\n",
		res.RunID, s.Total, s.Succeeded, s.Failed, s.Skipped)
	for _, rec := range s.Results {
		if rec.Success {
			fmt.Printf("  %s -> %s\n", rec.Name, rec.LocalPath)
		}
	}
	if res.CombinedPath != "" {
		fmt.Printf("Combined audio: %s\n", res.CombinedPath)
	}
	if res.CombineError != "" {
		fmt.Fprintf(os.Stderr, "Combine failed: %s (chunk files kept)\n", res.CombineError)
	}
	if res.LogPath != "" {
		fmt.Printf("Run log: %s\n", res.LogPath)
	}
}
