package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speechfoundry/chorus/internal/speech"
)

var (
	flagSSML bool
	flagUser string
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize [text]",
	Short: "Convert a short text or SSML snippet to audio",
	Long: `Synthesize converts a single piece of text into one audio file.
The text is passed as an argument or piped on stdin. With --ssml the
input is treated as an SSML document instead of plain text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSynthesize,
}

func init() {
	synthesizeCmd.Flags().BoolVar(&flagSSML, "ssml", false, "Treat input as SSML")
	synthesizeCmd.Flags().StringVar(&flagUser, "user", "cli", "User ID recorded in history")
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	svc, _, cleanup, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	in := speech.Input{UserID: flagUser}
	var res *speech.Result
	if flagSSML {
		in.SSML = text
		res, err = svc.SynthesizeSSML(cmd.Context(), in)
	} else {
		in.Text = text
		res, err = svc.SynthesizeText(cmd.Context(), in)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Audio written to %s\n", res.LocalPath)
	fmt.Printf("  request id: %s\n", res.RequestID)
	fmt.Printf("  characters: %d\n", res.CharacterCount)
	fmt.Printf("  estimated duration: %.1fs\n", res.Duration)
	return nil
}

// readInput takes the text from the argument or, when absent, stdin.
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input text given")
	}
	return text, nil
}
