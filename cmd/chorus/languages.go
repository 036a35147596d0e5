package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speechfoundry/chorus/internal/speech"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Run: func(*cobra.Command, []string) {
		for _, l := range speech.Languages() {
			fmt.Printf("  %-6s %-24s %s\n", l.Code, l.Name, l.Region)
		}
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
