package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List provider voices, optionally filtered by language",
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, _ []string) error {
	svc, _, cleanup, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	voices, catalog, err := svc.Voices(cmd.Context(), flagLanguage)
	if err != nil {
		return err
	}

	fmt.Printf("%d voices (standard %d, wavenet %d, neural2 %d, news %d, studio %d)\n",
		catalog.Total, len(catalog.Standard), len(catalog.Wavenet), len(catalog.Neural2), len(catalog.News), len(catalog.Studio))
	for _, v := range voices {
		fmt.Printf("  %-28s %-8s %s\n", v.Name, v.Gender, strings.Join(v.LanguageCodes, ","))
	}
	return nil
}
