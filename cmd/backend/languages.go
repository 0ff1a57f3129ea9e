package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/foxseedlab/firassist/internal/language"
	"github.com/spf13/cobra"
)

func newLanguagesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages and their service codes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeLanguages(app.out)
		},
	}
}

func writeLanguages(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNATIVE\tRECOGNITION\tSYNTHESIS\tTRANSLATION")
	for _, l := range language.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Name, l.NativeName, l.RecognitionTag, l.SynthesisCode, l.TranslationCode)
	}
	return tw.Flush()
}
