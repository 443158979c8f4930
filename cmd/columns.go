package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/dataset"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show which header each logical column resolves to",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s3, err := initObjstore(cfg)
		if err != nil {
			return err
		}
		loader, err := initLoader(cfg, s3)
		if err != nil {
			return err
		}

		results, err := loader.Inspect(ctx)
		if err != nil {
			return err
		}
		formatInspections(cmd.OutOrStdout(), results)
		return nil
	},
}

func formatInspections(out io.Writer, results []dataset.Inspection) {
	for i, insp := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintf(out, "%s (%s)\n", insp.Dataset, insp.Source)
		_, _ = fmt.Fprintf(out, "Headers: %s\n", strings.Join(insp.Headers, ", "))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "FIELD\tCOLUMN")
		_, _ = fmt.Fprintln(w, "-----\t------")
		for _, label := range sortedLabels(insp.Resolved) {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", label, insp.Resolved[label])
		}
		_ = w.Flush()

		if insp.Err != nil {
			_, _ = fmt.Fprintf(out, "ERROR: %v\n", insp.Err)
		}
	}
}

func sortedLabels(m map[string]string) []string {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	slices.Sort(labels)
	return labels
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}
