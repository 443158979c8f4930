package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/analysis"
	"github.com/sells-group/coverage-cli/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank workshops by demand covered within a radius",
	Long:  "Loads both datasets, sums NRC VIN counts within --radius km of every workshop, and prints the ranked summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		r, _ := cmd.Flags().GetFloat64("radius")
		radius := radiusFlag(cmd.Flags().Changed("radius"), r)

		e, err := initEnv(ctx, "analyze", nil)
		if err != nil {
			return err
		}
		if err := e.Engine.ValidateRadius(radius); err != nil {
			return err
		}

		sum, err := e.Engine.Coverage(ctx, "", radius)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		out := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "analyze: create %s", output)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return renderSummary(out, format, sum)
	},
}

func renderSummary(out io.Writer, format string, sum *analysis.Summary) error {
	rows := report.FromSummary(sum)
	switch format {
	case "", "table":
		return report.WriteTable(out, rows)
	case "csv":
		return report.WriteCSV(out, rows)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "geojson":
		data, err := report.WorkshopsGeoJSON(rows)
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	default:
		return eris.Errorf("unknown format %q (want table, csv, json or geojson)", format)
	}
}

func init() {
	analyzeCmd.Flags().Float64("radius", 0, "catchment radius in km (default from config)")
	analyzeCmd.Flags().String("format", "table", "output format: table, csv, json, geojson")
	analyzeCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
