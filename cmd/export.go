package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ranked summary to a file or s3:// URI",
	Long:  "Computes coverage at --radius and writes it as CSV (default " + report.DefaultFileName + ") or GeoJSON to a local path or an s3://bucket/key URI.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dest, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		r, _ := cmd.Flags().GetFloat64("radius")
		radius := radiusFlag(cmd.Flags().Changed("radius"), r)

		e, err := initEnv(ctx, "export", nil)
		if err != nil {
			return err
		}

		sum, err := e.Engine.Coverage(ctx, "", radius)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		var up report.Uploader
		if e.S3 != nil {
			up = e.S3
		}
		written, err := report.Export(ctx, dest, format, report.FromSummary(sum), up)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d workshops to %s\n", len(sum.Results), written)
		return nil
	},
}

func init() {
	exportCmd.Flags().Float64("radius", 0, "catchment radius in km (default from config)")
	exportCmd.Flags().String("out", report.DefaultFileName, "destination path, directory (trailing /) or s3://bucket/key")
	exportCmd.Flags().String("format", report.FormatCSV, "export format: csv, geojson")
	rootCmd.AddCommand(exportCmd)
}
