package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/analysis"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Show total covered demand over a range of radii",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		from, _ := cmd.Flags().GetFloat64("from")
		to, _ := cmd.Flags().GetFloat64("to")
		step, _ := cmd.Flags().GetFloat64("step")
		format, _ := cmd.Flags().GetString("format")

		radii, err := analysis.Radii(from, to, step)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx, "analyze", nil)
		if err != nil {
			return err
		}

		points, err := e.Engine.Sweep(ctx, radii)
		if err != nil {
			return eris.Wrap(err, "sweep")
		}
		return renderSweep(cmd.OutOrStdout(), format, points)
	},
}

func renderSweep(out io.Writer, format string, points []analysis.SweepPoint) error {
	switch format {
	case "", "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RADIUS_KM\tTOTAL_NRC_VIN\tMAX_WORKSHOP\tCOVERED\tWORKSHOPS")
		_, _ = fmt.Fprintln(w, "---------\t-------------\t------------\t-------\t---------")
		for _, p := range points {
			_, _ = fmt.Fprintf(w, "%g\t%d\t%d\t%d\t%d\n", p.RadiusKM, p.TotalWeight, p.MaxWeight, p.Covered, p.Locations)
		}
		return w.Flush()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	default:
		return eris.Errorf("unknown format %q (want table or json)", format)
	}
}

func init() {
	sweepCmd.Flags().Float64("from", 1, "first radius in km")
	sweepCmd.Flags().Float64("to", 20, "last radius in km")
	sweepCmd.Flags().Float64("step", 1, "radius increment in km")
	sweepCmd.Flags().String("format", "table", "output format: table, json")
	rootCmd.AddCommand(sweepCmd)
}
