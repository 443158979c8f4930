package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coverage-cli",
	Short: "Workshop demand coverage (belt) analysis",
	Long:  "Loads workshop locations and pincode-level NRC VIN counts, sums the demand within a radius of each workshop, and ranks workshops by covered demand.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyDataFlags(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyDataFlags lets persistent flags override the data section.
func applyDataFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("workshops", &c.Data.Workshops)
	override("demand", &c.Data.Demand)
	override("workshops-sheet", &c.Data.WorkshopsSheet)
	override("demand-sheet", &c.Data.DemandSheet)
	override("delimiter", &c.Data.Delimiter)
	override("aliases", &c.Columns.AliasesFile)
	override("index", &c.Coverage.Index)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("workshops", "", "workshop dataset path or URL (default from config)")
	pf.String("demand", "", "demand dataset path or URL (default from config)")
	pf.String("workshops-sheet", "", "XLSX sheet name for the workshop dataset")
	pf.String("demand-sheet", "", "XLSX sheet name for the demand dataset")
	pf.String("delimiter", "", `field delimiter for delimited text inputs ("\t" for tab)`)
	pf.String("aliases", "", "YAML file with extra column name candidates")
	pf.String("index", "", "demand index: rtree or linear")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
