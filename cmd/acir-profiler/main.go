// acir-profiler estimates proving costs of compiled circuit artifacts
// and maintains a calibrated per-operation cost database across runs.
package main

import (
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/logger"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Zklib/acir-profiler/costmodel"
	"github.com/Zklib/acir-profiler/profiler"
	"github.com/Zklib/acir-profiler/report"
)

var (
	flagCurve   string
	flagVerbose bool

	// analyze
	flagFormat string

	// stats
	flagChart string

	// calibrate
	flagCalibrateDir string
	flagReset        bool
)

func newAnalyzer() (*profiler.Analyzer, error) {
	id, err := curveID(flagCurve)
	if err != nil {
		return nil, err
	}
	return profiler.New(profiler.WithCurve(id)), nil
}

func curveID(name string) (ecc.ID, error) {
	switch name {
	case "", "bn254":
		return ecc.BN254, nil
	case "bls12-381":
		return ecc.BLS12_381, nil
	case "bls12-377":
		return ecc.BLS12_377, nil
	case "bw6-761":
		return ecc.BW6_761, nil
	default:
		return ecc.UNKNOWN, fmt.Errorf("unknown curve %q", name)
	}
}

var rootCmd = &cobra.Command{
	Use:           "acir-profiler",
	Short:         "Offline profiler for compiled arithmetic-circuit artifacts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !flagVerbose {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
		if cmd.Name() != "stats" {
			report.Banner()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("no command specified, use --help for usage information")
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a single circuit record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		analysis, err := a.AnalyzeFile(args[0])
		if err != nil {
			return fmt.Errorf("analyze circuit: %w", err)
		}
		if flagFormat == "json" {
			return report.JSON(analysis)
		}
		report.Analysis(analysis, args[0])
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b>",
	Short: "Profile two circuit records and attribute the delta",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		first, second, cmpResult, err := a.Compare(args[0], args[1])
		if err != nil {
			return fmt.Errorf("compare circuits: %w", err)
		}
		report.Comparison(first, second, cmpResult, a.Database(), args[0], args[1])
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Profile every circuit record under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		results, err := a.Batch(args[0])
		if err != nil {
			return fmt.Errorf("analyze directory: %w", err)
		}
		report.BatchTable(results)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <dir>",
	Short: "Collect batch metrics as CSV (and optionally a chart)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// CSV goes to stdout; keep it free of log lines.
		logger.Disable()
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		results, err := a.Batch(args[0])
		if err != nil {
			return fmt.Errorf("analyze directory: %w", err)
		}
		report.StatsCSV(os.Stdout, args[0], results)
		if flagChart != "" {
			if err := report.Chart(results, flagChart); err != nil {
				return fmt.Errorf("render chart: %w", err)
			}
			fmt.Fprintf(os.Stderr, "chart written to %s\n", flagChart)
		}
		return nil
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate --dir <dir>",
	Short: "Refine the cost database from a directory of circuits",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagCalibrateDir == "" {
			return fmt.Errorf("--dir is required")
		}
		if flagReset {
			_ = os.Remove(costmodel.DefaultPath)
			pterm.Success.Println("Reset cost database to defaults")
		}
		a, err := newAnalyzer()
		if err != nil {
			return err
		}
		pterm.Printfln("Calibrating cost models using circuits in: %s", flagCalibrateDir)
		results, err := a.Batch(flagCalibrateDir)
		if err != nil {
			return fmt.Errorf("analyze directory: %w", err)
		}
		successful := 0
		for _, r := range results {
			if r.Err == nil {
				successful++
			}
		}
		pterm.Success.Println("Cost model calibration complete")
		pterm.Printfln("Processed %d circuits (%d successful)", len(results), successful)
		report.CostDatabase(a.Database())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCurve, "curve", "bn254", "target proving curve")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable info-level logging")
	analyzeCmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "output format (text|json)")
	statsCmd.Flags().StringVar(&flagChart, "chart", "", "write an HTML chart to this path")
	calibrateCmd.Flags().StringVarP(&flagCalibrateDir, "dir", "d", "", "directory of calibration circuits")
	calibrateCmd.Flags().BoolVarP(&flagReset, "reset", "r", false, "delete the persisted database first")
	rootCmd.AddCommand(analyzeCmd, compareCmd, batchCmd, statsCmd, calibrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
