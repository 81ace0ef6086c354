package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/couette/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool
	theme    string

	configFile    string
	preset        string
	machMin       float64
	machMax       float64
	machCount     int
	machValues    []float64
	prandtl       float64
	gamma         float64
	viscosityC    float64
	points        int
	maxExpansions int
	workers       int
	writeSVG      bool
	showPlot      bool
	noSave        bool

	plotField  string
	plotWidth  int
	plotHeight int
	heatField  string
	heatRows   int
	seriesVar  string
	seriesStep int
	outDir     string
)

// main runs the selected couette command. A configuration error or failed
// command exits with status 1.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "couette",
		Short:         "compressible Couette flow profiles by shooting",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(viz.ThemeNames(), theme) {
				return fmt.Errorf("unknown theme: %s (available: %v)", theme, viz.ThemeNames())
			}
			return configureLogging(logLevel, logJSON)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run directory (default from config, else ./export)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "cyberpunk", "terminal color theme")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve a sequence of Mach numbers and store the profiles",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addCaseFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&machMin, "mach-min", 0, "smallest Mach number")
	sweepCmd.Flags().Float64Var(&machMax, "mach-max", 10, "largest Mach number")
	sweepCmd.Flags().IntVar(&machCount, "mach-count", 51, "number of evenly spaced Mach numbers")
	sweepCmd.Flags().Float64SliceVar(&machValues, "mach", nil, "explicit Mach numbers (overrides the range)")
	sweepCmd.Flags().IntVar(&workers, "workers", 1, "cases solved concurrently")
	sweepCmd.Flags().BoolVar(&writeSVG, "svg", false, "write SVG figures into the run directory")
	sweepCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the profiles in the terminal")
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	solveCmd := &cobra.Command{
		Use:   "solve [mach]",
		Short: "solve a single Mach number and plot it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	addCaseFlags(solveCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every sweep of a scenario file and store each",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&configFile, "config", "", "config file for solver settings (yaml)")
	scenarioCmd.Flags().IntVar(&workers, "workers", 1, "cases solved concurrently")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id|latest]",
		Short: "plot a stored field against height for every case",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "field to plot: U0, T, eta, xi (default U0 and T)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	heatmapCmd := &cobra.Command{
		Use:   "heatmap [run_id|latest]",
		Short: "shade a stored field over Mach number and height",
		Args:  cobra.MaximumNArgs(1),
		RunE:  heatmapRun,
	}
	heatmapCmd.Flags().StringVar(&heatField, "field", "T", "field to shade: U0, T, eta, xi")
	heatmapCmd.Flags().IntVar(&heatRows, "height", 24, "rows")

	seriesCmd := &cobra.Command{
		Use:   "series [run_id|latest]",
		Short: "print one stored CSV variable as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printSeries,
	}
	seriesCmd.Flags().StringVar(&seriesVar, "var", "T", "variable: U0, T, eta")
	seriesCmd.Flags().IntVar(&seriesStep, "every", 300, "print every n-th height")

	viewCmd := &cobra.Command{
		Use:   "view [run_id|latest]",
		Short: "browse the cases of a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id|latest]",
		Short: "write profile and heat map SVGs for a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outDir, "out", "", "output directory (default the run directory)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list sweep presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with default or preset values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initConfigCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	rootCmd.AddCommand(sweepCmd, solveCmd, scenarioCmd, listCmd, plotCmd, heatmapCmd, seriesCmd, viewCmd, exportSVGCmd, presetsCmd, initConfigCmd)
	return rootCmd
}

func addCaseFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&prandtl, "pr", 0.72, "Prandtl number")
	cmd.Flags().Float64Var(&gamma, "gamma", 1.4, "ratio of specific heats")
	cmd.Flags().Float64Var(&viscosityC, "c", 0.5, "Sutherland viscosity constant")
	cmd.Flags().IntVar(&points, "points", 3001, "height grid points")
	cmd.Flags().IntVar(&maxExpansions, "max-expansions", 8, "bracket doublings before a case fails (0 disables)")
}
