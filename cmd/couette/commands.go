package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/couette/internal/automation"
	"github.com/san-kum/couette/internal/config"
	"github.com/san-kum/couette/internal/export"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/shooting"
	"github.com/san-kum/couette/internal/storage"
	"github.com/san-kum/couette/internal/tui"
	"github.com/san-kum/couette/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	svgWidth  = 1200
	svgHeight = 500
)

// buildConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("pr") {
		cfg.Constants.Prandtl = prandtl
	}
	if flags.Changed("gamma") {
		cfg.Constants.Gamma = gamma
	}
	if flags.Changed("c") {
		cfg.Constants.ViscosityC = viscosityC
	}
	if flags.Changed("points") {
		cfg.Solver.Points = points
	}
	if flags.Changed("max-expansions") {
		cfg.Solver.MaxExpansions = maxExpansions
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if flags.Changed("mach-min") || flags.Changed("mach-max") || flags.Changed("mach-count") {
		cfg.Mach.Values = nil
	}
	if flags.Changed("mach-min") {
		cfg.Mach.Min = machMin
	}
	if flags.Changed("mach-max") {
		cfg.Mach.Max = machMax
	}
	if flags.Changed("mach-count") {
		cfg.Mach.Count = machCount
	}
	if flags.Changed("mach") {
		cfg.Mach.Values = append([]float64(nil), machValues...)
	}
	if flags.Changed("svg") {
		cfg.Output.SVG = writeSVG
	}
	if dataDir != "" {
		cfg.Output.Dir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func store() *storage.Store {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultOutputDir
	}
	return storage.New(dir)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.SweepOptions(logrus.StandardLogger())
	result, err := automation.RunSweep(ctx, cfg.Constants, cfg.Mach.Numbers(), opts)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logrus.WithError(err).Warn("sweep interrupted, keeping finished cases")
	}

	th := viz.GetTheme(theme)
	fmt.Println(viz.Summary(result, th))

	data := result.Data()
	if showPlot && data.Cases() > 0 {
		for _, f := range []string{"U0", "T"} {
			plot, err := viz.PlotProfiles(&data, f, 80, 15)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(plot)
		}
	}

	if noSave {
		return nil
	}

	st := storage.New(cfg.Output.Dir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)

	if cfg.Output.SVG {
		if err := writeFigures(&data, filepath.Join(st.Dir(), runID)); err != nil {
			return err
		}
	}
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	mach, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("mach: %w", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := automation.ValidateMachs([]float64{mach}); err != nil {
		return err
	}

	solver := shooting.NewSolver(cfg.Constants, cfg.SolverOptions()).WithLogger(logrus.StandardLogger())
	p, err := solver.Solve(shooting.Case{Mach: mach})
	if err != nil {
		return err
	}

	result := &automation.Result{
		Constants: cfg.Constants,
		Machs:     []float64{mach},
		Profiles:  map[int]*shooting.Profile{0: p},
	}
	data := result.Data()

	params := physics.NewCouette(cfg.Constants, mach, p.Tau).GetParams()
	fmt.Println(viz.GlassPanel.Render(viz.CaseLine(p) + "\n" + fmt.Sprintf("%s %.6f  %s %.6f",
		viz.MetricLabel.Render("T(0)"), p.T[0],
		viz.MetricLabel.Render("T(1) before shift"), p.RawTopTemperature) + "\n" + formatParams(params)))
	fmt.Println()
	fmt.Println(viz.PlotCase(&data, 0, 80, 12))
	return nil
}

// formatParams renders name=value pairs sorted by name.
func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return viz.Subtle.Render(strings.Join(parts, "  "))
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.SweepOptions(logrus.StandardLogger())
	results, err := automation.RunScenario(ctx, scenario, opts)

	st := storage.New(cfg.Output.Dir)
	if initErr := st.Init(); initErr != nil {
		return initErr
	}
	th := viz.GetTheme(theme)
	for i, result := range results {
		runID, saveErr := st.Save(result)
		if saveErr != nil {
			return saveErr
		}
		fmt.Printf("\n%s %s\n", viz.HeaderStyle.Render(scenario.Steps[i].Name), viz.Subtle.Render(runID))
		fmt.Println(viz.Summary(result, th))
	}
	return err
}

func runArg(st *storage.Store, args []string) (string, error) {
	id := "latest"
	if len(args) > 0 {
		id = args[0]
	}
	return st.Resolve(id)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCASES\tOK\tFAILED\tPR\tGAMMA\tC\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%g\t%g\t%g\t%dms\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Machs),
			run.Converged,
			run.Failed,
			run.Constants.Prandtl,
			run.Constants.Gamma,
			run.Constants.ViscosityC,
			run.ElapsedMs,
		)
	}

	return w.Flush()
}

// plotFields is the field list for plot: the --field value, or U0 and T.
func plotFields() []string {
	if plotField != "" {
		return []string{plotField}
	}
	return []string{"U0", "T"}
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := runArg(st, args)
	if err != nil {
		return err
	}
	data, err := st.LoadData(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\ncases: %d\n\n", runID, data.Cases())
	for _, f := range plotFields() {
		plot, err := viz.PlotProfiles(data, f, plotWidth, plotHeight)
		if err != nil {
			return err
		}
		fmt.Println(plot)
		fmt.Println()
	}
	return nil
}

func heatmapRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := runArg(st, args)
	if err != nil {
		return err
	}
	data, err := st.LoadData(runID)
	if err != nil {
		return err
	}
	rows, err := data.Field(heatField)
	if err != nil {
		return err
	}

	fmt.Println(viz.Heatmap(data, rows, heatField, heatRows, viz.GetTheme(theme)))
	return nil
}

func printSeries(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := runArg(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	y, cols, err := st.LoadSeries(runID, seriesVar)
	if err != nil {
		return err
	}
	return writeSeries(os.Stdout, meta, y, cols, seriesStep)
}

// writeSeries prints heights down and converged cases across, keeping
// every step-th row plus the last.
func writeSeries(out io.Writer, meta *storage.RunMetadata, y []float64, cols [][]float64, step int) error {
	if step < 1 {
		step = 1
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "y")
	for i := range cols {
		fmt.Fprintf(w, "\tcase %d", i)
	}
	fmt.Fprintln(w)

	for k := range y {
		if k%step != 0 && k != len(y)-1 {
			continue
		}
		fmt.Fprintf(w, "%.4f", y[k])
		for _, col := range cols {
			fmt.Fprintf(w, "\t%.6f", col[k])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "# run %s, Pr=%g gamma=%g C=%g\n",
		meta.ID, meta.Constants.Prandtl, meta.Constants.Gamma, meta.Constants.ViscosityC)
	return w.Flush()
}

func viewRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := runArg(st, args)
	if err != nil {
		return err
	}
	data, err := st.LoadData(runID)
	if err != nil {
		return err
	}
	return tui.Run(runID, data, viz.GetTheme(theme))
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := runArg(st, args)
	if err != nil {
		return err
	}
	data, err := st.LoadData(runID)
	if err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Join(st.Dir(), runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return writeFigures(data, dir)
}

func writeFigures(data *automation.ExportData, dir string) error {
	figures := map[string]string{
		"profiles.svg":   export.ProfilesSVG(data, svgWidth, svgHeight),
		"heatmap_U0.svg": export.HeatmapSVG(data, data.U0, "U0", svgWidth/2, svgHeight),
		"heatmap_T.svg":  export.HeatmapSVG(data, data.T, "T", svgWidth/2, svgHeight),
	}
	for name, svg := range figures {
		if svg == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		logrus.WithField("path", path).Info("wrote figure")
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		machs := config.GetPreset(name).Mach.Numbers()
		fmt.Printf("  %-12s %d cases, M_r %g to %g\n", name, len(machs), machs[0], machs[len(machs)-1])
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "couette.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
