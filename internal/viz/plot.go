package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/couette/internal/automation"
	"github.com/san-kum/couette/internal/shooting"
	"gonum.org/v1/gonum/floats"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Red,
	asciigraph.Blue,
}

// PlotProfiles draws one named field of every case against height. The
// horizontal axis runs from the plate at y=0 to the wall at y=1.
func PlotProfiles(data *automation.ExportData, field string, width, height int) (string, error) {
	rows, err := data.Field(field)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no converged cases to plot")
	}

	colors := make([]asciigraph.AnsiColor, len(rows))
	labels := make([]string, len(rows))
	for i := range rows {
		colors[i] = seriesColors[i%len(seriesColors)]
		labels[i] = fmt.Sprintf("%g", data.MachR[i])
	}

	return asciigraph.PlotMany(rows,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(fmt.Sprintf("%s over y in [0, 1], Mr = %s", field, strings.Join(labels, ", "))),
	), nil
}

// PlotCase draws velocity and temperature of a single case stacked.
func PlotCase(data *automation.ExportData, i, width, height int) string {
	if i < 0 || i >= data.Cases() {
		return ""
	}
	u := asciigraph.Plot(data.U0[i],
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Cyan),
		asciigraph.Caption("U0 over y"),
	)
	t := asciigraph.Plot(data.T[i],
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Magenta),
		asciigraph.Caption("T over y"),
	)
	return u + "\n\n" + t
}

// Heatmap shades field over (Mach, height) with one two-character column
// per case and rows sampled from the height grid, y=1 on top.
func Heatmap(data *automation.ExportData, field [][]float64, title string, rows int, theme Theme) string {
	if len(field) == 0 || len(data.Y) == 0 || rows < 1 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range field {
		lo = math.Min(lo, floats.Min(row))
		hi = math.Max(hi, floats.Max(row))
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	n := len(data.Y)
	rows = min(rows, n)

	var sb strings.Builder
	sb.WriteString(HeaderStyle.Foreground(theme.Primary).Render(title))
	sb.WriteString("\n")
	for r := rows - 1; r >= 0; r-- {
		k := 0
		if rows > 1 {
			k = r * (n - 1) / (rows - 1)
		}
		sb.WriteString(MetricLabel.Render(fmt.Sprintf("%5.2f ", data.Y[k])))
		for _, col := range field {
			cell := lipgloss.NewStyle().Background(theme.Shade((col[k] - lo) / span))
			sb.WriteString(cell.Render("  "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(Subtle.Render(fmt.Sprintf("      M_r %g to %g, %s %.4g to %.4g",
		floats.Min(data.MachR), floats.Max(data.MachR), title, lo, hi)))
	return sb.String()
}

// Summary tabulates every case of a sweep in index order, failures included.
func Summary(result *automation.Result, theme Theme) string {
	failed := make(map[int]string, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.Index] = f.Flag
		if f.Flag == "" && f.Wrapped != nil {
			failed[f.Index] = f.Wrapped.Error()
		}
	}

	var sb strings.Builder
	sb.WriteString(GradientText("Couette flow sweep", theme.Primary, theme.Accent))
	sb.WriteString("\n")
	sb.WriteString(MetricLabel.Render(fmt.Sprintf("Pr=%g  gamma=%g  C=%g",
		result.Constants.Prandtl, result.Constants.Gamma, result.Constants.ViscosityC)))
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render(fmt.Sprintf("%4s  %8s  %10s  %5s  %9s  %s", "#", "M_r", "tau", "iter", "T(0)", "status")))
	sb.WriteString("\n")

	ok := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	bad := lipgloss.NewStyle().Foreground(theme.Error).Bold(true)

	taus := make([]float64, 0, len(result.Profiles))
	for i, m := range result.Machs {
		if p, found := result.Profiles[i]; found {
			taus = append(taus, p.Tau)
			sb.WriteString(fmt.Sprintf("%4d  %8.3f  %s  %5d  %9.5f  %s\n",
				i, m, MetricValue.Render(fmt.Sprintf("%10.6f", p.Tau)),
				p.Diagnostics.Iterations, p.T[0], ok.Render("ok")))
			continue
		}
		status := "skipped"
		if flag, f := failed[i]; f {
			status = "FAILED " + flag
		}
		sb.WriteString(fmt.Sprintf("%4d  %8.3f  %10s  %5s  %9s  %s\n",
			i, m, "-", "-", "-", bad.Render(status)))
	}

	sb.WriteString(Separator(60) + "\n")
	if len(taus) > 1 {
		sb.WriteString(MetricLabel.Render("tau ") + SparklineChart(taus, 40) + "\n")
	}
	sb.WriteString(ProgressBar(result.Converged(), len(result.Machs), 30) + " ")
	sb.WriteString(fmt.Sprintf("%s converged, %s failed in %s",
		ok.Render(fmt.Sprint(result.Converged())),
		bad.Render(fmt.Sprint(result.Failed())),
		result.Elapsed.Round(1e6)))
	return sb.String()
}

// CaseLine is a one-line status for a finished case.
func CaseLine(p *shooting.Profile) string {
	return fmt.Sprintf("%s %s  %s %s  %s %d",
		MetricLabel.Render("M_r"), MetricValue.Render(fmt.Sprintf("%.2f", p.Mach)),
		MetricLabel.Render("tau"), MetricValue.Render(fmt.Sprintf("%.6f", p.Tau)),
		MetricLabel.Render("iter"), p.Diagnostics.Iterations)
}
