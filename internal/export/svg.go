package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/couette/internal/automation"
	"gonum.org/v1/gonum/floats"
)

// Dash patterns cycled across cases: solid, dashed, dotted.
var lineStyles = []string{"", "6,4", "1.5,3"}

var palette = []string{"#00ccff", "#ff00ff", "#00ff88", "#ffcc00", "#ff4444", "#8888ff"}

// Series is one curve of a line plot.
type Series struct {
	Label string
	X, Y  []float64
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func seriesBounds(series []Series) bounds {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, s := range series {
		if len(s.X) == 0 {
			continue
		}
		b.minX = math.Min(b.minX, floats.Min(s.X))
		b.maxX = math.Max(b.maxX, floats.Max(s.X))
		b.minY = math.Min(b.minY, floats.Min(s.Y))
		b.maxY = math.Max(b.maxY, floats.Max(s.Y))
	}
	if b.maxX == b.minX {
		b.maxX = b.minX + 1
	}
	if b.maxY == b.minY {
		b.maxY = b.minY + 1
	}
	return b
}

// panel writes one line plot into a group translated to (ox, oy).
func panel(sb *strings.Builder, title, xLabel, yLabel string, series []Series, b bounds, ox, oy, width, height int) {
	const margin = 40
	pw := float64(width - 2*margin)
	ph := float64(height - 2*margin)

	sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,%d)">
<rect x="%d" y="%d" width="%.0f" height="%.0f" fill="none" stroke="#444466"/>
<text x="%d" y="20" fill="#ffffff" font-family="monospace" font-size="14" text-anchor="middle">%s</text>
<text x="%d" y="%d" fill="#888899" font-family="monospace" font-size="12" text-anchor="middle">%s</text>
<text x="12" y="%d" fill="#888899" font-family="monospace" font-size="12">%s</text>
<text x="%d" y="%d" fill="#666688" font-family="monospace" font-size="10">%.3g</text>
<text x="%d" y="%d" fill="#666688" font-family="monospace" font-size="10" text-anchor="end">%.3g</text>
`,
		ox, oy,
		margin, margin, pw, ph,
		width/2, title,
		width/2, height-8, xLabel,
		height/2, yLabel,
		margin, height-margin+14, b.minX,
		width-margin, height-margin+14, b.maxX))

	for i, s := range series {
		if len(s.X) < 2 {
			continue
		}
		dash := ""
		if style := lineStyles[i%len(lineStyles)]; style != "" {
			dash = fmt.Sprintf(` stroke-dasharray="%s"`, style)
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`,
			palette[i%len(palette)], dash))
		for k := range s.X {
			x := float64(margin) + (s.X[k]-b.minX)/(b.maxX-b.minX)*pw
			y := float64(margin) + ph - (s.Y[k]-b.minY)/(b.maxY-b.minY)*ph
			if k == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(fmt.Sprintf(`"><title>%s</title></path>
`, s.Label))
	}
	sb.WriteString("</g>\n")
}

// ProfilesSVG draws velocity and temperature against height, one curve per
// case, side by side. Velocity is fixed to [0, 1] on both axes.
func ProfilesSVG(data *automation.ExportData, width, height int) string {
	if data == nil || data.Cases() == 0 {
		return ""
	}

	velocity := make([]Series, data.Cases())
	temperature := make([]Series, data.Cases())
	for i, m := range data.MachR {
		label := fmt.Sprintf("Mr = %g", m)
		velocity[i] = Series{Label: label, X: data.U0[i], Y: data.Y}
		temperature[i] = Series{Label: label, X: data.T[i], Y: data.Y}
	}

	tb := seriesBounds(temperature)
	tb.minX = 1
	tb.maxX = math.Max(tb.maxX*1.1, 1.1)
	tb.minY, tb.maxY = 0, 1

	half := width / 2
	var sb strings.Builder
	sb.WriteString(header(width, height))
	panel(&sb, "Velocity", "U0", "y", velocity, bounds{0, 1, 0, 1}, 0, 0, half, height)
	panel(&sb, "Temperature", "T0", "y", temperature, tb, half, 0, half, height)
	sb.WriteString("</svg>")
	return sb.String()
}

// HeatmapSVG draws field (U0 or T rows of data) over (Mach, height), height
// increasing upward.
func HeatmapSVG(data *automation.ExportData, field [][]float64, title string, width, height int) string {
	if data == nil || len(field) == 0 || len(data.Y) == 0 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range field {
		lo = math.Min(lo, floats.Min(row))
		hi = math.Max(hi, floats.Max(row))
	}
	if hi == lo {
		hi = lo + 1
	}

	const margin = 40
	rows := len(data.Y)
	if rows > height-2*margin {
		rows = height - 2*margin
	}
	cw := float64(width-2*margin) / float64(len(field))
	ch := float64(height-2*margin) / float64(rows)

	var sb strings.Builder
	sb.WriteString(header(width, height))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" fill="#ffffff" font-family="monospace" font-size="14" text-anchor="middle">%s</text>
`, width/2, title))

	for i, row := range field {
		for r := 0; r < rows; r++ {
			k := r * (len(row) - 1) / max(rows-1, 1)
			x := float64(margin) + float64(i)*cw
			y := float64(height-margin) - float64(r+1)*ch
			sb.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>
`, x, y, cw+0.5, ch+0.5, Plasma((row[k]-lo)/(hi-lo))))
		}
	}

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#888899" font-family="monospace" font-size="12" text-anchor="middle">M_r (%g to %g)</text>
<text x="12" y="%d" fill="#888899" font-family="monospace" font-size="12">y</text>
</svg>`, width/2, height-8, floats.Min(data.MachR), floats.Max(data.MachR), height/2))
	return sb.String()
}

func header(width, height int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// plasma colormap anchors, dark to bright.
var plasmaStops = [][3]float64{
	{13, 8, 135},
	{126, 3, 168},
	{204, 71, 120},
	{248, 149, 64},
	{240, 249, 33},
}

// Plasma maps v in [0, 1] to a hex color.
func Plasma(v float64) string {
	v = math.Max(0, math.Min(1, v))
	pos := v * float64(len(plasmaStops)-1)
	i := int(pos)
	if i >= len(plasmaStops)-1 {
		i = len(plasmaStops) - 2
	}
	f := pos - float64(i)
	a, b := plasmaStops[i], plasmaStops[i+1]
	return fmt.Sprintf("#%02x%02x%02x",
		int(a[0]+(b[0]-a[0])*f+0.5),
		int(a[1]+(b[1]-a[1])*f+0.5),
		int(a[2]+(b[2]-a[2])*f+0.5))
}
