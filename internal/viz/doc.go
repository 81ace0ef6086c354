// Package viz renders sweep results in the terminal.
//
//   - [PlotProfiles]: velocity or temperature against height, one curve per case
//   - [Heatmap]: a field over (Mach, height) drawn as shaded cells
//   - [Summary]: per-case table of wall shear stress and solver effort
//
// Colors come from a [Theme]; [GetTheme] falls back to the default theme
// for unknown names.
package viz
