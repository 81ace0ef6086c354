package automation

import "github.com/san-kum/couette/internal/dynamo"

// ExportData is the sweep output in its exchange shape. Y is shared by
// every case; the per-case rows follow case-index order and omit failed
// cases, so MachR[i] labels U0[i], T[i], Eta[i] and Xi[i].
type ExportData struct {
	Y     []float64   `json:"y"`
	MachR []float64   `json:"M_r"`
	U0    [][]float64 `json:"U0"`
	T     [][]float64 `json:"T"`
	Eta   [][]float64 `json:"eta"`
	Xi    [][]float64 `json:"xi"`
	Tau   []float64   `json:"tau"`
}

// Data flattens the converged profiles. Specific volume xi equals T at
// constant pressure.
func (r *Result) Data() ExportData {
	idx := r.Indices()
	d := ExportData{
		MachR: make([]float64, 0, len(idx)),
		U0:    make([][]float64, 0, len(idx)),
		T:     make([][]float64, 0, len(idx)),
		Eta:   make([][]float64, 0, len(idx)),
		Xi:    make([][]float64, 0, len(idx)),
		Tau:   make([]float64, 0, len(idx)),
	}
	for n, i := range idx {
		p := r.Profiles[i]
		if n == 0 {
			d.Y = append([]float64(nil), p.Y...)
		}
		d.MachR = append(d.MachR, p.Mach)
		d.U0 = append(d.U0, p.U0)
		d.T = append(d.T, p.T)
		d.Eta = append(d.Eta, p.Eta)
		d.Xi = append(d.Xi, append([]float64(nil), p.T...))
		d.Tau = append(d.Tau, p.Tau)
	}
	return d
}

// Cases returns the number of converged cases in the data.
func (d ExportData) Cases() int {
	return len(d.MachR)
}

// FieldNames lists the per-case profile fields of ExportData.
var FieldNames = []string{"U0", "T", "eta", "xi"}

// Field returns the per-case rows of a named profile field.
func (d ExportData) Field(name string) ([][]float64, error) {
	switch name {
	case "U0", "u", "velocity":
		return d.U0, nil
	case "T", "t", "temperature":
		return d.T, nil
	case "eta", "viscosity":
		return d.Eta, nil
	case "xi", "volume":
		return d.Xi, nil
	}
	return nil, dynamo.InvalidConfigf("unknown field %q, want one of %v", name, FieldNames)
}
