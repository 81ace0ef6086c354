package physics

import (
	"github.com/san-kum/couette/internal/dynamo"
)

// Couette is the profile model for one case at a fixed trial tau.
// State layout is {U0, T}.
type Couette struct {
	Constants Constants
	Mach      float64
	Tau       float64
}

func NewCouette(c Constants, mach, tau float64) *Couette {
	return &Couette{Constants: c, Mach: mach, Tau: tau}
}

func (m *Couette) StateDim() int {
	return 2
}

// Derive evaluates (dU0/dy, dT/dy). The model is autonomous in y.
func (m *Couette) Derive(_ float64, x dynamo.State) dynamo.State {
	u0 := x[0]
	etaRecip := m.Constants.ViscosityRecip(x[1])

	c := m.Constants
	dU0 := m.Tau * etaRecip
	dT := -(c.Prandtl * etaRecip) * ((c.Gamma - 1) * m.Mach * m.Mach * m.Tau * u0)

	return dynamo.State{dU0, dT}
}

// InitialState returns {U0(0), T(0)} = {0, T_r(M)}.
func (m *Couette) InitialState() dynamo.State {
	return dynamo.State{0, m.Constants.RecoveryTemperature(m.Mach)}
}

// GetParams lists the model inputs by name.
func (m *Couette) GetParams() map[string]float64 {
	return map[string]float64{
		"prandtl":     m.Constants.Prandtl,
		"gamma":       m.Constants.Gamma,
		"viscosity_c": m.Constants.ViscosityC,
		"mach":        m.Mach,
		"tau":         m.Tau,
	}
}
