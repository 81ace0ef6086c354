package physics

import (
	"math"

	"github.com/san-kum/couette/internal/dynamo"
)

const (
	DefaultPrandtl    = 0.72 // air
	DefaultGamma      = 1.4  // air
	DefaultViscosityC = 0.5

	// TemperatureFloor keeps the viscosity law real while an
	// intermediate integration step drives T non-positive.
	TemperatureFloor = 1e-10
)

// Constants are the physical parameters shared by every case of a run.
type Constants struct {
	Prandtl    float64 `yaml:"prandtl" json:"prandtl"`
	Gamma      float64 `yaml:"gamma" json:"gamma"`
	ViscosityC float64 `yaml:"viscosity_c" json:"viscosity_c"`
}

func DefaultConstants() Constants {
	return Constants{
		Prandtl:    DefaultPrandtl,
		Gamma:      DefaultGamma,
		ViscosityC: DefaultViscosityC,
	}
}

func (c Constants) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return dynamo.InvalidConfigf("%s must be positive and finite, got %g", name, v)
		}
		return nil
	}
	if err := check("prandtl number", c.Prandtl); err != nil {
		return err
	}
	if err := check("specific-heat ratio", c.Gamma); err != nil {
		return err
	}
	return check("viscosity constant", c.ViscosityC)
}

// RecoveryTemperature returns T_r(M) = 1 + (gamma-1)/2 * Pr * M^2.
func (c Constants) RecoveryTemperature(mach float64) float64 {
	return 1 + (c.Gamma-1)/2*c.Prandtl*mach*mach
}

// ViscosityRecip returns 1/eta at temperature t, clamping t to TemperatureFloor.
func (c Constants) ViscosityRecip(t float64) float64 {
	t = math.Max(t, TemperatureFloor)
	return (t + c.ViscosityC) / (math.Pow(t, 1.5) * (1 + c.ViscosityC))
}

// Viscosity returns eta = T^1.5 (1+C) / (T+C). No clamping: it is applied
// to corrected output temperatures, which are physical.
func (c Constants) Viscosity(t float64) float64 {
	return math.Pow(t, 1.5) * (1 + c.ViscosityC) / (t + c.ViscosityC)
}
