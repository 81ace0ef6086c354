package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/couette/internal/dynamo"
)

func TestRecoveryTemperature(t *testing.T) {
	c := DefaultConstants()

	tests := []struct {
		mach float64
	}{
		{0}, {0.5}, {1}, {2}, {10},
	}

	for _, tt := range tests {
		got := c.RecoveryTemperature(tt.mach)
		want := 1 + (c.Gamma-1)/2*c.Prandtl*tt.mach*tt.mach
		if got != want {
			t.Errorf("M=%g: expected %v, got %v", tt.mach, want, got)
		}
	}

	if c.RecoveryTemperature(0) != 1 {
		t.Error("recovery temperature at M=0 should be exactly 1")
	}
}

func TestViscosityAtUnitTemperature(t *testing.T) {
	c := DefaultConstants()

	if c.ViscosityRecip(1) != 1 {
		t.Errorf("expected etaRecip(1)=1, got %v", c.ViscosityRecip(1))
	}
	if c.Viscosity(1) != 1 {
		t.Errorf("expected eta(1)=1, got %v", c.Viscosity(1))
	}
}

func TestViscosityReciprocalConsistency(t *testing.T) {
	c := DefaultConstants()

	for _, temp := range []float64{0.5, 1.0, 1.144, 3.0, 15.4} {
		product := c.Viscosity(temp) * c.ViscosityRecip(temp)
		if math.Abs(product-1) > 1e-12 {
			t.Errorf("T=%g: eta*etaRecip = %v", temp, product)
		}
	}
}

func TestViscosityClamp(t *testing.T) {
	c := DefaultConstants()

	for _, temp := range []float64{0, -1, -1e6} {
		v := c.ViscosityRecip(temp)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("T=%g: expected finite etaRecip, got %v", temp, v)
		}
		if v != c.ViscosityRecip(TemperatureFloor) {
			t.Errorf("T=%g: expected clamped value", temp)
		}
	}
}

func TestViscosityIncreasingInTemperature(t *testing.T) {
	c := DefaultConstants()

	prev := c.Viscosity(0.1)
	for temp := 0.2; temp < 20; temp += 0.1 {
		eta := c.Viscosity(temp)
		if eta < prev {
			t.Fatalf("viscosity decreased at T=%g: %v < %v", temp, eta, prev)
		}
		prev = eta
	}
}

func TestCouetteDerivative(t *testing.T) {
	c := DefaultConstants()
	m := NewCouette(c, 1.0, 1.2)

	x := dynamo.State{0.3, 1.1}
	dx := m.Derive(0.5, x)

	etaRecip := c.ViscosityRecip(1.1)
	wantU := 1.2 * etaRecip
	wantT := -(c.Prandtl * etaRecip) * (c.Gamma - 1) * 1.0 * 1.2 * 0.3

	if math.Abs(dx[0]-wantU) > 1e-15 {
		t.Errorf("dU0/dy: expected %v, got %v", wantU, dx[0])
	}
	if math.Abs(dx[1]-wantT) > 1e-15 {
		t.Errorf("dT/dy: expected %v, got %v", wantT, dx[1])
	}
}

func TestCouetteNoHeatingAtZeroMach(t *testing.T) {
	m := NewCouette(DefaultConstants(), 0, 1)
	dx := m.Derive(0, dynamo.State{0.7, 1})

	if dx[0] != 1 {
		t.Errorf("expected dU0/dy = tau = 1, got %v", dx[0])
	}
	if dx[1] != 0 {
		t.Errorf("expected no temperature gradient, got %v", dx[1])
	}
}

func TestCouetteInitialState(t *testing.T) {
	m := NewCouette(DefaultConstants(), 2, 1)
	x0 := m.InitialState()

	if m.StateDim() != 2 || len(x0) != 2 {
		t.Fatalf("expected 2-dimensional state, got %d", len(x0))
	}
	if x0[0] != 0 {
		t.Errorf("expected U0(0)=0, got %v", x0[0])
	}
	if x0[1] != m.Constants.RecoveryTemperature(2) {
		t.Errorf("expected T(0)=T_r, got %v", x0[1])
	}
}

func TestCouetteParams(t *testing.T) {
	m := NewCouette(DefaultConstants(), 3, 2.5)

	p := m.GetParams()
	if p["tau"] != 2.5 || p["mach"] != 3 || p["prandtl"] != 0.72 {
		t.Errorf("unexpected params %v", p)
	}
	if len(p) != 5 {
		t.Errorf("expected 5 params, got %d", len(p))
	}
}

func TestConstantsValidate(t *testing.T) {
	if err := DefaultConstants().Validate(); err != nil {
		t.Fatalf("default constants rejected: %v", err)
	}

	bad := []Constants{
		{Prandtl: 0, Gamma: 1.4, ViscosityC: 0.5},
		{Prandtl: 0.72, Gamma: -1, ViscosityC: 0.5},
		{Prandtl: 0.72, Gamma: 1.4, ViscosityC: 0},
		{Prandtl: math.NaN(), Gamma: 1.4, ViscosityC: 0.5},
	}
	for _, c := range bad {
		err := c.Validate()
		if !errors.Is(err, dynamo.ErrInvalidConfig) {
			t.Errorf("%+v: expected ErrInvalidConfig, got %v", c, err)
		}
	}
}
