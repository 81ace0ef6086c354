package integrators

import (
	"testing"

	"github.com/san-kum/couette/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(_ float64, x dynamo.State) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkRK45_Solve(b *testing.B) {
	integrator := NewRK45(DefaultOptions())
	dyn := &benchDynamics{}
	x0 := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := integrator.Solve(dyn, 0, 10, x0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolution_Sample3001(b *testing.B) {
	sol, err := NewRK45(DefaultOptions()).Solve(&benchDynamics{}, 0, 1, dynamo.State{1.0, 0.0})
	if err != nil {
		b.Fatal(err)
	}
	grid := make([]float64, 3001)
	for i := range grid {
		grid[i] = float64(i) / 3000
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sol.Sample(grid)
	}
}
