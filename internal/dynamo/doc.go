// Package dynamo provides the core primitives shared by the Couette solver.
//
// The package defines the types every numerical stage agrees on:
//
//   - [State]: vector representing the solution at one height
//   - [System]: interface for ODE systems (dX/dy = f(y, X))
//   - [CaseError]: failure of a single Mach-number case
//
// # Example
//
//	model := physics.NewCouette(physics.DefaultConstants(), 1.0, 1.1)
//	sol, _ := integrators.NewRK45(integrators.DefaultOptions()).Solve(model, 0, 1, model.InitialState())
//	u1 := sol.Eval(1)[0]
//
// # Errors
//
// Sentinel errors are compared with [errors.Is]. Per-case failures are
// wrapped in [CaseError] so a sweep can record them and move on.
package dynamo
