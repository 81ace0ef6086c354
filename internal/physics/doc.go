// Package physics provides the compressible Couette-flow profile model.
//
// [Couette] implements [dynamo.System] for the similarity-transformed
// boundary-layer equations in the dimensionless height y in [0, 1]:
//
//	dU0/dy = tau / eta(T)
//	dT/dy  = -(Pr / eta(T)) (gamma-1) M_r^2 tau U0
//
// with the simplified Sutherland law
//
//	eta(T) = T^1.5 (1+C) / (T+C)
//
// The boundary conditions are U0(0)=0, T(0)=T_r(M_r) and U0(1)=1, where
// T_r is the recovery temperature returned by [Constants.RecoveryTemperature].
package physics
