// Package shooting solves the compressible Couette boundary value problem
// for one Mach number with a shooting method.
//
// The free parameter is the shear-stress constant tau. [Solver.Shoot]
// integrates the profile model from y=0 with U0=0 and T=T_r and returns
// the mismatch U0(1)-1; [Solver.Solve] drives that mismatch to zero with
// a bracketed Brent search and re-integrates at the root on a fixed
// height grid.
//
// Each solve moves through the phases
//
//	initialized -> residual-evaluating -> converged -> final-integration -> done
//	                                   \-> failed
//
// and a failure is reported as a [dynamo.CaseError] carrying the Mach
// number and the root finder's flag.
package shooting
