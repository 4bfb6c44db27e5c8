// Package analysis characterizes the attractor for a given set of
// coefficients:
//
//   - [LyapunovExponent]: largest Lyapunov exponent via renormalized
//     trajectory separation
//   - [BifurcationDiagram]: sweep of one coefficient recording z maxima
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda := analysis.LyapunovExponent(st, prm, x0, dt, transient, duration, 1e-8)
//	if lambda > 0 {
//	    // System is chaotic
//	}
package analysis
