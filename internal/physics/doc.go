// Package physics holds the Lorenz system that drives the point cloud.
//
// [Params] carries the coefficients sigma, r and b and evaluates the
// vector field:
//
//	dx/dt = sigma * (y - x)
//	dy/dt = x * (r - z) - y
//	dz/dt = x*y - b*z
//
// The origin is an equilibrium for every choice of coefficients.
package physics
