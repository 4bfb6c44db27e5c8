// Package dynamo provides the value types shared by every stage of the
// attractor pipeline.
//
// The package defines:
//
//   - [Point3]: immutable 3D point/vector with the usual arithmetic
//   - [Basis]: three column vectors describing a change of coordinate frame
//   - [ParallelFor]: chunked fan-out used for the per-point frame map
//
// # Errors
//
// Operations that would otherwise divide by zero have checked variants that
// return [ErrDegenerateVector] instead of producing NaN coordinates:
//
//	u, err := v.Normalize()
//	if errors.Is(err, dynamo.ErrDegenerateVector) {
//	    // v was the zero vector
//	}
package dynamo
