// Package viz turns world points into screen coordinates and draws them.
//
// The projection pipeline is split in two:
//
//   - [View]: the two rotations that align the camera→target line with the
//     forward axis, built once per frame from a [Camera] placement
//   - [Projector]: perspective division onto a [Viewport] with apparent
//     point size and back-plane culling
//
// [Camera] orbits a fixed target under mouse drags and zooms with a minimum
// radius. [Canvas] is a Braille dot surface with per-dot intensity used by
// the terminal frontend; [Theme] holds its palettes.
package viz
