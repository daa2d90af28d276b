// Package geometry computes the source and destination rectangles used to fit
// an image into a target box.
//
// The package is pure math: it never touches pixels. Given a source size, a
// target box and a fit policy it returns a Plan describing which part of the
// source is read, where it lands on the output canvas, and how large that
// canvas is.
//
// # Fit Policies
//
//   - Cover: scale to fill the box and crop the overflow, centred.
//   - Contain: scale down (never up) to fit inside the box, centred, with
//     margins left for the background unless Trim is set.
//   - Fill: stretch to the box, aspect ratio ignored.
//   - ShrinkOnly: scale down to fit the box; a smaller source passes through
//     unchanged. The canvas is the scaled content.
//   - GrowOnly: scale up to fit the box; a larger source passes through
//     unchanged. The canvas is the scaled content.
//
// # Rounding
//
// Every floating-point intermediate is rounded to 4 decimal places before it
// is floored or ceiled to a pixel value. This keeps output dimensions stable
// where the exact quotient lands a hair above or below an integer (for
// example 200/(200/1080) evaluating to 1080.0000000000002).
//
// # Padding
//
// Padding is subtracted from the box before the policy runs and added back as
// an offset to the destination rectangle, growing the canvas by the same
// amount.
package geometry
