// Package geometry provides the rectangle algebra shared by the document
// proposal generators and the suppression cascade.
//
// # Coordinate System
//
// All coordinates are full-resolution pixel positions:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward, Y increases downward
//   - (X1, Y1) is the top-left corner, (X2, Y2) the bottom-right corner
//
// # Box Validity
//
// A Box is only ever created through NewBox, which refuses degenerate input
// (X2 <= X1 or Y2 <= Y1) by returning ok=false. Callers drop such values
// instead of propagating an error. Boxes are immutable values; the
// suppression stages select subsets and never reshape them.
//
// # Full-Frame Rejection
//
// FrameFilter classifies a box as "the whole photo" when it covers too much
// of the frame, or when it hugs two or more image borders while leaving
// almost no margin. Each generator owns a named filter so that the caps can
// be tuned independently:
//
//   - DefaultFrameFilter: area 0.85, margin 0.02
//   - LinesFrameFilter:   area 0.75, margin 0.03
//   - OCRFrameFilter:     area 0.80, margin 0.03
package geometry
