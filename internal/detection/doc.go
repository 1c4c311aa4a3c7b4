// Package detection provides the document region proposal generators.
//
// Each generator is a weak geometric heuristic. None of them is expected to
// find every document on its own; the ensemble package runs all of them at
// several scales and reconciles their output.
//
// # Generators
//
//   - Contour: outer boundaries of edge components that are convex and
//     nearly rectangular.
//   - Textish: blobs of dense local contrast, which is what printed text
//     looks like at a distance.
//   - Lines: the envelope of long straight segments found by a Hough
//     transform.
//   - OCR: the envelope of text lines reported by an external engine.
//     Optional; it runs once at native resolution.
//
// # Algorithm Overview
//
// The scale-aware generators share a pipeline:
//
//  1. Grayscale conversion and a generator-specific filter
//  2. A binary mask (edges, thresholded gradient, or line pixels)
//  3. Connected components or Hough segments over the mask
//  4. Geometric gates (perimeter, rectangularity, area share)
//  5. Mapping back to full resolution and full-frame rejection
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Boxes use inclusive top-left and exclusive bottom-right
//
// Generators work on a downscaled copy of the photo and return boxes in
// full-resolution pixels, clipped to the frame.
//
// # Confidence Scores
//
// Scores combine a shape term with an evidence term. They are comparable
// across generators only loosely; the contour generator may score slightly
// above 1 before clamping, and the lines generator is capped at 0.9.
//
// # Thread Safety
//
// Generators hold only constant parameters and may be called concurrently.
package detection
