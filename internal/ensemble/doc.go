// Package ensemble runs the document proposal generators over several image
// scales and reduces their pooled output to a few ranked boxes.
//
// # Pipeline
//
//  1. Validate the photo and normalize its illumination once
//  2. Downscale to each target side (960, 1280, 1600 by default; never
//     upscaled, duplicate scales run once)
//  3. Run every generator on every scale on a bounded worker pool, plus the
//     optional OCR generator once at native resolution
//  4. Pool the candidates in a fixed order, drop full-frame boxes and boxes
//     under 32 pixels on a side
//  5. Suppress: containment, then high-overlap dedup, then top-K NMS
//  6. Emit normalized [0,1] coordinates
//
// # Ordering
//
// Candidates are pooled scale-major, then generator-major (contour,
// textish, lines), with OCR candidates last, regardless of which worker
// finished first. Suppression sorts stably by confidence, so equal scores
// are resolved by that pool order and results are reproducible.
//
// # Cancellation
//
// Detect honours its context and applies Options.Timeout on top of it.
// A generator that has already started runs to completion, but no new
// generator is started once the context is done.
package ensemble
