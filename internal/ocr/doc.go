// Package ocr adapts the Tesseract OCR engine (via gosseract/v2) into a
// text-line detector for document proposals.
//
// Only line geometry is used: the engine reports the bounding box of every
// text line it finds, and the detection package turns their envelope into
// one extra candidate box. Recognized text is discarded.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds without cgo get a stub engine that always reports itself as
// unavailable; the detector then runs without the OCR generator.
//
// # Lifecycle
//
// An Engine creates its Tesseract client lazily on first use and reuses it
// for later calls. Access is serialized with a mutex, so one Engine may be
// shared by concurrent detections. Call Close to release the client.
//
// # Error Handling
//
// Initialization failures are remembered: Available returns false and
// DetectTextLines returns ErrUnavailable wrapped with the cause. Callers are
// expected to treat any OCR error as "no OCR for this photo".
package ocr
