// Package imaging provides the low-level image operations used by the
// document proposal pipeline.
//
// This package implements image loading, illumination normalization,
// bounded resizing, grayscale filtering (Gaussian, bilateral, median
// statistics), gradient and Canny edge maps, rectangular morphology, Otsu
// thresholding, and the preview overlay that visualizes detections. All
// operations work with standard Go image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Filters that return *image.Gray always return an image whose bounds start
// at (0,0), so Pix can be indexed as y*Stride+x. ResizeLimit and Normalize
// likewise return origin-based *image.NRGBA values.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images. None of
// the filters mutate their input.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// Filters over in-memory images have no failure modes and return no error.
package imaging
