package ensemble

import "errors"

// ErrInvalidImage is returned for a nil or zero-area image.
var ErrInvalidImage = errors.New("invalid image")
