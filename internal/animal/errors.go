package animal

import "errors"

var (
	// ErrUnsupportedCategory is returned when a caller names a category outside the supported set.
	ErrUnsupportedCategory = errors.New("unsupported animal type")
	// ErrNotFound is returned when no image has been stored for a category.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidCount is returned for negative or oversized batch counts.
	ErrInvalidCount = errors.New("invalid image count")
	// ErrFetchFailed marks a single failed fetch attempt. It never escapes a batch.
	ErrFetchFailed = errors.New("image fetch failed")
)
