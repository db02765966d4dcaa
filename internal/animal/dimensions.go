package animal

import "math/rand/v2"

// Bounds for randomized image dimensions, inclusive.
const (
	MinDimension = 200
	MaxDimension = 299
)

// RandomDimensions draws independent uniform widths and heights in
// [MinDimension, MaxDimension].
type RandomDimensions struct{}

// Dimensions implements Dimensioner.
func (RandomDimensions) Dimensions() (int, int) {
	span := MaxDimension - MinDimension + 1
	return MinDimension + rand.IntN(span), MinDimension + rand.IntN(span)
}
