package animal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategoryNormalizes(t *testing.T) {
	t.Parallel()

	cases := map[string]Category{
		"dog":    CategoryDog,
		"DOG":    CategoryDog,
		" Cat ":  CategoryCat,
		"bEaR":   CategoryBear,
		"duck\n": CategoryDuck,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"unicorn", "", "dogs", "unknown"} {
		_, err := ParseCategory(in)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrUnsupportedCategory), "input %q", in)
	}
}

func TestRandomDimensionsWithinBounds(t *testing.T) {
	t.Parallel()

	var d RandomDimensions
	for i := 0; i < 1000; i++ {
		w, h := d.Dimensions()
		require.GreaterOrEqual(t, w, MinDimension)
		require.LessOrEqual(t, w, MaxDimension)
		require.GreaterOrEqual(t, h, MinDimension)
		require.LessOrEqual(t, h, MaxDimension)
	}
}
