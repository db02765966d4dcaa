package animal

import (
	"fmt"
	"strings"
)

// Category is one of the supported animal types.
type Category string

// Supported categories.
const (
	CategoryDog  Category = "dog"
	CategoryCat  Category = "cat"
	CategoryBear Category = "bear"
	CategoryDuck Category = "duck"
)

// Categories lists every supported category in a stable order.
func Categories() []Category {
	return []Category{CategoryDog, CategoryCat, CategoryBear, CategoryDuck}
}

// ParseCategory normalizes s and maps it onto a supported Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryDog, CategoryCat, CategoryBear, CategoryDuck:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCategory, s)
	}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}
