package animal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SourceMode selects how a category's request URL is built.
type SourceMode string

// Source modes.
const (
	// SourceParametric appends "width/height" to the base URL.
	SourceParametric SourceMode = "parametric"
	// SourceFixed uses the base URL unmodified.
	SourceFixed SourceMode = "fixed"
)

// ParseSourceMode maps a config string onto a SourceMode. Empty means parametric.
func ParseSourceMode(s string) (SourceMode, error) {
	switch m := SourceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", SourceParametric:
		return SourceParametric, nil
	case SourceFixed:
		return SourceFixed, nil
	default:
		return "", fmt.Errorf("unknown source mode %q", s)
	}
}

// Source resolves request URLs for one category.
type Source struct {
	BaseURL string
	Mode    SourceMode
}

// Resolve builds the request URL for the given dimensions.
// The base URL is treated as a prefix, so parametric bases should end in "/".
func (s Source) Resolve(width, height int) string {
	if s.Mode == SourceFixed {
		return s.BaseURL
	}
	return s.BaseURL + strconv.Itoa(width) + "/" + strconv.Itoa(height)
}

// Randomized reports whether resolved URLs depend on the drawn dimensions.
func (s Source) Randomized() bool {
	return s.Mode != SourceFixed
}

func (s Source) validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("base url is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url %q must be http or https", s.BaseURL)
	}
	switch s.Mode {
	case SourceParametric, SourceFixed:
		return nil
	default:
		return fmt.Errorf("unknown source mode %q", s.Mode)
	}
}

// Catalog maps every supported category to its Source. It is immutable once built.
type Catalog struct {
	sources map[Category]Source
}

// NewCatalog validates sources and requires one entry per supported category.
func NewCatalog(sources map[Category]Source) (Catalog, error) {
	out := make(map[Category]Source, len(sources))
	for _, c := range Categories() {
		src, ok := sources[c]
		if !ok {
			return Catalog{}, fmt.Errorf("no source configured for %s", c)
		}
		if err := src.validate(); err != nil {
			return Catalog{}, fmt.Errorf("source %s: %w", c, err)
		}
		out[c] = src
	}
	for c := range sources {
		if _, err := ParseCategory(string(c)); err != nil {
			return Catalog{}, fmt.Errorf("source %q: %w", c, err)
		}
	}
	return Catalog{sources: out}, nil
}

// DefaultSources returns the provider set the service ships with.
// Ducks come from a fixed random-image endpoint with no size parameters.
func DefaultSources() map[Category]Source {
	return map[Category]Source{
		CategoryDog:  {BaseURL: "https://place.dog/", Mode: SourceParametric},
		CategoryCat:  {BaseURL: "https://placecats.com/", Mode: SourceParametric},
		CategoryBear: {BaseURL: "https://placebear.com/", Mode: SourceParametric},
		CategoryDuck: {BaseURL: "https://random-d.uk/api/randomimg", Mode: SourceFixed},
	}
}

// Lookup returns the Source for c.
func (c Catalog) Lookup(cat Category) (Source, bool) {
	src, ok := c.sources[cat]
	return src, ok
}
