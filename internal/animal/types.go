package animal

import "time"

// DefaultContentType is served when a provider did not report one.
const DefaultContentType = "image/jpeg"

// Image is one persisted fetch result. Payload is never part of the JSON metadata.
type Image struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	SourceURL   string    `json:"source_url"`
	FetchedAt   time.Time `json:"fetched_at"`
	ContentType string    `json:"content_type"`
	SizeBytes   int       `json:"size_bytes"`
	Checksum    string    `json:"checksum"`
	Payload     []byte    `json:"-"`
}

// Newer reports whether img sorts after other: later FetchedAt, then higher ID.
func (img Image) Newer(other Image) bool {
	if !img.FetchedAt.Equal(other.FetchedAt) {
		return img.FetchedAt.After(other.FetchedAt)
	}
	return img.ID > other.ID
}

// FetchRequest describes one outbound image fetch.
type FetchRequest struct {
	Category Category
	URL      string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Attempt is the outcome of one fetch within a batch.
// Exactly one of Image (when Err is nil) or Err is meaningful.
type Attempt struct {
	URL    string
	Width  int
	Height int
	Image  Image
	Err    error
}

// OK reports whether the attempt produced a stored image.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// BatchReport collects every attempt of one FetchAndStore call.
type BatchReport struct {
	Category  Category
	Requested int
	Attempts  []Attempt
}

// Stored returns the successfully stored images in the order they succeeded.
func (r BatchReport) Stored() []Image {
	out := make([]Image, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if a.OK() {
			out = append(out, a.Image)
		}
	}
	return out
}

// Failed counts attempts that did not produce an image.
func (r BatchReport) Failed() int {
	n := 0
	for _, a := range r.Attempts {
		if !a.OK() {
			n++
		}
	}
	return n
}
