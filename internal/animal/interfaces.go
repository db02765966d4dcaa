package animal

import (
	"context"
	"time"
)

// Fetcher retrieves the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Store persists images and answers recency queries. Implementations assign
// IDs on Create and serialize concurrent writers.
type Store interface {
	Create(ctx context.Context, img Image) (Image, error)
	Latest(ctx context.Context, category Category) (Image, error)
	Close() error
}

// Publisher pushes stored-image notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Dimensioner draws the width and height for one parametric request.
type Dimensioner interface {
	Dimensions() (width, height int)
}

// Limiter throttles outbound requests per provider.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Hasher computes payload digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	NewID() (string, error)
}
