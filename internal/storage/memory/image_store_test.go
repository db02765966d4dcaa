package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/animal-images/internal/animal"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

func TestImageStoreCreateAssignsIDAndCopies(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&seqIDs{})
	payload := []byte("jpeg")
	created, err := store.Create(context.Background(), animal.Image{
		Category:  animal.CategoryDog,
		SourceURL: "https://place.dog/200/200",
		FetchedAt: time.Unix(10, 0),
		Payload:   payload,
	})
	require.NoError(t, err)
	require.Equal(t, "id-0001", created.ID)

	payload[0] = 'J'
	created.Payload[1] = 'P'
	latest, err := store.Latest(context.Background(), animal.CategoryDog)
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(latest.Payload))
}

func TestImageStoreLatestOrdering(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&seqIDs{})
	ctx := context.Background()
	t1 := time.Unix(100, 0)
	for i, ts := range []time.Time{t1.Add(2 * time.Second), t1, t1.Add(time.Second)} {
		_, err := store.Create(ctx, animal.Image{
			Category:  animal.CategoryCat,
			SourceURL: fmt.Sprintf("https://placecats.com/%d/200", 200+i),
			FetchedAt: ts,
			Payload:   []byte{byte(i + 1)},
		})
		require.NoError(t, err)
	}
	latest, err := store.Latest(ctx, animal.CategoryCat)
	require.NoError(t, err)
	require.Equal(t, "https://placecats.com/200/200", latest.SourceURL)

	// Equal timestamps fall back to the most recently created ID.
	tie := t1.Add(time.Hour)
	for i := 0; i < 2; i++ {
		_, err := store.Create(ctx, animal.Image{
			Category:  animal.CategoryCat,
			SourceURL: fmt.Sprintf("https://placecats.com/tie/%d", i),
			FetchedAt: tie,
			Payload:   []byte("x"),
		})
		require.NoError(t, err)
	}
	latest, err = store.Latest(ctx, animal.CategoryCat)
	require.NoError(t, err)
	require.Equal(t, "https://placecats.com/tie/1", latest.SourceURL)
	require.Equal(t, 5, store.Count(animal.CategoryCat))
}

func TestImageStoreLatestNotFound(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&seqIDs{})
	_, err := store.Latest(context.Background(), animal.CategoryBear)
	require.ErrorIs(t, err, animal.ErrNotFound)
}

func TestImageStoreCreateValidates(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&seqIDs{})
	_, err := store.Create(context.Background(), animal.Image{Category: animal.CategoryDuck, SourceURL: "https://random-d.uk/api/randomimg"})
	require.ErrorContains(t, err, "payload")
	require.Zero(t, store.Count(animal.CategoryDuck))
}

func TestImageStoreConcurrentCreate(t *testing.T) {
	t.Parallel()

	store := NewImageStore(&seqIDs{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(context.Background(), animal.Image{
				Category:  animal.CategoryDog,
				SourceURL: "https://place.dog/200/200",
				FetchedAt: time.Now(),
				Payload:   []byte("x"),
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 20, store.Count(animal.CategoryDog))
}
