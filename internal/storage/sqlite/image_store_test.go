package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/animal-images/internal/animal"
)

func TestImageStoreCreateAndLatest(t *testing.T) {
	t.Parallel()

	store := NewImageStore(setupTestDB(t), &seqIDs{})
	ctx := context.Background()
	base := time.Date(2025, 4, 3, 12, 0, 0, 0, time.UTC)

	var created []animal.Image
	for i := 0; i < 3; i++ {
		img, err := store.Create(ctx, animal.Image{
			Category:  animal.CategoryDog,
			SourceURL: fmt.Sprintf("https://place.dog/%d/250", 200+i),
			FetchedAt: base.Add(time.Duration(i) * time.Millisecond),
			Checksum:  "abc",
			Payload:   []byte{0xff, 0xd8, byte(i)},
		})
		require.NoError(t, err)
		created = append(created, img)
	}
	require.Equal(t, "id-0001", created[0].ID)
	require.Equal(t, animal.DefaultContentType, created[0].ContentType)
	require.Equal(t, 3, created[0].SizeBytes)

	latest, err := store.Latest(ctx, animal.CategoryDog)
	require.NoError(t, err)
	require.Equal(t, created[2].ID, latest.ID)
	require.Equal(t, created[2].SourceURL, latest.SourceURL)
	require.True(t, created[2].FetchedAt.Equal(latest.FetchedAt))
	require.Equal(t, []byte{0xff, 0xd8, 2}, latest.Payload)
	require.Equal(t, animal.CategoryDog, latest.Category)
}

func TestImageStoreLatestTieBreaksOnID(t *testing.T) {
	t.Parallel()

	store := NewImageStore(setupTestDB(t), &seqIDs{})
	ctx := context.Background()
	ts := time.Date(2025, 4, 3, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := store.Create(ctx, animal.Image{
			Category:    animal.CategoryDuck,
			SourceURL:   "https://random-d.uk/api/randomimg",
			FetchedAt:   ts,
			ContentType: "image/png",
			Payload:     []byte{byte(i + 1)},
		})
		require.NoError(t, err)
	}
	latest, err := store.Latest(ctx, animal.CategoryDuck)
	require.NoError(t, err)
	require.Equal(t, "id-0002", latest.ID)
	require.Equal(t, "image/png", latest.ContentType)
}

func TestImageStoreLatestNotFound(t *testing.T) {
	t.Parallel()

	store := NewImageStore(setupTestDB(t), &seqIDs{})
	_, err := store.Create(context.Background(), animal.Image{
		Category:  animal.CategoryCat,
		SourceURL: "https://placecats.com/200/200",
		FetchedAt: time.Now(),
		Payload:   []byte("cat"),
	})
	require.NoError(t, err)

	_, err = store.Latest(context.Background(), animal.CategoryBear)
	require.ErrorIs(t, err, animal.ErrNotFound)
}

func TestImageStoreRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	store := NewImageStore(setupTestDB(t), &seqIDs{})
	_, err := store.Create(context.Background(), animal.Image{
		Category:  animal.CategoryCat,
		SourceURL: "https://placecats.com/200/200",
	})
	require.Error(t, err)
}

func TestOpenMigratesFileDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "animals.db")
	store, err := Open(context.Background(), path, &seqIDs{})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), animal.Image{
		Category:  animal.CategoryBear,
		SourceURL: "https://placebear.com/220/230",
		FetchedAt: time.Now(),
		Payload:   []byte("bear"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrations again as a no-op and keeps the data.
	reopened, err := Open(context.Background(), path, &seqIDs{n: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	latest, err := reopened.Latest(context.Background(), animal.CategoryBear)
	require.NoError(t, err)
	require.Equal(t, "bear", string(latest.Payload))
}
