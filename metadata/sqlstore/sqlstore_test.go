package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anoixa/image-thumbnailer/database"
	"github.com/anoixa/image-thumbnailer/database/models"
	"github.com/anoixa/image-thumbnailer/metadata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestStore(t *testing.T) (*Store, database.Provider) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "meta.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := database.NewGormProviderWithDialector(sqlite.Open(dsn), "sqlite")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db
}

func TestStore_SetGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "images/IMG_20/small")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.Set(ctx, "images/IMG_20/small", types.Record{URL: "https://a/v1"}))
	rec, err := s.Get(ctx, "images/IMG_20/small")
	require.NoError(t, err)
	assert.Equal(t, "https://a/v1", rec.URL)
}

func TestStore_Overwrite(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "images/IMG_20/blur", types.Record{URL: "https://a/v1"}))
	require.NoError(t, s.Set(ctx, "images/IMG_20/blur", types.Record{URL: "https://a/v2"}))

	rec, err := s.Get(ctx, "images/IMG_20/blur")
	require.NoError(t, err)
	assert.Equal(t, "https://a/v2", rec.URL)

	var count int64
	require.NoError(t, db.DB().Model(&models.ImageURL{}).Where(&models.ImageURL{Key: "images/IMG_20/blur"}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStore_ConcurrentVariants(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	labels := []string{"xlarge", "large", "medium", "small", "blur"}
	var wg sync.WaitGroup
	errs := make([]error, len(labels))
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			errs[i] = s.Set(ctx, "images/photo/"+label, types.Record{URL: "u-" + label})
		}(i, label)
	}
	wg.Wait()

	for i, label := range labels {
		require.NoError(t, errs[i], label)
		rec, err := s.Get(ctx, "images/photo/"+label)
		require.NoError(t, err)
		assert.Equal(t, "u-"+label, rec.URL)
	}
}

func TestStore_PingName(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, "database:sqlite", s.Name())
	assert.NoError(t, s.Close())
}
