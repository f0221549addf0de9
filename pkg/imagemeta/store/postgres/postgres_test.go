package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
	"github.com/imageflow/imagemeta/pkg/imagemeta/store/postgres"
)

// setupTestStore connects to the database named by IMAGEMETA_TEST_DATABASE_URL
// and prepares an empty image_records table. Tests are skipped when the
// variable is unset so the suite stays runnable without infrastructure.
func setupTestStore(t *testing.T) *postgres.Store {
	t.Helper()

	databaseURL := os.Getenv("IMAGEMETA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("IMAGEMETA_TEST_DATABASE_URL not set; skipping postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS image_records (
			image_name     TEXT PRIMARY KEY,
			file_size      BIGINT NOT NULL DEFAULT 0,
			file_extension TEXT NOT NULL DEFAULT '',
			"date"         TEXT,
			caption        TEXT,
			photographer   TEXT
		)`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE image_records`)
	require.NoError(t, err)

	return postgres.NewWithPool(pool)
}

func TestPostgresRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, imagemeta.ImageRecord{
		ImageName: "sunset.png", FileSize: 2048, FileExtension: "png",
	}))

	record, err := store.Get(ctx, "sunset.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), record.FileSize)
	assert.Equal(t, "png", record.FileExtension)
}

func TestPostgresPutUpsertsOwnedFieldsOnly(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, imagemeta.ImageRecord{
		ImageName: "sunset.png", FileSize: 2048, FileExtension: "png",
	}))
	require.NoError(t, store.UpdateField(ctx, "sunset.png", imagemeta.FieldCaption, "Golden hour"))
	require.NoError(t, store.Put(ctx, imagemeta.ImageRecord{
		ImageName: "sunset.png", FileSize: 4096, FileExtension: "png",
	}))

	record, err := store.Get(ctx, "sunset.png")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), record.FileSize)
	assert.Equal(t, "Golden hour", record.Caption)
}

func TestPostgresUpdateFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, imagemeta.ImageRecord{ImageName: "sunset.png"}))

	fields := map[imagemeta.MetadataField]string{
		imagemeta.FieldDate:         "2024-03-01",
		imagemeta.FieldCaption:      "Golden hour",
		imagemeta.FieldPhotographer: "R. Adams",
	}
	for field, value := range fields {
		t.Run(string(field), func(t *testing.T) {
			require.NoError(t, store.UpdateField(ctx, "sunset.png", field, value))
		})
	}

	record, err := store.Get(ctx, "sunset.png")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", record.Date)
	assert.Equal(t, "Golden hour", record.Caption)
	assert.Equal(t, "R. Adams", record.Photographer)
}

func TestPostgresUpdateMissingRecord(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateField(context.Background(), "ghost.png", imagemeta.FieldCaption, "x")
	assert.ErrorIs(t, err, imagemeta.ErrRecordNotFound)
}

func TestPostgresDeleteIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, imagemeta.ImageRecord{ImageName: "sunset.png"}))
	require.NoError(t, store.Delete(ctx, "sunset.png"))
	require.NoError(t, store.Delete(ctx, "sunset.png"))

	_, err := store.Get(ctx, "sunset.png")
	assert.ErrorIs(t, err, imagemeta.ErrRecordNotFound)
}

func TestPostgresGetMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), fmt.Sprintf("missing-%d.png", time.Now().UnixNano()))
	assert.ErrorIs(t, err, imagemeta.ErrRecordNotFound)
}
