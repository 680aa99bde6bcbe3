package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/adapters/sqlite"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

func sampleRecord(id string) *entities.PageRecord {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := entities.NewPageRecord(entities.Page{Origin: "https://ex.com", URL: id}, "hash", now)
	record.Annotations = append(record.Annotations,
		entities.NewPin(entities.Position{X: 100, Y: 200}, entities.ColorPink, "hello", now))
	return record
}

func TestRecordRepository_Implements(t *testing.T) {
	assert.Implements(t, (*repositories.RecordRepository)(nil), sqlite.NewRecordRepository(":memory:", 0))
}

func TestRecordRepository_GetMissing(t *testing.T) {
	ctx := testContext(t)
	repo := sqlite.NewRecordRepository(":memory:", 0)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	record, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRecordRepository_OpenIsIdempotent(t *testing.T) {
	ctx := testContext(t)
	repo := sqlite.NewRecordRepository(":memory:", 0)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	require.NoError(t, repo.Open(ctx))
	require.NoError(t, repo.Put(ctx, sampleRecord("https://ex.com/a")))
	require.NoError(t, repo.Open(ctx))

	got, err := repo.Get(ctx, "https://ex.com|https://ex.com/a")
	require.NoError(t, err)
	require.NotNil(t, got, "second Open must not reset the in-memory database")
}

func TestRecordRepository_PutOverwrites(t *testing.T) {
	ctx := testContext(t)
	repo := sqlite.NewRecordRepository(":memory:", 0)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	record := sampleRecord("https://ex.com/a")
	require.NoError(t, repo.Put(ctx, record))

	record.Annotations = record.Annotations[:0]
	record.UpdatedAt = "2026-01-02T04:00:00.000Z"
	require.NoError(t, repo.Put(ctx, record))

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordRepository_GetAllOrdered(t *testing.T) {
	ctx := testContext(t)
	repo := sqlite.NewRecordRepository(":memory:", 0)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	require.NoError(t, repo.Put(ctx, sampleRecord("https://ex.com/b")))
	require.NoError(t, repo.Put(ctx, sampleRecord("https://ex.com/a")))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "https://ex.com|https://ex.com/a", all[0].ID)
	assert.Equal(t, "https://ex.com|https://ex.com/b", all[1].ID)
}

func TestRecordRepository_SurvivesReopen(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "nested", "pins.db")

	repo := sqlite.NewRecordRepository(path, 0)
	record := sampleRecord("https://ex.com/a")
	require.NoError(t, repo.Put(ctx, record))
	require.NoError(t, repo.Close(ctx))

	reopened := sqlite.NewRecordRepository(path, 0)
	t.Cleanup(func() { _ = reopened.Close(ctx) })

	got, err := reopened.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestRecordRepository_SchemaUpgrade(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "pins.db")

	v1 := sqlite.NewRecordRepository(path, 1)
	record := sampleRecord("https://ex.com/a")
	require.NoError(t, v1.Put(ctx, record))
	require.NoError(t, v1.Close(ctx))

	t.Run("upgrade keeps existing data", func(t *testing.T) {
		v2 := sqlite.NewRecordRepository(path, 2)
		defer func() { _ = v2.Close(ctx) }()

		got, err := v2.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("older version refuses newer schema", func(t *testing.T) {
		old := sqlite.NewRecordRepository(path, 1)
		err := old.Open(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, sqlite.ErrSchemaTooNew)
	})
}

func TestRecordRepository_CloseWithoutOpen(t *testing.T) {
	ctx := testContext(t)
	repo := sqlite.NewRecordRepository(":memory:", 0)
	assert.NoError(t, repo.Close(ctx))
}
