package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/adapters/postgres"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

const (
	ensureSchemaQuery = "CREATE TABLE IF NOT EXISTS page_records"
	getQuery          = "SELECT record FROM page_records WHERE id = \\$1"
	putQuery          = "INSERT INTO page_records \\(id, record\\) VALUES \\(\\$1, \\$2\\) ON CONFLICT \\(id\\)"
	getAllQuery       = "SELECT record FROM page_records ORDER BY id"
)

var errDatabaseConnection = errors.New("database connection failed")

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

func sampleRecord() *entities.PageRecord {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := entities.NewPageRecord(entities.Page{Origin: "https://ex.com", URL: "https://ex.com/a"}, "hash", now)
	record.Annotations = append(record.Annotations,
		entities.NewPin(entities.Position{X: 100, Y: 200}, entities.ColorPink, "hello", now))
	return record
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestNewRecordRepository(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewRecordRepository(mock)

	assert.NotNil(t, repo)
	assert.Implements(t, (*repositories.RecordRepository)(nil), repo)
}

func TestRecordRepository_Open(t *testing.T) {
	ctx := testContext(t)

	t.Run("creates table once", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))

		repo := postgres.NewRecordRepository(mock)
		require.NoError(t, repo.Open(ctx))
		require.NoError(t, repo.Open(ctx))

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries after failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnError(errDatabaseConnection)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))

		repo := postgres.NewRecordRepository(mock)
		err := repo.Open(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrEnsureSchema)

		require.NoError(t, repo.Open(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordRepository_Get(t *testing.T) {
	ctx := testContext(t)
	record := sampleRecord()
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getQuery).
			WithArgs(record.ID).
			WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(raw))

		repo := postgres.NewRecordRepository(mock)
		got, err := repo.Get(ctx, record.ID)

		require.NoError(t, err)
		assert.Equal(t, record, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record is not an error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getQuery).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		repo := postgres.NewRecordRepository(mock)
		got, err := repo.Get(ctx, "missing")

		require.NoError(t, err)
		assert.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getQuery).WithArgs(record.ID).WillReturnError(errDatabaseConnection)

		repo := postgres.NewRecordRepository(mock)
		got, err := repo.Get(ctx, record.ID)

		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), postgres.ErrGetRecord)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getQuery).
			WithArgs(record.ID).
			WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow([]byte("{not json")))

		repo := postgres.NewRecordRepository(mock)
		_, err := repo.Get(ctx, record.ID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), postgres.ErrDecodeRecord)
	})
}

func TestRecordRepository_Put(t *testing.T) {
	ctx := testContext(t)
	record := sampleRecord()

	t.Run("upserts record", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(putQuery).
			WithArgs(record.ID, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewRecordRepository(mock)
		require.NoError(t, repo.Put(ctx, record))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(putQuery).
			WithArgs(record.ID, pgxmock.AnyArg()).
			WillReturnError(errDatabaseConnection)

		repo := postgres.NewRecordRepository(mock)
		err := repo.Put(ctx, record)

		require.Error(t, err)
		assert.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrPutRecord)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordRepository_GetAll(t *testing.T) {
	ctx := testContext(t)
	first := sampleRecord()
	second := sampleRecord()
	second.ID = "https://ex.com|https://ex.com/b"
	rawFirst, err := json.Marshal(first)
	require.NoError(t, err)
	rawSecond, err := json.Marshal(second)
	require.NoError(t, err)

	t.Run("returns every record", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getAllQuery).
			WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(rawFirst).AddRow(rawSecond))

		repo := postgres.NewRecordRepository(mock)
		all, err := repo.GetAll(ctx)

		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first, all[0])
		assert.Equal(t, second, all[1])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(ensureSchemaQuery).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(getAllQuery).WillReturnError(errDatabaseConnection)

		repo := postgres.NewRecordRepository(mock)
		all, err := repo.GetAll(ctx)

		require.Error(t, err)
		assert.Nil(t, all)
		assert.Contains(t, err.Error(), postgres.ErrListRecords)
	})
}
