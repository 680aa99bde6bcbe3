package cached_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/adapters/cache"
	"pinboard/internal/pins/adapters/cached"
	"pinboard/internal/pins/domain/entities"
	cacheport "pinboard/internal/pins/ports/cache"
)

var errStore = errors.New("store unavailable")

type mockRecordRepository struct {
	mock.Mock
}

func (m *mockRecordRepository) Open(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PageRecord), args.Error(1)
}

func (m *mockRecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PageRecord), args.Error(1)
}

func (m *mockRecordRepository) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

var _ cacheport.Cache = (*mockCache)(nil)

func sampleRecord() *entities.PageRecord {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := entities.NewPageRecord(entities.Page{Origin: "https://ex.com", URL: "https://ex.com/a"}, "hash", now)
	record.Annotations = append(record.Annotations,
		entities.NewPin(entities.Position{X: 1, Y: 2}, entities.ColorGreen, "n", now))
	return record
}

func setup(t *testing.T) (*miniredis.Miniredis, *mockRecordRepository, *cached.RecordRepository) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	next := new(mockRecordRepository)
	repo := cached.NewRecordRepository(next, cache.NewRedisCache(client, "", time.Minute), time.Minute)
	return s, next, repo.(*cached.RecordRepository)
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	s, next, repo := setup(t)
	record := sampleRecord()

	next.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

	first, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, first)
	assert.True(t, s.Exists(record.ID))

	second, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, second)

	next.AssertExpectations(t)
}

func TestCachedRepository_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	s, next, repo := setup(t)

	next.On("Get", mock.Anything, "absent").Return(nil, nil).Twice()

	for range 2 {
		got, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.False(t, s.Exists("absent"))
	next.AssertExpectations(t)
}

func TestCachedRepository_WriteThrough(t *testing.T) {
	ctx := context.Background()
	_, next, repo := setup(t)
	record := sampleRecord()

	next.On("Put", mock.Anything, record).Return(nil).Once()
	require.NoError(t, repo.Put(ctx, record))

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
	next.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCachedRepository_FailedPutInvalidates(t *testing.T) {
	ctx := context.Background()
	s, next, repo := setup(t)
	record := sampleRecord()
	require.NoError(t, s.Set(record.ID, "{}"))

	next.On("Put", mock.Anything, record).Return(errStore).Once()

	err := repo.Put(ctx, record)
	assert.ErrorIs(t, err, errStore)
	assert.False(t, s.Exists(record.ID))
}

func TestCachedRepository_CorruptEntryFallsBack(t *testing.T) {
	ctx := context.Background()
	s, next, repo := setup(t)
	record := sampleRecord()
	require.NoError(t, s.Set(record.ID, "{broken"))

	next.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
	next.AssertExpectations(t)
}

func TestCachedRepository_CacheDownDoesNotFail(t *testing.T) {
	ctx := context.Background()
	s, next, repo := setup(t)
	record := sampleRecord()
	s.Close()

	next.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
	next.On("Put", mock.Anything, record).Return(nil).Once()

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
	require.NoError(t, repo.Put(ctx, record))

	next.AssertExpectations(t)
}

func TestCachedRepository_Delegates(t *testing.T) {
	ctx := context.Background()
	_, next, repo := setup(t)
	all := []*entities.PageRecord{sampleRecord()}

	next.On("Open", mock.Anything).Return(nil).Once()
	next.On("GetAll", mock.Anything).Return(all, nil).Once()
	next.On("Close", mock.Anything).Return(nil).Once()

	require.NoError(t, repo.Open(ctx))
	got, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, got)
	require.NoError(t, repo.Close(ctx))

	next.AssertExpectations(t)
}

func TestCachedRepository_FailedCacheWriteDropsStaleEntry(t *testing.T) {
	ctx := context.Background()
	next := new(mockRecordRepository)
	c := new(mockCache)
	repo := cached.NewRecordRepository(next, c, time.Minute)

	updated := sampleRecord()
	updated.Annotations = append(updated.Annotations,
		entities.NewPin(entities.Position{X: 9, Y: 9}, entities.ColorPink, "second", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	next.On("Put", mock.Anything, updated).Return(nil).Once()
	c.On("Set", mock.Anything, updated.ID, mock.Anything, time.Minute).Return(errors.New("i/o timeout")).Once()
	c.On("Delete", mock.Anything, updated.ID).Return(nil).Once()

	require.NoError(t, repo.Put(ctx, updated))

	c.On("Get", mock.Anything, updated.ID).Return("", false, nil).Once()
	next.On("Get", mock.Anything, updated.ID).Return(updated, nil).Once()
	c.On("Set", mock.Anything, updated.ID, mock.Anything, time.Minute).Return(nil).Once()

	got, err := repo.Get(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	c.AssertExpectations(t)
	next.AssertExpectations(t)
}
