package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/domain/entities"
	"pinboard/pkg/logger"
)

var errStorage = errors.New("quota exceeded")

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

// memoryRepository хранит записи в сериализованном виде, как настоящие хранилища.
type memoryRepository struct {
	mu      sync.Mutex
	records map[string][]byte
	puts    int
	failPut error
	failGet error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: map[string][]byte{}}
}

func (m *memoryRepository) Open(context.Context) error { return nil }

func (m *memoryRepository) Get(_ context.Context, id string) (*entities.PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	raw, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	var record entities.PageRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *memoryRepository) Put(_ context.Context, record *entities.PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	m.records[record.ID] = raw
	m.puts++
	return nil
}

func (m *memoryRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	all := make([]*entities.PageRecord, 0, len(ids))
	for _, id := range ids {
		r, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	return all, nil
}

func (m *memoryRepository) Close(context.Context) error { return nil }

func (m *memoryRepository) stored(t *testing.T, id string) *entities.PageRecord {
	t.Helper()
	record, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, record)
	return record
}

func (m *memoryRepository) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type fixedFingerprinter string

func (f fixedFingerprinter) Fingerprint(context.Context, string) string { return string(f) }

type mockView struct {
	mock.Mock
}

func (m *mockView) Render(ctx context.Context, record *entities.PageRecord) {
	m.Called(ctx, record)
}

func (m *mockView) ShowNote(ctx context.Context, annotation entities.Annotation) {
	m.Called(ctx, annotation)
}

func (m *mockView) Focus(ctx context.Context, annotation entities.Annotation) {
	m.Called(ctx, annotation)
}

func (m *mockView) SetStatus(ctx context.Context, message string) {
	m.Called(ctx, message)
}

// newQuietView принимает любые вызовы.
func newQuietView() *mockView {
	v := new(mockView)
	v.On("Render", mock.Anything, mock.Anything).Maybe()
	v.On("ShowNote", mock.Anything, mock.Anything).Maybe()
	v.On("Focus", mock.Anything, mock.Anything).Maybe()
	v.On("SetStatus", mock.Anything, mock.Anything).Maybe()
	return v
}

type answer struct {
	value *string
	asked []string
}

func (a *answer) Prompt(_ context.Context, message, defaultValue string) *string {
	a.asked = append(a.asked, message+"|"+defaultValue)
	return a.value
}

func say(s string) *answer { return &answer{value: &s} }

func cancelled() *answer { return &answer{} }

type confirm bool

func (c confirm) Confirm(context.Context, string) bool { return bool(c) }

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

var examplePage = entities.Page{Origin: "https://ex.com", URL: "https://ex.com/a", Body: "<p>hi</p>"}
