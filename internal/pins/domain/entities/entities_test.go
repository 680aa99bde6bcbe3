package entities_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/domain/entities"
)

func TestPageIdentity(t *testing.T) {
	page := entities.Page{Origin: "https://ex.com", URL: "https://ex.com/a"}
	assert.Equal(t, "https://ex.com|https://ex.com/a", page.Identity())
}

func TestPageNormalize(t *testing.T) {
	t.Run("derives origin from url", func(t *testing.T) {
		page, err := entities.Page{URL: "https://ex.com:8443/a?b=1#c"}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, "https://ex.com:8443", page.Origin)
	})

	t.Run("keeps explicit origin", func(t *testing.T) {
		page, err := entities.Page{Origin: "https://other", URL: "https://ex.com/a"}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, "https://other", page.Origin)
	})

	t.Run("rejects relative url", func(t *testing.T) {
		_, err := entities.Page{URL: "/a"}.Normalize()
		assert.ErrorIs(t, err, entities.ErrInvalidPageURL)
	})
}

func TestNewPageRecord(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 30, 0, 123e6, time.UTC)
	page := entities.Page{Origin: "https://ex.com", URL: "https://ex.com/a"}

	record := entities.NewPageRecord(page, "hash", now)

	assert.Equal(t, page.Identity(), record.ID)
	assert.Equal(t, "https://ex.com/a", record.PageURL)
	assert.Equal(t, "hash", record.PageHash)
	assert.NotNil(t, record.Annotations)
	assert.Empty(t, record.Annotations)
	assert.Equal(t, "2026-10-15T08:30:00.123Z", record.CreatedAt)
	assert.Empty(t, record.UpdatedAt)
}

func TestPageRecordRemoveAndFind(t *testing.T) {
	now := time.Now()
	record := entities.NewPageRecord(entities.Page{Origin: "o", URL: "u"}, "", now)
	first := entities.NewPin(entities.Position{X: 10, Y: 10}, entities.ColorPink, "a", now)
	second := entities.NewPin(entities.Position{X: 20, Y: 20}, entities.ColorBlue, "b", now)
	record.Annotations = append(record.Annotations, first, second)

	assert.Same(t, second, record.Find(second.ID))
	assert.Nil(t, record.Find("missing"))

	assert.False(t, record.Remove("missing"))
	assert.Len(t, record.Annotations, 2)

	assert.True(t, record.Remove(first.ID))
	require.Len(t, record.Annotations, 1)
	assert.Equal(t, second.ID, record.Annotations[0].ID)
}

func TestPageRecordClone(t *testing.T) {
	now := time.Now()
	record := entities.NewPageRecord(entities.Page{Origin: "o", URL: "u"}, "", now)
	record.Annotations = append(record.Annotations, entities.NewPin(entities.Position{X: 1, Y: 2}, entities.ColorGreen, "n", now))

	cp := record.Clone()
	cp.Annotations[0].Position.X = 99

	assert.Equal(t, float64(1), record.Annotations[0].Position.X)
}

func TestColor(t *testing.T) {
	for _, c := range entities.Palette() {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, entities.Color("red").Valid())
	assert.Equal(t, entities.ColorYellow.Display(), entities.Color("red").Display())
	assert.Equal(t, "rgba(233, 30, 99, 1)", entities.ColorPink.Display())
}

func TestNewAnnotationIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := entities.NewAnnotationID()
		assert.True(t, strings.HasPrefix(id, "ann_"))
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
