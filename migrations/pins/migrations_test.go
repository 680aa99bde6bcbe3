package pins_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/ports/repositories"
	"pinboard/migrations/pins"
)

func TestMigrationsMatchSchemaVersion(t *testing.T) {
	entries, err := fs.ReadDir(pins.FS, pins.Dir)
	require.NoError(t, err)

	ups := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups++
		}
	}
	assert.Equal(t, repositories.SchemaVersion, ups)
	assert.Len(t, entries, 2*ups, "every migration needs a down file")
}
