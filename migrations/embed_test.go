package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_init.sql", "00002_financing.sql"}, files)

	for _, name := range files {
		raw, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", name)
		assert.Contains(t, string(raw), "-- +goose Down", name)
	}
}

// Each assumption field must track the status on its own; a half-set row
// (assumed_at without an agent, or the reverse) has to be rejected.
func TestLeadAssumedConstraintChecksEachField(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	sql := strings.Join(strings.Fields(string(raw)), " ")

	assert.Contains(t, sql, "(status = 'ASSUMED') = (assumed_at IS NOT NULL) AND (status = 'ASSUMED') = (assigned_agent_id IS NOT NULL)")
	assert.NotContains(t, sql, "(assumed_at IS NOT NULL AND assigned_agent_id IS NOT NULL)")
	assert.Contains(t, sql, "(status = 'EXPIRED') = (expired_at IS NOT NULL)")
}
