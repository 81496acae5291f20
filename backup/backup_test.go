package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaily_CopiesOncePerDay(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pos_system.db")
	require.NoError(t, os.WriteFile(src, []byte("first"), 0o644))
	backups := filepath.Join(dir, "backups")
	day := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	path, made, err := Daily(src, backups, day)
	require.NoError(t, err)
	assert.True(t, made)
	assert.Equal(t, filepath.Join(backups, "auto_backup_20250314.db"), path)

	require.NoError(t, os.WriteFile(src, []byte("second"), 0o644))
	_, made, err = Daily(src, backups, day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, made)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))

	_, made, err = Daily(src, backups, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, made)
}

func TestDaily_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, made, err := Daily(filepath.Join(dir, "missing.db"), dir, time.Now())
	assert.Error(t, err)
	assert.False(t, made)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
