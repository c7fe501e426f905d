package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStore(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store.json"), []byte(content), 0o644))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeStore(t, src, `{"byteboard_tasks":"[{\"id\":1,\"type\":\"personal\",\"title\":\"Laundry\"}]"}`)

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	require.NoError(t, SnapshotDataDir(src, archive))
	_, err := os.Stat(archive)
	require.NoError(t, err)

	restored := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, RestoreDataDir(archive, restored))

	want, err := os.ReadFile(filepath.Join(src, "store.json"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(restored, "store.json"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestSnapshotRejectsCorruptStore(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeStore(t, src, `{"byteboard_tasks": not json`)

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	err := SnapshotDataDir(src, archive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid store")
}

func TestSnapshotEmptyDataDir(t *testing.T) {
	src := t.TempDir()

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	require.NoError(t, SnapshotDataDir(src, archive))

	restored := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, RestoreDataDir(archive, restored))
}

func TestVerifyDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	writeStore(t, dir, `{"a":"1","b":"2"}`)

	n, err := VerifyDataDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = VerifyDataDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSanitizeArchiveRelPath(t *testing.T) {
	_, err := sanitizeArchiveRelPath("../escape")
	assert.Error(t, err)
	_, err = sanitizeArchiveRelPath("/abs")
	assert.Error(t, err)

	rel, err := sanitizeArchiveRelPath("store.json")
	require.NoError(t, err)
	assert.Equal(t, "store.json", rel)
}
