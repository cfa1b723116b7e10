package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "ticket.p7m")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	f, err := New(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, f.Commit())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCloseWithoutCommitLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "ticket.p7m")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	f, err := New(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("garbage"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // temp file was cleaned up
}

func TestCommitAfterCloseErrors(t *testing.T) {
	dir := t.TempDir()
	f, err := New(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Error(t, f.Commit())
}

func TestWriteAnyPicksWriteRenameForRegularPath(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out")
	f, err := WriteAny(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Commit())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
