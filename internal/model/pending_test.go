// ABOUTME: Tests for building pending attachments from local files
// ABOUTME: Covers metadata extraction, reopening the handle and error cases

package model

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	p, err := PendingFromPath(path)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "notes.txt", p.Name)
	assert.Equal(t, int64(11), p.Size)
	assert.Contains(t, p.MimeType, "text/plain")

	// Handle can be opened more than once (retry after a failed submission)
	for i := 0; i < 2; i++ {
		rc, err := p.Handle.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "hello world", string(data))
	}
}

func TestPendingFromPath_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.zzzunknown")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	p, err := PendingFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, defaultMimeType, p.MimeType)
}

func TestPendingFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := PendingFromPath(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = PendingFromPath(dir)
	assert.Error(t, err)
}

func TestPendingFromPath_UniqueIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	a, err := PendingFromPath(path)
	require.NoError(t, err)
	b, err := PendingFromPath(path)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
