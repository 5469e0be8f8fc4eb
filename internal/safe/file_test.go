package safe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "capture.db", []byte("0123456789"))
	link := filepath.Join(dir, "link.db")
	require.NoError(t, os.Symlink(src, link))

	t.Run("regular file", func(t *testing.T) {
		data, err := ReadFile(src, nil)
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(data))
	})

	t.Run("symlink rejected by default", func(t *testing.T) {
		_, err := ReadFile(link, nil)
		assert.ErrorContains(t, err, "symlink")
	})

	t.Run("symlink allowed", func(t *testing.T) {
		data, err := ReadFile(link, &Options{AllowSymlinks: true})
		require.NoError(t, err)
		assert.Len(t, data, 10)
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := ReadFile(src, &Options{MaxSize: 9})
		assert.ErrorContains(t, err, "exceeds maximum allowed size")

		_, err = ReadFile(src, &Options{MaxSize: 10})
		assert.NoError(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ReadFile(dir, nil)
		assert.ErrorContains(t, err, "not a regular file")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(dir, "nope"), nil)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "source.txt", []byte("test content"))

	t.Run("copies with default permissions", func(t *testing.T) {
		dst := filepath.Join(dir, "dest.txt")
		require.NoError(t, CopyFile(src, dst, nil))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "test content", string(got))

		info, err := os.Stat(dst)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("rejects symlink", func(t *testing.T) {
		link := filepath.Join(dir, "link.txt")
		require.NoError(t, os.Symlink(src, link))
		assert.Error(t, CopyFile(link, filepath.Join(dir, "from-link.txt"), nil))
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), nil))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), &Options{DestPerm: 0o644}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "out"), []byte("x"), nil)
	assert.Error(t, err)
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "tmp-output", []byte("diff"))
	dst := filepath.Join(dir, "result.txt")

	require.NoError(t, MoveFile(src, dst, nil))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "diff", string(got))
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, MoveFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), nil))
}
