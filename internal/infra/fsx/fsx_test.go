package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNoTemp(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."+name+".tmp-"), "临时文件未清理：%q", e.Name())
	}
}

func TestWriteFile_CreatesParentsAndReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "site", "index.html")

	require.NoError(t, WriteFile(p, []byte("one")))
	require.NoError(t, WriteFile(p, []byte("two")))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	assertNoTemp(t, filepath.Dir(p), "index.html")
}

func TestWriteFile_RenameFailCleansTemp(t *testing.T) {
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error { return os.ErrPermission }
	defer func() { renameFunc = old }()

	err := WriteFile(filepath.Join(dir, "a.html"), []byte("x"))
	require.ErrorIs(t, err, os.ErrPermission)

	_, statErr := os.Stat(filepath.Join(dir, "a.html"))
	assert.True(t, os.IsNotExist(statErr), "不应写出最终文件")
	assertNoTemp(t, dir, "a.html")
}

func TestWriteFile_TargetIsDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.html")
	require.NoError(t, os.Mkdir(p, 0o755))

	err := WriteFile(p, []byte("x"))
	require.Error(t, err)
	assert.True(t, IsPathTypeConflict(err), "期望 PathTypeConflictError，实际：%T %v", err, err)
}
