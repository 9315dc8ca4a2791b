package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoaderParsesRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.eiko")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	mod, err := fileLoader{}.Load(path)
	require.NoError(t, err)
	assert.NotNil(t, mod)
}

func TestFileLoaderMissingFileIsAnError(t *testing.T) {
	_, err := fileLoader{}.Load(filepath.Join(t.TempDir(), "nope.eiko"))
	assert.Error(t, err)
}

func TestOSFileSystemExistsAndIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	fs := osFileSystem{}
	assert.True(t, fs.Exists(dir))
	assert.True(t, fs.IsDir(dir))
	assert.True(t, fs.Exists(file))
	assert.False(t, fs.IsDir(file))
	assert.False(t, fs.Exists(filepath.Join(dir, "missing")))
}
