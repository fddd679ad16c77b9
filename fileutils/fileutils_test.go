package fileutils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesnap/sitesnap/fileutils"
)

var data = []byte("hello world")

func TestComputeHash(t *testing.T) {
	r := strings.NewReader(string(data))

	hash, err := fileutils.ComputeHash(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x45ab6734b21e6968), hash)
}

func TestComputeFileHash(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(testPath, data, 0600))

	hash, err := fileutils.ComputeFileHash(testPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x45ab6734b21e6968), hash)
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(a, data, 0600))
	require.NoError(t, os.WriteFile(b, data, 0600))
	require.NoError(t, os.WriteFile(c, []byte("different"), 0600))

	same, err := fileutils.SameContent(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = fileutils.SameContent(a, c)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestExists(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(testPath, data, 0600))

	assert.True(t, fileutils.Exists(testPath))
	assert.False(t, fileutils.Exists(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestVerifyWritable(t *testing.T) {
	assert.NoError(t, fileutils.VerifyWritable(t.TempDir()))
	assert.Error(t, fileutils.VerifyWritable(filepath.Join(t.TempDir(), "missing")))
}
