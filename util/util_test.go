package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKeysSorted(t *testing.T) {
	keys := GetKeys(map[string]int{"b": 1, "c": 2, "a": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMinAndSum(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint32(3), Min(uint32(3), uint32(7)))
	assert.Equal(-2, Min(5, -2))
	assert.Equal(uint64(0), Sum([]uint32{}))
	assert.Equal(uint64(8589934590), Sum([]uint32{4294967295, 4294967295}))
}

func TestBinaryRoundTrip(t *testing.T) {
	type overview struct {
		Name  string
		Ticks []uint32
	}
	dir := t.TempDir()
	require.NoError(t, RecreateDir(filepath.Join(dir, "out")))
	path := filepath.Join(dir, "out", "x.bin")

	require.NoError(t, CreateBinary(path, overview{Name: "x", Ticks: []uint32{1, 2}}))
	got, err := ReadBinary[overview](path)
	require.NoError(t, err)
	assert.Equal(t, overview{Name: "x", Ticks: []uint32{1, 2}}, got)
}

func TestReadBinaryMissingFile(t *testing.T) {
	_, err := ReadBinary[int](filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
