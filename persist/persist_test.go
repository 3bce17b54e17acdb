package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ar90n/kdtree"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CompressionFromPath(t *testing.T) {
	type TestCase struct {
		Path string
		Want Compression
	}

	testCases := []TestCase{
		{Path: "tree.txt", Want: None},
		{Path: "tree", Want: None},
		{Path: "/tmp/tree.txt.zst", Want: Zstd},
		{Path: "tree.ZSTD", Want: Zstd},
		{Path: "tree.lz4", Want: LZ4},
	}

	for _, tc := range testCases {
		t.Run(tc.Path, func(t *testing.T) {
			assert.Equal(t, tc.Want, CompressionFromPath(tc.Path))
		})
	}
}

func Test_SaveLoadFile(t *testing.T) {
	points := [][]float64{{-6, 2}, {-6, -2}, {6, 4}, {6, -4}, {0.125, 1e-9}}
	tree, err := kdtree.New(points)
	require.NoError(t, err)

	var plain bytes.Buffer
	require.NoError(t, tree.Save(&plain))

	for _, name := range []string{"tree.txt", "tree.zst", "tree.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveFile(path, tree))

			loaded, err := LoadFile(path, kdtree.NewTreeBuilder[float64]())
			require.NoError(t, err)
			assert.True(t, tree.Equal(loaded))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if CompressionFromPath(path) == None {
				assert.Equal(t, plain.Bytes(), raw)
			} else {
				assert.NotEqual(t, plain.Bytes(), raw)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func Test_LoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.txt"), kdtree.NewTreeBuilder[float64]())
	assert.True(t, errors.Is(err, kdtree.ErrSerializationIO))

	broken := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(broken, []byte("1\n1\nLEAF\n7\n"), 0o644))
	_, err = LoadFile(broken, kdtree.NewTreeBuilder[float64]())
	assert.True(t, errors.Is(err, kdtree.ErrDeserialization))
}

func Test_SaveFileErrors(t *testing.T) {
	tree, err := kdtree.New([][]float64{{1}})
	require.NoError(t, err)

	err = SaveFile(filepath.Join(t.TempDir(), "missing", "tree.txt"), tree)
	assert.True(t, errors.Is(err, kdtree.ErrSerializationIO))
}
