package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ar90n/kdtree"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FormatFromPath(t *testing.T) {
	type TestCase struct {
		Path string
		Want graphviz.Format
	}

	testCases := []TestCase{
		{Path: "tree.dot", Want: graphviz.XDOT},
		{Path: "tree.svg", Want: graphviz.SVG},
		{Path: "tree.PNG", Want: graphviz.PNG},
		{Path: "tree.jpeg", Want: graphviz.JPG},
	}

	for _, tc := range testCases {
		format, err := FormatFromPath(tc.Path)
		require.NoError(t, err)
		assert.Equal(t, tc.Want, format)
	}

	_, err := FormatFromPath("tree.txt")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func Test_Render(t *testing.T) {
	tree, err := kdtree.New([][]float64{{-6, 2}, {-6, -2}, {6, 4}, {6, -4}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tree, graphviz.XDOT))

	out := buf.String()
	for _, name := range []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "-6 -2")
}

func Test_RenderEmpty(t *testing.T) {
	tree, err := kdtree.New[float64](nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tree, graphviz.XDOT))
	assert.Contains(t, buf.String(), "EMPTY TREE")
}

func Test_File(t *testing.T) {
	tree, err := kdtree.New([][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.svg")
	require.NoError(t, File(path, tree))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<svg")
}
