package csvpoints

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ar90n/kdtree"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReadPoints(t *testing.T) {
	points, err := ReadPoints[float32](strings.NewReader("1.5,2\n-3, 4e2\n0,0\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1.5, 2}, {-3, 400}, {0, 0}}, points)

	ints, err := ReadPoints[int](strings.NewReader("1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3}}, ints)

	empty, err := ReadPoints[float64](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func Test_ReadPointsErrors(t *testing.T) {
	_, err := ReadPoints[float64](strings.NewReader("1,2\n3\n"))
	assert.True(t, errors.Is(err, kdtree.ErrCardinalityMismatch))

	_, err = ReadPoints[float64](strings.NewReader("1,2\n3,x\n"))
	assert.ErrorContains(t, err, "line 2 field 2")

	_, err = ReadPoints[uint8](strings.NewReader("1,300\n"))
	assert.Error(t, err)

	_, err = ReadPointsFile[float64](filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func Test_WriteIndices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIndices(&buf, []int{3, 0, kdtree.NoResult}))
	assert.Equal(t, "3\n0\n-1\n", buf.String())

	path := filepath.Join(t.TempDir(), "answers.txt")
	require.NoError(t, WriteIndicesFile(path, []int{1, 2}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(raw))
}
