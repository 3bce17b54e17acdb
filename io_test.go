package kdtree

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SaveExactBytes(t *testing.T) {
	type TestCase struct {
		Name   string
		Points [][]float64
		Want   string
	}

	testCases := []TestCase{
		{
			Name:   "empty",
			Points: nil,
			Want:   "0\nEMPTY TREE\n",
		},
		{
			Name:   "single point",
			Points: [][]float64{{1}},
			Want:   "1\n1\nLEAF\n0\n",
		},
		{
			Name:   "four points",
			Points: fourPoints(),
			Want: "4\n-6,2\n-6,-2\n6,4\n6,-4\n" +
				"HYPERPLANE\n0 6\n" +
				"HYPERPLANE\n1 2\nLEAF\n1\nLEAF\n0\n" +
				"HYPERPLANE\n1 4\nLEAF\n3\nLEAF\n2\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			tree, err := New(tc.Points)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, tree.Save(&buf))
			assert.Equal(t, tc.Want, buf.String())
		})
	}
}

func Test_SaveLoadRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	points := make([][]float32, 200)
	for i := range points {
		points[i] = []float32{r.Float32(), r.Float32()*1e6 - 5e5, float32(r.NormFloat64())}
	}

	tree, err := New(points)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tree.Save(&buf))

	loaded, err := Load[float32](&buf)
	require.NoError(t, err)

	assert.True(t, tree.Equal(loaded))
	assert.Equal(t, tree.Points(), loaded.Points())
	assert.Equal(t, tree.NodeCount(), loaded.NodeCount())
	for id := 0; id < tree.NodeCount(); id++ {
		assert.Equal(t, tree.Node(uint(id)), loaded.Node(uint(id)))
	}
}

func Test_LoadIntegers(t *testing.T) {
	src := "3\n1,-2\n3,4\n5,6\nHYPERPLANE\n0 3\nLEAF\n0\nHYPERPLANE\n1 6\nLEAF\n1\nLEAF\n2\n\n"

	tree, err := NewTreeBuilder[int]().SetSplitter(NewRoundRobinSplitter[int]()).Load(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, -2}, {3, 4}, {5, 6}}, tree.Points())
	assert.Equal(t, RoundRobinSplitterName, tree.Splitter().Name())

	idx, err := tree.NearestNeighbor([]int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func Test_LoadEmpty(t *testing.T) {
	tree, err := Load[float64](strings.NewReader("0\nEMPTY TREE\n"))
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
}

func Test_LoadMalformed(t *testing.T) {
	type TestCase struct {
		Name string
		Src  string
	}

	testCases := []TestCase{
		{Name: "no input", Src: ""},
		{Name: "bad count", Src: "x\n"},
		{Name: "negative count", Src: "-1\n"},
		{Name: "truncated points", Src: "2\n1\n"},
		{Name: "bad coordinate", Src: "1\n1,a\nLEAF\n0\n"},
		{Name: "empty point", Src: "1\n\nLEAF\n0\n"},
		{Name: "mismatched point", Src: "2\n1\n2,3\nLEAF\n0\n"},
		{Name: "missing nodes", Src: "1\n1\n"},
		{Name: "missing payload", Src: "1\n1\nLEAF\n"},
		{Name: "bad marker", Src: "1\n1\nNODE\n0\n"},
		{Name: "bad leaf index", Src: "1\n1\nLEAF\nzero\n"},
		{Name: "leaf out of range", Src: "1\n1\nLEAF\n1\n"},
		{Name: "bad hyperplane", Src: "2\n1\n2\nHYPERPLANE\n0\nLEAF\n0\nLEAF\n1\n"},
		{Name: "bad hyperplane value", Src: "2\n1\n2\nHYPERPLANE\n0 x\nLEAF\n0\nLEAF\n1\n"},
		{Name: "axis out of range", Src: "2\n1\n2\nHYPERPLANE\n1 2\nLEAF\n0\nLEAF\n1\n"},
		{Name: "split invariant", Src: "2\n1\n2\nHYPERPLANE\n0 2\nLEAF\n1\nLEAF\n0\n"},
		{Name: "duplicated leaf", Src: "2\n1\n2\nHYPERPLANE\n0 2\nLEAF\n0\nLEAF\n0\n"},
		{Name: "too few nodes", Src: "2\n1\n2\nLEAF\n0\n"},
		{Name: "too many nodes", Src: "1\n1\nHYPERPLANE\n0 1\nLEAF\n0\nLEAF\n0\n"},
		{Name: "trailing content", Src: "1\n1\nLEAF\n0\nLEAF\n"},
		{Name: "empty marker with points", Src: "1\n1\nEMPTY TREE\n"},
		{Name: "leaf without points", Src: "0\nLEAF\n0\n"},
		{Name: "content after empty marker", Src: "0\nEMPTY TREE\nLEAF\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			tree, err := Load[float64](strings.NewReader(tc.Src))
			assert.Nil(t, tree)
			assert.True(t, cerrors.Is(err, ErrDeserialization), "got %v", err)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func Test_SaveWriteFailure(t *testing.T) {
	tree, err := New(fourPoints())
	require.NoError(t, err)

	err = tree.Save(failingWriter{})
	assert.True(t, cerrors.Is(err, ErrSerializationIO))
}

func Test_FormatValue(t *testing.T) {
	assert.Equal(t, "0.1", FormatValue(float32(0.1)))
	assert.Equal(t, "0.1", FormatValue(0.1))
	assert.Equal(t, "-42", FormatValue(int8(-42)))
	assert.Equal(t, "18446744073709551615", FormatValue(uint64(18446744073709551615)))

	v, err := ParseValue[float32]("0.1")
	require.NoError(t, err)
	assert.Equal(t, float32(0.1), v)

	_, err = ParseValue[uint8]("256")
	assert.Error(t, err)
}
