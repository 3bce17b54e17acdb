package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/persist"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"kdtree", "--log-level", "error"}, args...))
	return out.String(), err
}

func Test_BuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "-6,2\n-6,-2\n6,4\n6,-4\n")
	queries := writeFile(t, dir, "queries.csv", "-5,1\n7,-3\n6,5\n")
	treePath := filepath.Join(dir, "tree.zst")
	answers := filepath.Join(dir, "answers.txt")

	_, err := runApp(t, "build", "--input", data, "--output", treePath, "--splitter", "variance")
	require.NoError(t, err)

	tree, err := persist.LoadFile(treePath, kdtree.NewTreeBuilder[float64]())
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len())

	_, err = runApp(t, "query", "--tree", treePath, "--input", queries, "--output", answers)
	require.NoError(t, err)

	raw, err := os.ReadFile(answers)
	require.NoError(t, err)
	assert.Equal(t, "0\n3\n2\n", string(raw))
}

func Test_BuildFloat32(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "1\n2\n3\n")
	queries := writeFile(t, dir, "queries.csv", "2.9\n")
	treePath := filepath.Join(dir, "tree.txt")
	answers := filepath.Join(dir, "answers.txt")

	_, err := runApp(t, "build", "--dtype", "float32", "--input", data, "--output", treePath)
	require.NoError(t, err)

	raw, err := os.ReadFile(treePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "3\n1\n2\n3\nHYPERPLANE\n"))

	_, err = runApp(t, "query", "--dtype", "float32", "--tree", treePath, "--input", queries, "--output", answers)
	require.NoError(t, err)
	raw, err = os.ReadFile(answers)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(raw))
}

func Test_Sanity(t *testing.T) {
	dir := t.TempDir()

	var data, queries strings.Builder
	for x := 0; x < 15; x++ {
		for y := 0; y < 15; y++ {
			data.WriteString(strconv.Itoa(x) + "," + strconv.Itoa(y))
			data.WriteString("\n")
			queries.WriteString(strconv.Itoa(2*x-7) + "," + strconv.Itoa(y+3))
			queries.WriteString("\n")
		}
	}
	dataPath := writeFile(t, dir, "data.csv", data.String())
	queriesPath := writeFile(t, dir, "queries.csv", queries.String())

	out, err := runApp(t, "sanity", "--dtype", "int64", "--data", dataPath, "--queries", queriesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "all 225 queries match brute force")

	treePath := filepath.Join(dir, "tree.lz4")
	_, err = runApp(t, "build", "--dtype", "int64", "--input", dataPath, "--output", treePath)
	require.NoError(t, err)

	out, err = runApp(t, "sanity", "--dtype", "int64", "--data", dataPath, "--queries", queriesPath, "--tree", treePath)
	require.NoError(t, err)
	assert.Contains(t, out, "all 225 queries match brute force")

	other := writeFile(t, dir, "other.csv", "1,1\n")
	_, err = runApp(t, "sanity", "--dtype", "int64", "--data", other, "--queries", queriesPath, "--tree", treePath)
	assert.Error(t, err)
}

func Test_SanityReportsMismatch(t *testing.T) {
	var buf bytes.Buffer
	color.NoColor = true
	report := newSanityReport(&buf)

	report.mismatch([]int{0}, []int{1}, []int{5}, 1, 5)
	err := report.finish(3)

	assert.True(t, errors.Is(err, errMismatches))
	assert.Contains(t, buf.String(), "query = [0]")
	assert.Contains(t, buf.String(), "total number of mismatches = 1 of 3")
}

func Test_UnknownDtypeAndSplitter(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "1\n")

	_, err := runApp(t, "build", "--dtype", "complex128", "--input", data)
	assert.True(t, errors.Is(err, errUnknownDtype))

	_, err = runApp(t, "build", "--splitter", "random", "--input", data, "--output", filepath.Join(dir, "t.txt"))
	assert.Error(t, err)
}
