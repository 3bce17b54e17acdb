package kdtree

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

const (
	hyperplaneMarker = "HYPERPLANE"
	leafMarker       = "LEAF"
	emptyTreeMarker  = "EMPTY TREE"

	coordSeparator = ","
	maxLineSize    = 16 * 1024 * 1024
	preallocLimit  = 1 << 16
)

// Save writes the tree in its line oriented text form: the point count,
// one comma separated point per line, then every node in preorder as a
// marker line followed by its payload ("axis value" for a hyperplane, the
// point index for a leaf). An empty tree is written as "0" and "EMPTY TREE".
func (t *Tree[T]) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", t.Len())
	for _, p := range t.points {
		bw.WriteString(formatPoint(p))
		bw.WriteByte('\n')
	}

	if t.IsEmpty() {
		bw.WriteString(emptyTreeMarker + "\n")
	}
	t.Walk(func(_ uint, node Node[T], _ uint) {
		if node.IsLeaf() {
			fmt.Fprintf(bw, "%s\n%d\n", leafMarker, node.Index)
			return
		}
		fmt.Fprintf(bw, "%s\n%d %s\n", hyperplaneMarker, node.Hyperplane.Axis, FormatValue(node.Hyperplane.Value))
	})

	if err := bw.Flush(); err != nil {
		return errors.Mark(errors.Wrap(err, "write tree"), ErrSerializationIO)
	}
	return nil
}

// Load reads a tree written by Save. The tree uses the default splitter.
func Load[T linalg.Number](r io.Reader) (*Tree[T], error) {
	return NewTreeBuilder[T]().Load(r)
}

// Load reads a tree written by Save and attaches this builder's splitter and
// logger to it. The stored structure is kept as is and validated.
func (tb *TreeBuilder[T]) Load(r io.Reader) (*Tree[T], error) {
	lr := newLineReader(r)

	tree, err := readTree(lr, tb)
	if err != nil {
		return nil, errors.Mark(err, ErrDeserialization)
	}
	if err := tree.Validate(); err != nil {
		return nil, errors.Mark(err, ErrDeserialization)
	}

	return tree, nil
}

type lineReader struct {
	scanner *bufio.Scanner
	lineNo  int
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineReader{scanner: scanner}
}

func (lr *lineReader) next() (string, error) {
	if !lr.scanner.Scan() {
		if err := lr.scanner.Err(); err != nil {
			return "", errors.Wrapf(err, "line %d", lr.lineNo+1)
		}
		return "", errors.Newf("line %d: unexpected end of input", lr.lineNo+1)
	}
	lr.lineNo++

	return strings.TrimSpace(lr.scanner.Text()), nil
}

func (lr *lineReader) errorf(format string, args ...interface{}) error {
	return errors.Newf("line %d: %s", lr.lineNo, fmt.Sprintf(format, args...))
}

func readTree[T linalg.Number](lr *lineReader, tb *TreeBuilder[T]) (*Tree[T], error) {
	line, err := lr.next()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseUint(line, 10, 0)
	if err != nil {
		return nil, lr.errorf("bad point count %q", line)
	}

	points := make([][]T, 0, min(n, preallocLimit))
	for i := uint64(0); i < n; i++ {
		line, err := lr.next()
		if err != nil {
			return nil, err
		}
		point, err := parsePoint[T](line)
		if err != nil {
			return nil, lr.errorf("point %d: %v", i, err)
		}
		if 0 < len(points) && len(point) != len(points[0]) {
			return nil, lr.errorf("point %d has %d coordinates, expected %d", i, len(point), len(points[0]))
		}
		points = append(points, point)
	}

	tree := tb.newTree(points)
	if n == 0 {
		line, err := lr.next()
		if err != nil {
			return nil, err
		}
		if line != emptyTreeMarker {
			return nil, lr.errorf("expected %q, got %q", emptyTreeMarker, line)
		}
	} else {
		tree.nodes = make([]Node[T], 0, 2*len(points)-1)
		if _, err := readNode(lr, tree, 2*len(points)-1); err != nil {
			return nil, err
		}
	}

	for lr.scanner.Scan() {
		lr.lineNo++
		if strings.TrimSpace(lr.scanner.Text()) != "" {
			return nil, lr.errorf("unexpected trailing content")
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "line %d", lr.lineNo+1)
	}

	return tree, nil
}

func readNode[T linalg.Number](lr *lineReader, tree *Tree[T], limit int) (uint, error) {
	if limit <= len(tree.nodes) {
		return 0, lr.errorf("more than %d nodes", limit)
	}

	marker, err := lr.next()
	if err != nil {
		return 0, err
	}
	if marker != leafMarker && marker != hyperplaneMarker {
		return 0, lr.errorf("unknown marker %q", marker)
	}
	payload, err := lr.next()
	if err != nil {
		return 0, err
	}

	if marker == leafMarker {
		index, err := strconv.ParseUint(payload, 10, 0)
		if err != nil {
			return 0, lr.errorf("bad leaf index %q", payload)
		}
		return tree.addNode(newLeaf[T](uint(index))), nil
	}

	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return 0, lr.errorf("bad hyperplane %q", payload)
	}
	axis, err := strconv.ParseUint(fields[0], 10, 0)
	if err != nil {
		return 0, lr.errorf("bad hyperplane axis %q", fields[0])
	}
	value, err := ParseValue[T](fields[1])
	if err != nil {
		return 0, lr.errorf("bad hyperplane value %q", fields[1])
	}

	id := tree.addNode(Node[T]{Hyperplane: NewHyperplane(uint(axis), value)})
	left, err := readNode(lr, tree, limit)
	if err != nil {
		return 0, err
	}
	right, err := readNode(lr, tree, limit)
	if err != nil {
		return 0, err
	}
	tree.nodes[id].Left = left
	tree.nodes[id].Right = right
	return id, nil
}

func formatPoint[T linalg.Number](point []T) string {
	coords := make([]string, len(point))
	for i, v := range point {
		coords[i] = FormatValue(v)
	}
	return strings.Join(coords, coordSeparator)
}

func parsePoint[T linalg.Number](line string) ([]T, error) {
	if line == "" {
		return nil, errors.Wrap(ErrInvalidDimension, "empty point")
	}

	fields := strings.Split(line, coordSeparator)
	point := make([]T, len(fields))
	for i, f := range fields {
		v, err := ParseValue[T](strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		point[i] = v
	}
	return point, nil
}

// FormatValue writes v with the fewest digits that parse back to the same
// value of type T.
func FormatValue[T linalg.Number](v T) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	default:
		return strconv.FormatInt(rv.Int(), 10)
	}
}

// ParseValue is the inverse of FormatValue.
func ParseValue[T linalg.Number](s string) (T, error) {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return v, errors.Wrapf(err, "parse %q", s)
		}
		rv.SetFloat(f)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, rv.Type().Bits())
		if err != nil {
			return v, errors.Wrapf(err, "parse %q", s)
		}
		rv.SetUint(u)
	default:
		i, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return v, errors.Wrapf(err, "parse %q", s)
		}
		rv.SetInt(i)
	}
	return v, nil
}
