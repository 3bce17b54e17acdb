// Package csvpoints reads points from and writes answers to CSV files.
package csvpoints

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

// ReadPoints reads one point per record. Every record must have the same
// number of fields.
func ReadPoints[T linalg.Number](r io.Reader) ([][]T, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	ret := make([][]T, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, errors.Mark(errors.Wrap(err, "read points"), kdtree.ErrCardinalityMismatch)
		}
		if err != nil {
			return nil, errors.Wrap(err, "read points")
		}

		point := make([]T, len(record))
		for i, text := range record {
			v, err := kdtree.ParseValue[T](strings.TrimSpace(text))
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, errors.Wrapf(err, "line %d field %d", line, i+1)
			}
			point[i] = v
		}
		ret = append(ret, point)
	}

	return ret, nil
}

func ReadPointsFile[T linalg.Number](path string) ([][]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	return ReadPoints[T](bufio.NewReader(f))
}

// WriteIndices writes one index per line.
func WriteIndices(w io.Writer, indices []int) error {
	bw := bufio.NewWriter(w)
	for _, idx := range indices {
		bw.WriteString(strconv.Itoa(idx))
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write indices")
}

func WriteIndicesFile(path string, indices []int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := WriteIndices(f, indices); err != nil {
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
