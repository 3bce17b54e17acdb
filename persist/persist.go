// Package persist stores trees in files, optionally compressed.
package persist

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression int

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionFromPath picks the compression by file extension: ".zst" for
// zstd, ".lz4" for lz4, anything else is plain text.
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewWriter wraps w so that everything written is compressed with c. The
// returned writer must be closed to flush the compressed stream; closing it
// does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, "create zstd encoder")
		}
		return enc, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// NewReader wraps r so that reads return the data decompressed with c.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "create zstd decoder")
		}
		return zstdReadCloser{dec}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// SaveFile writes tree to path. The file is written next to its destination
// and renamed into place, so readers never observe a partial tree.
func SaveFile[T linalg.Number](path string, tree *kdtree.Tree[T]) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "create %s", path), kdtree.ErrSerializationIO)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	w, err := NewWriter(f, CompressionFromPath(path))
	if err != nil {
		return errors.Mark(err, kdtree.ErrSerializationIO)
	}
	if err := tree.Save(w); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	if err := w.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "flush %s", path), kdtree.ErrSerializationIO)
	}
	if err := f.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "close %s", path), kdtree.ErrSerializationIO)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return errors.Mark(errors.Wrapf(err, "rename to %s", path), kdtree.ErrSerializationIO)
	}

	return nil
}

// LoadFile reads a tree from path using builder's splitter and logger.
func LoadFile[T linalg.Number](path string, builder *kdtree.TreeBuilder[T]) (*kdtree.Tree[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open %s", path), kdtree.ErrSerializationIO)
	}
	defer f.Close()

	r, err := NewReader(f, CompressionFromPath(path))
	if err != nil {
		return nil, errors.Mark(err, kdtree.ErrSerializationIO)
	}
	defer r.Close()

	tree, err := builder.Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	return tree, nil
}
