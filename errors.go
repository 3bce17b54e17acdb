package kdtree

import (
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

var (
	ErrCardinalityMismatch = linalg.ErrCardinalityMismatch
	ErrEmptyTree           = errors.New("empty tree")
	ErrEmptyIndex          = errors.New("empty index")
	ErrInvalidDimension    = errors.New("invalid dimension")
	ErrNonFiniteCoordinate = errors.New("non-finite coordinate")
	ErrInvariantViolation  = errors.New("tree invariant violated")
	ErrUnknownSplitter     = errors.New("unknown splitter")
	ErrDeserialization     = errors.New("malformed serialized tree")
	ErrSerializationIO     = errors.New("serialization io failure")
)
