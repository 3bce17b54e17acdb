package kdtree

import (
	"fmt"
	"math"

	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

// UninitializedAxis marks a hyperplane that does not split anything, as
// carried by leaves.
const UninitializedAxis uint = math.MaxUint - 1

// Hyperplane is an axis-aligned splitting plane. Points whose coordinate on
// Axis is less than Value lie on its left side, all others on its right.
type Hyperplane[T linalg.Number] struct {
	Axis  uint
	Value T
}

func NewHyperplane[T linalg.Number](axis uint, value T) Hyperplane[T] {
	return Hyperplane[T]{
		Axis:  axis,
		Value: value,
	}
}

func DefaultHyperplane[T linalg.Number]() Hyperplane[T] {
	return Hyperplane[T]{
		Axis: UninitializedAxis,
	}
}

func (h Hyperplane[T]) IsValid() bool {
	return h.Axis != UninitializedAxis
}

// Evaluate reports whether feature lies on the right side. feature must have
// more than h.Axis coordinates.
func (h Hyperplane[T]) Evaluate(feature []T) bool {
	return h.Value <= feature[h.Axis]
}

// Distance returns the distance from feature to the plane, which bounds the
// distance to any point on the other side.
func (h Hyperplane[T]) Distance(feature []T) (float64, error) {
	if uint(len(feature)) <= h.Axis {
		return linalg.InvalidDistance, errors.Wrapf(ErrCardinalityMismatch, "axis %d of %d-dimensional point", h.Axis, len(feature))
	}

	return math.Abs(float64(feature[h.Axis]) - float64(h.Value)), nil
}

func (h Hyperplane[T]) Equal(other Hyperplane[T]) bool {
	return h.Axis == other.Axis && h.Value == other.Value
}

func (h Hyperplane[T]) String() string {
	if !h.IsValid() {
		return "Hyperplane:[uninitialized]"
	}
	return fmt.Sprintf("Hyperplane:[axis = '%d', value = '%s']", h.Axis, FormatValue(h.Value))
}
