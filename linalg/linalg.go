package linalg

import (
	"math"

	"github.com/ar90n/kdtree/collection"
	"github.com/cockroachdb/errors"
)

const (
	// InvalidDistance is returned alongside ErrCardinalityMismatch.
	InvalidDistance = -1.0

	// EmptySetVariance is the axis reported for an empty point set.
	EmptySetVariance uint = 0

	// EmptySetMedian is the median reported for an empty point set or an
	// axis out of range.
	EmptySetMedian = 0
)

var ErrCardinalityMismatch = errors.New("cardinality mismatch")

type MinMax[T Number] struct {
	Min T
	Max T
}

func (mm MinMax[T]) Spread() float64 {
	return float64(mm.Max) - float64(mm.Min)
}

// Distance returns the Euclidean distance between x and y.
func Distance[T Number](x, y []T) (float64, error) {
	if len(x) != len(y) {
		return InvalidDistance, errors.Wrapf(ErrCardinalityMismatch, "%d != %d", len(x), len(y))
	}

	return math.Sqrt(SqL2(x, y)), nil
}

// SqL2 assumes x and y have the same length.
func SqL2[T Number](x, y []T) float64 {
	dist := 0.0
	for i := range x {
		diff := float64(x[i]) - float64(y[i])
		dist += diff * diff
	}

	return dist
}

// MinMaxPerAxis returns the bounds of the referenced features on every axis.
// The dimensionality is taken from the first referenced feature.
func MinMaxPerAxis[T Number](features [][]T, indice []int) []MinMax[T] {
	if len(indice) == 0 {
		return []MinMax[T]{}
	}

	first := features[indice[0]]
	ret := make([]MinMax[T], len(first))
	for j, v := range first {
		ret[j] = MinMax[T]{Min: v, Max: v}
	}
	for _, i := range indice[1:] {
		for j, v := range features[i] {
			ret[j].Min = Min(ret[j].Min, v)
			ret[j].Max = Max(ret[j].Max, v)
		}
	}

	return ret
}

// AxisOfHighestVariance returns the axis whose values spread the most. Ties
// go to the lowest axis. The second result is false for an empty set.
func AxisOfHighestVariance[T Number](features [][]T, indice []int) (uint, bool) {
	if len(indice) == 0 {
		return EmptySetVariance, false
	}

	return AxisOfHighestSpread(MinMaxPerAxis(features, indice)), true
}

func AxisOfHighestSpread[T Number](bounds []MinMax[T]) uint {
	axis := uint(0)
	maxSpread := math.Inf(-1)
	for i, mm := range bounds {
		if spread := mm.Spread(); maxSpread < spread {
			maxSpread = spread
			axis = uint(i)
		}
	}

	return axis
}

// MedianValueInAxis returns the lower median (the n/2-th smallest value,
// 0-indexed) of the referenced features on axis. The second result is false
// when the set is empty or axis is out of range.
func MedianValueInAxis[T Number](features [][]T, indice []int, axis uint) (T, bool) {
	if len(indice) == 0 {
		return EmptySetMedian, false
	}

	values := make([]T, len(indice))
	for k, i := range indice {
		if uint(len(features[i])) <= axis {
			return EmptySetMedian, false
		}
		values[k] = features[i][axis]
	}

	return collection.NthElement(values, len(values)/2), true
}
