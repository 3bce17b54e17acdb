package kdtree

import (
	"math"

	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	MedianSplitterName     = "Simple KDTree Implementation"
	VarianceSplitterName   = "Variance KDTree"
	RoundRobinSplitterName = "Round Robin KDTree"
)

var (
	_ Splitter[float32] = (*MedianSplitter[float32])(nil)
	_ Splitter[float32] = (*VarianceSplitter[float32])(nil)
	_ Splitter[float32] = (*RoundRobinSplitter[float32])(nil)
)

// Splitter chooses the hyperplane that divides the referenced features.
// indice holds at least two entries and depth is the distance from the root.
// Name identifies the heuristic and takes part in tree equality.
type Splitter[T linalg.Number] interface {
	Name() string
	Split(features [][]T, indice []int, depth uint) (Hyperplane[T], error)
}

// MedianSplitter cuts the axis with the widest range at its lower median.
type MedianSplitter[T linalg.Number] struct{}

func NewMedianSplitter[T linalg.Number]() *MedianSplitter[T] {
	return &MedianSplitter[T]{}
}

func (s MedianSplitter[T]) Name() string {
	return MedianSplitterName
}

func (s MedianSplitter[T]) Split(features [][]T, indice []int, depth uint) (Hyperplane[T], error) {
	axis, ok := linalg.AxisOfHighestVariance(features, indice)
	if !ok {
		return DefaultHyperplane[T](), errors.New("elements is empty")
	}

	return medianSplit(features, indice, axis)
}

// VarianceSplitter cuts the axis with the largest sample variance at its
// lower median.
type VarianceSplitter[T linalg.Number] struct{}

func NewVarianceSplitter[T linalg.Number]() *VarianceSplitter[T] {
	return &VarianceSplitter[T]{}
}

func (s VarianceSplitter[T]) Name() string {
	return VarianceSplitterName
}

func (s VarianceSplitter[T]) Split(features [][]T, indice []int, depth uint) (Hyperplane[T], error) {
	if len(indice) == 0 {
		return DefaultHyperplane[T](), errors.New("elements is empty")
	}

	dim := len(features[indice[0]])
	values := make([]float64, len(indice))
	axis := uint(0)
	maxVariance := math.Inf(-1)
	for j := 0; j < dim; j++ {
		for k, i := range indice {
			values[k] = float64(features[i][j])
		}
		if variance := stat.Variance(values, nil); maxVariance < variance {
			maxVariance = variance
			axis = uint(j)
		}
	}

	return medianSplit(features, indice, axis)
}

// RoundRobinSplitter cycles through the axes by depth and cuts at the lower
// median.
type RoundRobinSplitter[T linalg.Number] struct{}

func NewRoundRobinSplitter[T linalg.Number]() *RoundRobinSplitter[T] {
	return &RoundRobinSplitter[T]{}
}

func (s RoundRobinSplitter[T]) Name() string {
	return RoundRobinSplitterName
}

func (s RoundRobinSplitter[T]) Split(features [][]T, indice []int, depth uint) (Hyperplane[T], error) {
	if len(indice) == 0 {
		return DefaultHyperplane[T](), errors.New("elements is empty")
	}

	dim := uint(len(features[indice[0]]))
	return medianSplit(features, indice, depth%dim)
}

func medianSplit[T linalg.Number](features [][]T, indice []int, axis uint) (Hyperplane[T], error) {
	value, ok := linalg.MedianValueInAxis(features, indice, axis)
	if !ok {
		return DefaultHyperplane[T](), errors.Wrapf(ErrCardinalityMismatch, "no median on axis %d", axis)
	}

	return NewHyperplane(axis, value), nil
}

// SplitterByName resolves the short names used in configuration files.
func SplitterByName[T linalg.Number](name string) (Splitter[T], error) {
	switch name {
	case "", "median":
		return NewMedianSplitter[T](), nil
	case "variance":
		return NewVarianceSplitter[T](), nil
	case "round-robin":
		return NewRoundRobinSplitter[T](), nil
	default:
		return nil, errors.Wrapf(ErrUnknownSplitter, "%q", name)
	}
}
