package collection

import "golang.org/x/exp/constraints"

// Partition reorders buf so that elements not satisfying predicate come
// first. It returns the number of those elements.
func Partition[T any](buf []T, predicate func(T) bool) uint {
	i, j := 0, len(buf)-1
	for i <= j {
		for i <= j && !predicate(buf[i]) {
			i++
		}
		for i <= j && predicate(buf[j]) {
			j--
		}
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}
	return uint(i)
}

// NthElement rearranges buf so that buf[n] holds the value it would have if
// buf were sorted, and returns it. Elements before n are not greater and
// elements after n are not smaller. n must be in [0, len(buf)).
func NthElement[T constraints.Ordered](buf []T, n int) T {
	lo, hi := 0, len(buf)-1
	for lo < hi {
		pivot := buf[medianOfThree(buf, lo, hi)]

		// [lo, lt) < pivot, [lt, gt] == pivot, (gt, hi] > pivot
		lt, i, gt := lo, lo, hi
		for i <= gt {
			switch {
			case buf[i] < pivot:
				buf[lt], buf[i] = buf[i], buf[lt]
				lt++
				i++
			case pivot < buf[i]:
				buf[i], buf[gt] = buf[gt], buf[i]
				gt--
			default:
				i++
			}
		}

		switch {
		case n < lt:
			hi = lt - 1
		case gt < n:
			lo = gt + 1
		default:
			return buf[n]
		}
	}

	return buf[n]
}

func medianOfThree[T constraints.Ordered](buf []T, lo, hi int) int {
	mid := lo + (hi-lo)/2
	a, b, c := buf[lo], buf[mid], buf[hi]
	switch {
	case (a <= b && b <= c) || (c <= b && b <= a):
		return mid
	case (b <= a && a <= c) || (c <= a && a <= b):
		return lo
	default:
		return hi
	}
}
