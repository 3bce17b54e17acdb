package collection

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Partition(t *testing.T) {
	type TestCase struct {
		Name string
		Buf  []int
		Want uint
	}

	isRight := func(v int) bool { return 5 <= v }
	for _, tc := range []TestCase{
		{Name: "empty", Buf: []int{}, Want: 0},
		{Name: "all left", Buf: []int{1, 2, 3}, Want: 3},
		{Name: "all right", Buf: []int{5, 6, 7}, Want: 0},
		{Name: "single right", Buf: []int{9}, Want: 0},
		{Name: "single left", Buf: []int{0}, Want: 1},
		{Name: "mixed", Buf: []int{9, 1, 8, 2, 7, 3, 5}, Want: 3},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			mid := Partition(tc.Buf, isRight)
			assert.Equal(t, tc.Want, mid)
			for _, v := range tc.Buf[:mid] {
				assert.False(t, isRight(v))
			}
			for _, v := range tc.Buf[mid:] {
				assert.True(t, isRight(v))
			}
		})
	}
}

func Test_NthElement(t *testing.T) {
	type TestCase struct {
		Name string
		Buf  []float64
		N    int
		Want float64
	}

	for _, tc := range []TestCase{
		{Name: "single", Buf: []float64{4}, N: 0, Want: 4},
		{Name: "lower median", Buf: []float64{30, 12, 22, 19, 17}, N: 2, Want: 19},
		{Name: "even", Buf: []float64{6, -6, 6, -6}, N: 2, Want: 6},
		{Name: "duplicates", Buf: []float64{1, 1, 1, 1, 1}, N: 3, Want: 1},
		{Name: "first", Buf: []float64{3, 2, 1}, N: 0, Want: 1},
		{Name: "last", Buf: []float64{3, 2, 1}, N: 2, Want: 3},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, NthElement(tc.Buf, tc.N))
			for _, v := range tc.Buf[:tc.N] {
				assert.LessOrEqual(t, v, tc.Want)
			}
			for _, v := range tc.Buf[tc.N+1:] {
				assert.GreaterOrEqual(t, v, tc.Want)
			}
		})
	}
}

func Test_NthElementRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		buf := make([]int, 1+rng.Intn(64))
		for i := range buf {
			buf[i] = rng.Intn(16)
		}
		sorted := append([]int{}, buf...)
		sort.Ints(sorted)

		n := rng.Intn(len(buf))
		assert.Equal(t, sorted[n], NthElement(buf, n))
	}
}
