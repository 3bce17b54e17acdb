package main

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/ar90n/kdtree"
)

func main() {
	dim := 64
	r := rand.New(rand.NewSource(0))

	points := make([][]uint8, 4096)
	for i := range points {
		points[i] = make([]uint8, dim)
		for j := range points[i] {
			points[i][j] = uint8(r.Intn(256))
		}
	}

	tree, err := kdtree.NewTreeBuilder[uint8]().
		SetSplitter(kdtree.NewVarianceSplitter[uint8]()).
		Build(points)
	if err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	if err := tree.Save(&buf); err != nil {
		panic(err)
	}

	tree2, err := kdtree.NewTreeBuilder[uint8]().
		SetSplitter(kdtree.NewVarianceSplitter[uint8]()).
		Load(&buf)
	if err != nil {
		panic(err)
	}

	query := []uint8{
		177, 73, 110, 135, 85, 153, 143, 73, 210, 208, 148, 50, 39, 165, 51, 201, 47, 102, 198, 55, 192, 42, 89, 189, 104, 86, 183, 162, 60, 145, 122, 104, 133, 200, 167, 51, 147, 167, 191, 220, 85, 75, 57, 72, 43, 150, 155, 53, 163, 171, 106, 115, 99, 78, 88, 48, 81, 214, 114, 126, 196, 214, 220, 75,
	}
	result, err := tree2.Search(query)
	if err != nil {
		panic(err)
	}

	fmt.Printf("equal after reload: %v\n", tree.Equal(tree2))
	fmt.Printf("nearest: %d, %f (visited %d of %d nodes, pruned %d)\n",
		result.Index, result.Distance, result.Visited, tree2.NodeCount(), result.Pruned)
}
