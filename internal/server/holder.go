package server

import (
	"sync"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/linalg"
)

// Holder owns the served tree. Queries take the read lock only while
// fetching the pointer; trees are immutable, so a swapped out tree stays
// valid for queries already running on it.
type Holder[T linalg.Number] struct {
	mu   sync.RWMutex
	tree *kdtree.Tree[T]
}

func NewHolder[T linalg.Number](tree *kdtree.Tree[T]) *Holder[T] {
	return &Holder[T]{tree: tree}
}

func (h *Holder[T]) Get() *kdtree.Tree[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.tree
}

// Swap installs tree and returns the previous one.
func (h *Holder[T]) Swap(tree *kdtree.Tree[T]) *kdtree.Tree[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.tree
	h.tree = tree
	return old
}
