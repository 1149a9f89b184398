package chunkgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// reverseTopological must visit each node exactly once in post-order, even
// when it is reachable from multiple parents (diamond shape), and the
// result must be deterministic given insertion-order children lists.
func TestReverseTopological_Diamond(t *testing.T) {
	// 0 (root) -> 1, 2; 1 -> 3; 2 -> 3.
	children := [][]int{
		{1, 2},
		{3},
		{3},
		{},
	}
	roots := []int{0}

	order := reverseTopological(roots, children)
	require.Equal(t, []int{3, 1, 2, 0}, order)
}

func TestReverseTopological_MultipleRoots(t *testing.T) {
	// two independent root chains: 0 -> 1, and 2 (leaf).
	children := [][]int{
		{1},
		{},
		{},
	}
	roots := []int{0, 2}

	order := reverseTopological(roots, children)
	require.Equal(t, []int{1, 0, 2}, order)
}

func TestReverseTopological_LinearChain(t *testing.T) {
	// E(0) -> A(1) -> B(2): post-order must put leaves first.
	children := [][]int{
		{1},
		{2},
		{},
	}
	order := reverseTopological([]int{0}, children)
	require.Equal(t, []int{2, 1, 0}, order)
}
