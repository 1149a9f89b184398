package chunkgraph

import "github.com/chunkforge/core/chunk"

// collect implements Component C: order visited nodes in
// reverse-topological order (leaves first, entry last) and partition them
// into the result buckets.
//
// The order is produced by a post-order walk of the adjacency map
// recorded during traversal, iterating each node's children in insertion
// (discovery) order so the result is deterministic across runs, and a
// post-order walk is exactly "leaves first, entry last" by construction.
func collect(t *traversal) *Result {
	order := reverseTopological(t.roots, t.children)

	result := &Result{
		AvailabilityInfo: t.tc.availability,
	}
	for _, idx := range order {
		n := t.nodes[idx]
		switch n.kind {
		case nodeChunkItem:
			result.ChunkItems = append(result.ChunkItems, n.item)
		case nodeChunk:
			result.Chunks = append(result.Chunks, n.handle)
		case nodeExternal:
			result.ExternalReferences = append(result.ExternalReferences, n.reference)
		case nodePassthrough, nodeAvailableAsset:
			// discarded: passthrough modules are never emitted, and an
			// available asset is terminal by definition.
		}
	}
	return result
}

// reverseTopological performs an iterative post-order DFS over the
// recorded adjacency map, starting from roots and visiting children in
// insertion order. Each node index is visited (and appended) exactly
// once, even though it may be reachable from multiple parents via a
// Skip-linked edge.
func reverseTopological(roots []int, children [][]int) []int {
	visited := make([]bool, len(children))
	order := make([]int, 0, len(children))

	// Explicit stack to avoid recursion depth limits on deep reference
	// chains. Each stack frame tracks how far we've gotten through its
	// children list.
	type frame struct {
		idx      int
		childPos int
	}
	var stack []frame

	pushRoot := func(root int) {
		if visited[root] {
			return
		}
		visited[root] = true
		stack = append(stack, frame{idx: root})
	}

	for _, root := range roots {
		pushRoot(root)
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.idx]
			if top.childPos < len(kids) {
				c := kids[top.childPos]
				top.childPos++
				if !visited[c] {
					visited[c] = true
					stack = append(stack, frame{idx: c})
				}
				continue
			}
			order = append(order, top.idx)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}

// Result is the chunk-content aggregate returned to the caller.
type Result struct {
	ChunkItems         []chunk.ChunkItem
	Chunks             []chunk.Chunk
	ExternalReferences []chunk.Reference
	AvailabilityInfo   chunk.AvailabilityInfo
}
