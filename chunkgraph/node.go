package chunkgraph

import "github.com/chunkforge/core/chunk"

// nodeKind discriminates ChunkContentGraphNode.
type nodeKind int

const (
	nodePassthrough nodeKind = iota
	nodeChunkItem
	nodeAvailableAsset
	nodeChunk
	nodeExternal
)

// graphNode is the visitor's internal node type. Exactly one of the payload fields is
// meaningful, selected by kind.
type graphNode struct {
	kind nodeKind

	// nodePassthrough, nodeAvailableAsset
	module chunk.Module

	// nodeChunkItem
	item  chunk.ChunkItem
	ident string

	// nodeChunk
	handle chunk.Chunk

	// nodeExternal
	reference chunk.Reference
}

// dedupeKey is the (module, chunking_type) pair that makes invariant 1
// hold: no module appears twice in chunk_items with the same
// ChunkingType.
type dedupeKey struct {
	module chunk.Module
	ctype  chunk.ChunkingType
}

// edge pairs an optional dedupe key with the graph node it resolves to.
// A nil key means "always Continue" (the visitor's first rule).
type edge struct {
	key  *dedupeKey
	node graphNode
}

func passthroughEdge(m chunk.Module) edge {
	return edge{node: graphNode{kind: nodePassthrough, module: m}}
}

func chunkItemEdge(key dedupeKey, item chunk.ChunkItem, ident string) edge {
	k := key
	return edge{key: &k, node: graphNode{kind: nodeChunkItem, item: item, ident: ident}}
}

func availableAssetEdge(key dedupeKey, m chunk.Module) edge {
	k := key
	return edge{key: &k, node: graphNode{kind: nodeAvailableAsset, module: m}}
}

func chunkEdge(key dedupeKey, c chunk.Chunk) edge {
	k := key
	return edge{key: &k, node: graphNode{kind: nodeChunk, handle: c}}
}

func externalEdge(ref chunk.Reference) edge {
	return edge{node: graphNode{kind: nodeExternal, reference: ref}}
}
