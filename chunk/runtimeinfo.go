package chunk

// OutputChunkRuntimeInfo is aggregated information about a chunk's content
// that the runtime loader can use to optimize chunk loading: which module
// ids it includes/excludes, and which chunks contain individual modules
// for selective loading. This is collaborator-visible bookkeeping the
// surrounding pipeline constructs from a ChunkContentResult; the
// traversal core never populates it itself (chunk formatting is out of
// scope). Supplemented from original turbopack-core
// chunk/mod.rs OutputChunkRuntimeInfo, lines 131-148.
type OutputChunkRuntimeInfo struct {
	IncludedIDs  []string
	ExcludedIDs  []string
	ModuleChunks []Chunk
}
