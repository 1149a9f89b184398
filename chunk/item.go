package chunk

import (
	"context"

	"github.com/chunkforge/core/chunkid"
)

// ChunkItem is a bundler-internal representation of a module formatted
// for inclusion in a specific chunk type.
type ChunkItem interface {
	// AssetIdent identifies the source module; for most chunk types this
	// must uniquely identify the asset since it seeds the runtime module
	// id (original turbopack-core chunk/mod.rs ChunkItem::asset_ident).
	AssetIdent(ctx context.Context) (string, error)
	// References returns this item's own reference list, which may
	// differ from its source module's.
	References(ctx context.Context) ([]Reference, error)
	// Type returns the ChunkType this item should be assembled into.
	Type(ctx context.Context) (ChunkType, error)
	// Module returns the module this item was created from.
	Module() Module
	// ChunkingContext returns the policy object this item was built
	// against.
	ChunkingContext() ChunkingContext
}

// Chunk is one output asset produced by the bundler, containing a set of
// chunk items. The traversal core treats Chunk as an
// opaque handle: it never calls methods on a Chunk value, only carries it
// through to the result's Chunks bucket. The method below exists for
// collaborator completeness (original turbopack-core chunk/mod.rs Chunk
// trait, lines 108-129).
type Chunk interface {
	Ident(ctx context.Context) (string, error)
}

// ChunkWithParallelLoads is an optional capability a Chunk may implement
// to report sibling chunks that should load in parallel with it. An
// implementation with nothing to report can omit this capability
// entirely, or call EmptyChunks() explicitly; both read the same to
// callers.
type ChunkWithParallelLoads interface {
	Chunk
	ParallelChunks(ctx context.Context) ([]Chunk, error)
}

// EmptyChunks is the zero value for ChunkWithParallelLoads.ParallelChunks,
// mirroring the original's Chunks::empty() default.
func EmptyChunks() []Chunk { return nil }

// ChunkType assembles a concrete Chunk for a subgraph rooted at a given
// chunk item.
type ChunkType interface {
	AsChunk(ctx context.Context, item ChunkItem, availabilityInfo AvailabilityInfo) (Chunk, error)
}

// ChunkingContext is the caller-owned policy object the core queries
// read-only; it may be queried concurrently.
type ChunkingContext interface {
	// CanBeInSameChunk implements the PlacedOrParallel heuristic.
	CanBeInSameChunk(ctx context.Context, entry, candidate Module) (bool, error)
	// ChunkItemID assigns a runtime module id to a chunk item.
	ChunkItemID(ctx context.Context, item ChunkItem) (chunkid.ModuleId, error)
}

// ItemFactory builds ChunkItems for modules, generic over the chunk kind
// (script, stylesheet, ...). Different chunk kinds instantiate the same
// chunkgraph algorithm with different factories.
type ItemFactory interface {
	// FromAsset builds a chunk item for m. A nil ChunkItem with a nil
	// error means the factory declined — not an error except under
	// ChunkingType Placed.
	FromAsset(ctx context.Context, chunkingContext ChunkingContext, m Module) (ChunkItem, error)
	// FromAsyncAsset builds a loader item for an async boundary. A nil
	// ChunkItem with a nil error routes the reference to external.
	FromAsyncAsset(ctx context.Context, chunkingContext ChunkingContext, m ChunkableModule, availabilityInfo AvailabilityInfo) (ChunkItem, error)
}

// ItemID returns the runtime module id of a chunk item, delegating to its
// chunking context (original turbopack-core ChunkItemExt::id, chunk/mod.rs
// lines 656-670 — Go has no default trait methods, so this is a plain
// package function instead of an interface default).
func ItemID(ctx context.Context, cc ChunkingContext, item ChunkItem) (chunkid.ModuleId, error) {
	return cc.ChunkItemID(ctx, item)
}
