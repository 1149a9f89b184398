// Package chunk declares the collaborator interfaces the chunk-content
// traversal core (package chunkgraph) consumes: modules, references, chunk
// items and the chunking-context policy. These are the concrete Go shape
// of the capabilities.
//
// Implementations of Module must be comparable (typically backed by a
// pointer): the core uses them as map keys when deduping graph nodes.
package chunk

import "context"

// Module is an opaque handle to a build-graph module. Identity is by
// handle equality, so implementations should be pointer types.
type Module interface {
	// Ident returns a stable, human-readable identifier used only for
	// tracing.
	Ident(ctx context.Context) (string, error)
	// References returns the module's outgoing reference edges.
	References(ctx context.Context) ([]Reference, error)
}

// Reference is an opaque edge in the module reference graph. A Reference
// may additionally implement ChunkableReference; references that don't
// are routed straight to ExternalModuleReference.
type Reference interface{}

// ChunkingType classifies how a reference's destination is incorporated
// into the traversal.
type ChunkingType int

const (
	// Placed: destination MUST be emitted into the current chunk.
	// Failure to do so is fatal.
	Placed ChunkingType = iota
	// PlacedOrParallel is the default: co-locate when the chunking
	// context permits and the traversal isn't in split mode, otherwise
	// fall back to Parallel.
	PlacedOrParallel
	// Parallel: destination is a separate chunk loaded in parallel,
	// sharing the caller's availability.
	Parallel
	// IsolatedParallel: like Parallel, but the destination becomes a new
	// availability root.
	IsolatedParallel
	// Async: destination is reached through an async loader item; the
	// destination forms a new chunk group.
	Async
)

func (t ChunkingType) String() string {
	switch t {
	case Placed:
		return "Placed"
	case PlacedOrParallel:
		return "PlacedOrParallel"
	case Parallel:
		return "Parallel"
	case IsolatedParallel:
		return "IsolatedParallel"
	case Async:
		return "Async"
	default:
		return "Unknown"
	}
}

// ChunkableReference is the capability a Reference may implement to
// participate in chunking.
type ChunkableReference interface {
	Reference
	// ChunkingType reports the reference's chunking classification. The
	// second return is false when the reference carries the capability
	// but declines to classify (equivalent to the original's
	// Option<ChunkingType> == None), routing to ExternalModuleReference.
	ChunkingType(ctx context.Context) (ChunkingType, bool, error)
	// PrimaryModules resolves the reference to its concrete destination
	// modules, in the order the classifier should process them.
	PrimaryModules(ctx context.Context) ([]Module, error)
}

// BaseReference can be embedded by Reference implementations that want
// the default chunking type (PlacedOrParallel) without redefining
// ChunkingType themselves.
type BaseReference struct {
	Modules []Module
}

// ChunkingType implements the default: always PlacedOrParallel.
func (b BaseReference) ChunkingType(context.Context) (ChunkingType, bool, error) {
	return PlacedOrParallel, true, nil
}

// PrimaryModules returns the embedded destination list.
func (b BaseReference) PrimaryModules(context.Context) ([]Module, error) {
	return b.Modules, nil
}

// ChunkableModule is the capability a Module may implement to be turned
// into a ChunkItem.
type ChunkableModule interface {
	Module
	AsChunkItem(ctx context.Context, chunkingContext ChunkingContext) (ChunkItem, error)
}

// PassthroughModule is a module that is not emitted, but whose outgoing
// references are still followed. The marker method
// distinguishes it from an ordinary Module; it carries no state.
type PassthroughModule interface {
	Module
	PassthroughMarker()
}
