package chunkgraph

import "errors"

// ErrPlacementFailed is the fatal invariant violation: a Placed reference
// to a module for which the item factory declined.
var ErrPlacementFailed = errors.New("chunkgraph: module was required to be placed in the current chunk but the item factory declined")

// ErrChunkOverflow is the internal signal backing the size-overflow
// result: a non-split traversal reached MaxChunkItems. ChunkContent
// never returns this error to its caller: it translates the abort into
// a (nil, nil) result, per the Split-Retry Driver's two-phase contract.
var ErrChunkOverflow = errors.New("chunkgraph: chunk item count reached the configured limit")
