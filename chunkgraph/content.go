// Package chunkgraph implements the chunk-content graph traversal and
// classification algorithm: given an entry module and a
// graph of module references, it determines which modules are emitted
// together as a single output chunk, which are split into parallel
// sibling chunks, which are deferred behind an async loader, and which
// are external references.
package chunkgraph

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/chunkforge/core/chunk"
	"github.com/chunkforge/core/internal/chunklog"
)

// MaxChunkItemsCount is the default size cap.
const MaxChunkItemsCount = 5000

// Limits tunes the split-retry driver. The zero value is invalid; use
// DefaultLimits.
type Limits struct {
	// MaxChunkItems bounds the number of ChunkItem nodes a non-split
	// traversal may emit before aborting.
	MaxChunkItems int
}

// DefaultLimits returns the spec-mandated default limits.
func DefaultLimits() Limits {
	return Limits{MaxChunkItems: MaxChunkItemsCount}
}

var tracer = otel.Tracer("github.com/chunkforge/core/chunkgraph")

// ChunkContent is the non-split entry point. It returns
// (nil, nil) iff the traversal aborted due to the size cap — the caller
// is expected to retry with ChunkContentSplit. Any other error is a fatal
// invariant violation or a propagated collaborator error.
func ChunkContent(
	ctx context.Context,
	chunkingContext chunk.ChunkingContext,
	factory chunk.ItemFactory,
	entry chunk.Module,
	additionalEntries []chunk.Module,
	availabilityInfo chunk.AvailabilityInfo,
	opts ...Option,
) (*Result, error) {
	return chunkContentInternal(ctx, chunkingContext, factory, entry, additionalEntries, availabilityInfo, false, opts...)
}

// ChunkContentSplit is the split entry point. The size cap
// is not enforced: the traversal cannot abort on size.
func ChunkContentSplit(
	ctx context.Context,
	chunkingContext chunk.ChunkingContext,
	factory chunk.ItemFactory,
	entry chunk.Module,
	additionalEntries []chunk.Module,
	availabilityInfo chunk.AvailabilityInfo,
	opts ...Option,
) (*Result, error) {
	result, err := chunkContentInternal(ctx, chunkingContext, factory, entry, additionalEntries, availabilityInfo, true, opts...)
	if err != nil {
		return nil, err
	}
	if result == nil {
		// Cannot happen: split traversals never abort on size. A nil
		// result here would mean the visitor aborted for some other
		// reason, which is a bug in this package.
		return nil, fmt.Errorf("chunkgraph: split traversal unexpectedly aborted")
	}
	return result, nil
}

// ChunkContentAuto implements the standard two-phase orchestration
// pattern the Split-Retry Driver mandates callers follow: try ChunkContent
// first; if it reports overflow, retry with ChunkContentSplit. This lives
// outside chunkContentInternal on purpose — it is convenience for callers
// that don't need the nil signal for their own decisions.
func ChunkContentAuto(
	ctx context.Context,
	chunkingContext chunk.ChunkingContext,
	factory chunk.ItemFactory,
	entry chunk.Module,
	additionalEntries []chunk.Module,
	availabilityInfo chunk.AvailabilityInfo,
	opts ...Option,
) (*Result, error) {
	result, err := ChunkContent(ctx, chunkingContext, factory, entry, additionalEntries, availabilityInfo, opts...)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	cfg := buildConfig(opts...)
	cfg.metrics.RecordSplitRetry()
	cfg.log.Debug("chunk content overflowed, retrying with splitting forced")
	return ChunkContentSplit(ctx, chunkingContext, factory, entry, additionalEntries, availabilityInfo, opts...)
}

// Option configures a ChunkContent/ChunkContentSplit call.
type Option func(*config)

type config struct {
	limits  Limits
	metrics Metrics
	log     *zap.Logger
}

// WithLimits overrides the default MaxChunkItems cap.
func WithLimits(l Limits) Option {
	return func(c *config) { c.limits = l }
}

// WithMetrics wires an instrumentation backend.
func WithMetrics(m Metrics) Option {
	return func(c *config) { c.metrics = orNop(m) }
}

// WithLogger wires a logger for traversal progress and traversal failures,
// following the same severities the teacher's block builder uses for
// analogous build failures (Debug for progress and expected retries, Warn
// for a traversal that fails with an error).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.log = chunklog.OrNop(l) }
}

func buildConfig(opts ...Option) config {
	cfg := config{limits: DefaultLimits(), metrics: NopMetrics{}, log: chunklog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// chunkContentInternal builds root edges, runs the visitor, and on
// completion runs the collector.
func chunkContentInternal(
	ctx context.Context,
	chunkingContext chunk.ChunkingContext,
	factory chunk.ItemFactory,
	entry chunk.Module,
	additionalEntries []chunk.Module,
	availabilityInfo chunk.AvailabilityInfo,
	split bool,
	opts ...Option,
) (*Result, error) {
	ctx, span := tracer.Start(ctx, "chunkgraph.ChunkContent")
	defer span.End()
	span.SetAttributes(attribute.Bool("split", split))

	cfg := buildConfig(opts...)

	tc := &traverseContext{
		chunkingContext: chunkingContext,
		factory:         factory,
		entry:           entry,
		availability:    availabilityInfo,
		split:           split,
	}

	// Build root edges: entry plus each additional entry, each Placed
	// with its item pre-built via from_asset. A root entry for which the
	// factory declines is a programming error — the caller guarantees
	// entries are chunkable-with-item.
	//
	// If additionalEntries contains entry itself, it is inserted twice
	// here and later deduped by the visitor's processed-assets check.
	roots := make([]chunk.Module, 0, 1+len(additionalEntries))
	roots = append(roots, entry)
	roots = append(roots, additionalEntries...)

	rootEdges := make([]edge, len(roots))
	for i, m := range roots {
		item, err := factory.FromAsset(ctx, chunkingContext, m)
		if err != nil {
			return nil, err
		}
		if item == nil {
			ident, _ := m.Ident(ctx)
			return nil, fmt.Errorf("chunkgraph: entry module %s has no chunk item; entries must be chunkable-with-item", ident)
		}
		ident, err := m.Ident(ctx)
		if err != nil {
			return nil, err
		}
		rootEdges[i] = chunkItemEdge(dedupeKey{m, chunk.Placed}, item, ident)
	}

	trav := newTraversal(tc, cfg.limits, cfg.metrics)
	aborted, err := trav.run(ctx, rootEdges)
	if err != nil {
		cfg.log.Warn("chunk content classification failed", zap.Error(err))
		return nil, err
	}
	if aborted {
		span.SetAttributes(attribute.Bool("aborted", true))
		cfg.log.Debug("chunk content aborted: item count reached the configured limit",
			zap.Int("limit", cfg.limits.MaxChunkItems))
		return nil, nil
	}

	result := collect(trav)
	span.SetAttributes(attribute.Int("chunk_items", len(result.ChunkItems)))
	cfg.log.Debug("chunk content completed", zap.Int("chunk_items", len(result.ChunkItems)), zap.Bool("split", split))
	return result, nil
}
