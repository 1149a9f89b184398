package chunkgraph

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chunkforge/core/chunk"
)

// controlFlow mirrors the tri-valued visit outcome of the Chunk-Content
// Visitor: Continue (recurse into this node's edges), Skip (already seen,
// don't recurse), Abort (stop the whole traversal).
type controlFlow int

const (
	cfContinue controlFlow = iota
	cfSkip
	cfAbort
)

// errAborted is the internal sentinel used to short-circuit the
// errgroup-driven traversal when the size cap is hit; it is
// ErrChunkOverflow. It never escapes this package: ChunkContent translates
// it into a (nil, nil) result.
var errAborted = ErrChunkOverflow

// traversal drives the parallel adjacency-map walk.
// processed and chunkItemsCount are the visitor's private state, owned
// exclusively by one traversal and updated only from the lock-serialized
// visit step — the traversal framework's serialization contract, here
// implemented with a single mutex rather than delegated to an external
// memoizing task engine.
type traversal struct {
	tc      *traverseContext
	limits  Limits
	metrics Metrics

	mu              sync.Mutex
	nodes           []graphNode
	children        [][]int
	roots           []int
	processed       map[dedupeKey]int
	chunkItemsCount int
}

func newTraversal(tc *traverseContext, limits Limits, metrics Metrics) *traversal {
	return &traversal{
		tc:        tc,
		limits:    limits,
		metrics:   orNop(metrics),
		processed: make(map[dedupeKey]int),
	}
}

// run drives the traversal from rootEdges. It returns aborted=true iff
// the non-split size cap was hit.
func (t *traversal) run(ctx context.Context, rootEdges []edge) (aborted bool, err error) {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range rootEdges {
		e := e
		g.Go(func() error {
			return t.visitAndExpand(gctx, -1, e, g)
		})
	}
	err = g.Wait()
	if errors.Is(err, errAborted) {
		return true, nil
	}
	return false, err
}

func (t *traversal) visitAndExpand(ctx context.Context, parentIdx int, e edge, g *errgroup.Group) error {
	cf, idx, err := t.visit(parentIdx, e)
	if err != nil {
		return err
	}
	switch cf {
	case cfAbort:
		return errAborted
	case cfSkip:
		return nil
	}

	children, err := t.edgesOf(ctx, idx)
	if err != nil {
		return err
	}
	for _, ce := range children {
		ce := ce
		g.Go(func() error {
			return t.visitAndExpand(ctx, idx, ce, g)
		})
	}
	return nil
}

// visit implements Component B's visit contract:
//  1. edge.dedupe_key == nil -> always Continue with a fresh node.
//  2. dedupe_key already processed -> Skip, linking the existing node as
//     a child of parentIdx so topological order still reflects the edge.
//  3. otherwise insert the key; if the node is a ChunkItem, count it and
//     abort when the non-split cap is reached.
func (t *traversal) visit(parentIdx int, e edge) (controlFlow, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.key == nil {
		idx := t.addNode(parentIdx, e.node)
		t.metrics.RecordNodeVisited()
		return cfContinue, idx, nil
	}

	if existing, ok := t.processed[*e.key]; ok {
		if parentIdx >= 0 {
			t.children[parentIdx] = append(t.children[parentIdx], existing)
		} else {
			t.roots = append(t.roots, existing)
		}
		return cfSkip, existing, nil
	}

	idx := t.addNode(parentIdx, e.node)
	t.processed[*e.key] = idx
	t.metrics.RecordNodeVisited()

	if e.node.kind == nodeChunkItem {
		t.chunkItemsCount++
		t.metrics.RecordChunkItem()
		if !t.tc.split && t.chunkItemsCount >= t.limits.MaxChunkItems {
			t.metrics.RecordAbort()
			return cfAbort, idx, nil
		}
	}
	return cfContinue, idx, nil
}

// addNode must be called with t.mu held.
func (t *traversal) addNode(parentIdx int, n graphNode) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.children = append(t.children, nil)
	if parentIdx >= 0 {
		t.children[parentIdx] = append(t.children[parentIdx], idx)
	} else {
		t.roots = append(t.roots, idx)
	}
	return idx
}

// edgesOf implements Component B's edges contract:
// PassthroughModule and ChunkItem nodes expand into their references,
// classified; every other node kind is terminal. Each expansion opens its
// own "chunkgraph.node" tracing span carrying the node's ident as an
// attribute (original turbopack-core
// ChunkContentVisit::span, mod.rs:531-537), so a trace shows per-module
// expansion cost rather than one opaque traversal.
func (t *traversal) edgesOf(ctx context.Context, idx int) ([]edge, error) {
	t.mu.Lock()
	n := t.nodes[idx]
	t.mu.Unlock()

	var ident string
	switch n.kind {
	case nodePassthrough:
		ident, _ = n.module.Ident(ctx)
	case nodeChunkItem:
		ident = n.ident
	default:
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "chunkgraph.node", trace.WithAttributes(attribute.String("ident", ident)))
	defer span.End()

	var refs []chunk.Reference
	var err error
	switch n.kind {
	case nodePassthrough:
		refs, err = n.module.References(ctx)
	case nodeChunkItem:
		refs, err = n.item.References(ctx)
	}
	if err != nil {
		return nil, err
	}
	return classifyReferences(ctx, t.tc, refs)
}
