package chunkgraph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chunkforge/core/chunk"
)

// traverseContext bundles the read-only inputs every classification needs
// (original turbopack-core chunk/mod.rs ChunkContentContext, lines
// 262-268).
type traverseContext struct {
	chunkingContext chunk.ChunkingContext
	factory         chunk.ItemFactory
	entry           chunk.Module
	availability    chunk.AvailabilityInfo
	split           bool
}

// classifyReference implements Component A for a single
// reference, in the exact rule order the original
// reference_to_graph_nodes does (original mod.rs lines 270-441).
func classifyReference(ctx context.Context, tc *traverseContext, ref chunk.Reference) ([]edge, error) {
	// Rule 1: no chunkable capability -> external, verbatim.
	cref, ok := ref.(chunk.ChunkableReference)
	if !ok {
		return []edge{externalEdge(ref)}, nil
	}

	// Rule 2: chunkable but chunking_type is None -> external, verbatim.
	ctype, has, err := cref.ChunkingType(ctx)
	if err != nil {
		return nil, err
	}
	if !has {
		return []edge{externalEdge(ref)}, nil
	}

	modules, err := cref.PrimaryModules(ctx)
	if err != nil {
		return nil, err
	}

	var edges []edge
	for _, m := range modules {
		// Rule 3a: availability check.
		if avail, ok := tc.availability.AvailableModules(); ok {
			included, err := avail.Includes(ctx, m)
			if err != nil {
				return nil, err
			}
			if included {
				edges = append(edges, availableAssetEdge(dedupeKey{m, ctype}, m))
				continue
			}
		}

		// Rule 3b: passthrough check. Intentionally no dedupe key: the
		// passthrough node never terminates, its own children get
		// deduped when they're discovered.
		if pm, ok := m.(chunk.PassthroughModule); ok {
			edges = append(edges, passthroughEdge(pm))
			continue
		}

		// Rule 3c: chunkability check. Failure aborts the WHOLE
		// reference, discarding any edges already built for earlier
		// destinations of this same reference (matches the original's
		// early `return Ok(vec![...])`).
		cm, ok := m.(chunk.ChunkableModule)
		if !ok {
			return []edge{externalEdge(ref)}, nil
		}

		// Rule 3d: dispatch on chunking_type.
		switch ctype {
		case chunk.Placed:
			e, err := classifyPlaced(ctx, tc, m, ctype)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)

		case chunk.Parallel:
			e, err := classifyParallel(ctx, tc, cm, ctype, tc.availability)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)

		case chunk.IsolatedParallel:
			e, err := classifyParallel(ctx, tc, cm, ctype, chunk.NewRoot(cm))
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)

		case chunk.PlacedOrParallel:
			e, err := classifyPlacedOrParallel(ctx, tc, m, cm, ctype)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)

		case chunk.Async:
			e, ok, err := classifyAsync(ctx, tc, cm, ctype)
			if err != nil {
				return nil, err
			}
			if !ok {
				// "stop": abandon remaining destinations too, matching
				// the original's immediate function return.
				return []edge{externalEdge(ref)}, nil
			}
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func classifyPlaced(ctx context.Context, tc *traverseContext, m chunk.Module, ctype chunk.ChunkingType) (edge, error) {
	item, err := tc.factory.FromAsset(ctx, tc.chunkingContext, m)
	if err != nil {
		return edge{}, err
	}
	if item == nil {
		ident, _ := m.Ident(ctx)
		return edge{}, fmt.Errorf("%w: %s", ErrPlacementFailed, ident)
	}
	ident, err := m.Ident(ctx)
	if err != nil {
		return edge{}, err
	}
	return chunkItemEdge(dedupeKey{m, ctype}, item, ident), nil
}

func classifyParallel(ctx context.Context, tc *traverseContext, cm chunk.ChunkableModule, ctype chunk.ChunkingType, availability chunk.AvailabilityInfo) (edge, error) {
	item, err := cm.AsChunkItem(ctx, tc.chunkingContext)
	if err != nil {
		return edge{}, err
	}
	ctyp, err := item.Type(ctx)
	if err != nil {
		return edge{}, err
	}
	c, err := ctyp.AsChunk(ctx, item, availability)
	if err != nil {
		return edge{}, err
	}
	return chunkEdge(dedupeKey{cm, ctype}, c), nil
}

func classifyPlacedOrParallel(ctx context.Context, tc *traverseContext, m chunk.Module, cm chunk.ChunkableModule, ctype chunk.ChunkingType) (edge, error) {
	if !tc.split {
		same, err := tc.chunkingContext.CanBeInSameChunk(ctx, tc.entry, m)
		if err != nil {
			return edge{}, err
		}
		if same {
			item, err := tc.factory.FromAsset(ctx, tc.chunkingContext, m)
			if err != nil {
				return edge{}, err
			}
			if item != nil {
				ident, err := m.Ident(ctx)
				if err != nil {
					return edge{}, err
				}
				return chunkItemEdge(dedupeKey{m, ctype}, item, ident), nil
			}
		}
	}
	return classifyParallel(ctx, tc, cm, ctype, tc.availability)
}

func classifyAsync(ctx context.Context, tc *traverseContext, cm chunk.ChunkableModule, ctype chunk.ChunkingType) (edge, bool, error) {
	item, err := tc.factory.FromAsyncAsset(ctx, tc.chunkingContext, cm, tc.availability)
	if err != nil {
		return edge{}, false, err
	}
	if item == nil {
		return edge{}, false, nil
	}
	ident, err := cm.Ident(ctx)
	if err != nil {
		return edge{}, false, err
	}
	return chunkItemEdge(dedupeKey{cm, ctype}, item, ident), true, nil
}

// classifyReferences fans out classification across the references of a
// single node: concurrent across references, input
// order preserved in the flattened output.
func classifyReferences(ctx context.Context, tc *traverseContext, refs []chunk.Reference) ([]edge, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	results := make([][]edge, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range refs {
		i, r := i, r
		g.Go(func() error {
			es, err := classifyReference(gctx, tc, r)
			if err != nil {
				return err
			}
			results[i] = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []edge
	for _, es := range results {
		all = append(all, es...)
	}
	return all, nil
}
