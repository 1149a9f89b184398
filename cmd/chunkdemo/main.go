// Command chunkdemo builds a small synthetic module graph and prints the
// chunk-content result, exercising the chunkgraph package end to end
// without a real bundler's module graph.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chunkforge/core/chunk"
	"github.com/chunkforge/core/chunkgraph"
	"github.com/chunkforge/core/chunkgraph/chunkgraphtest"
	"github.com/chunkforge/core/internal/chunklog"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chunkdemo: failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = chunklog.OrNop(logger)

	ctx := context.Background()

	styles := chunkgraphtest.NewChunkableModule("styles.css")
	helpers := chunkgraphtest.NewChunkableModule("helpers.js")
	helpers.AddRef(chunkgraphtest.NewReference(chunk.Placed, styles))

	vendor := chunkgraphtest.NewChunkableModule("vendor.js")

	lazyWidget := chunkgraphtest.NewChunkableModule("widget.js")

	entry := chunkgraphtest.NewChunkableModule("index.js")
	entry.AddRef(chunkgraphtest.NewReference(chunk.Placed, helpers))
	entry.AddRef(chunkgraphtest.NewReference(chunk.Parallel, vendor))
	entry.AddRef(chunkgraphtest.NewReference(chunk.Async, lazyWidget))

	cc := chunkgraphtest.NewChunkingContext(false)
	factory := chunkgraphtest.NewItemFactory()

	result, err := chunkgraph.ChunkContentAuto(ctx, cc, factory, entry, nil, chunk.Untracked(), chunkgraph.WithLogger(logger))
	if err != nil {
		logger.Fatal("chunk content failed", zap.Error(err))
	}

	for _, item := range result.ChunkItems {
		ident, err := item.AssetIdent(ctx)
		if err != nil {
			logger.Fatal("asset ident failed", zap.Error(err))
		}
		id, err := cc.ChunkItemID(ctx, item)
		logger.Info("chunk item", zap.String("ident", ident), zap.Stringer("id", id), zap.Error(err))
	}
	for _, c := range result.Chunks {
		ident, err := c.Ident(ctx)
		if err != nil {
			logger.Fatal("chunk ident failed", zap.Error(err))
		}
		logger.Info("chunk", zap.String("ident", ident))
	}
	for range result.ExternalReferences {
		logger.Info("external reference")
	}
}
