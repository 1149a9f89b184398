// Package chunkgraphtest provides in-memory fakes for building synthetic
// module graphs in chunkgraph tests, in the style of the teacher's
// hand-built executor_test.go fixtures rather than generated/table-driven
// graphs.
//
// Three distinct module types exist on purpose — PlainModule,
// ChunkableModule, PassthroughModule — rather than one struct with
// capability flags, because Go interface satisfaction is structural: a
// single type carrying every method would always satisfy every
// capability, making it impossible to build a fixture the classifier
// correctly routes to external or skips the passthrough branch for.
package chunkgraphtest

import (
	"context"
	"fmt"

	"github.com/chunkforge/core/chunk"
	"github.com/chunkforge/core/chunkid"
)

// PlainModule implements only chunk.Module: no ChunkableModule, no
// PassthroughModule. A reference to one always routes to external.
type PlainModule struct {
	Name string
	Refs []chunk.Reference
}

func NewPlainModule(name string) *PlainModule { return &PlainModule{Name: name} }

func (m *PlainModule) AddRef(ref chunk.Reference) { m.Refs = append(m.Refs, ref) }
func (m *PlainModule) Ident(context.Context) (string, error) { return m.Name, nil }
func (m *PlainModule) References(context.Context) ([]chunk.Reference, error) { return m.Refs, nil }

// ChunkableModule implements chunk.ChunkableModule: eligible for Placed,
// Parallel, IsolatedParallel, PlacedOrParallel, and Async destinations.
type ChunkableModule struct {
	Name string
	Refs []chunk.Reference
}

func NewChunkableModule(name string) *ChunkableModule { return &ChunkableModule{Name: name} }

func (m *ChunkableModule) AddRef(ref chunk.Reference) { m.Refs = append(m.Refs, ref) }
func (m *ChunkableModule) Ident(context.Context) (string, error) { return m.Name, nil }
func (m *ChunkableModule) References(context.Context) ([]chunk.Reference, error) { return m.Refs, nil }
func (m *ChunkableModule) AsChunkItem(ctx context.Context, cc chunk.ChunkingContext) (chunk.ChunkItem, error) {
	return &ChunkItem{ident: m.Name, refs: m.Refs, cc: cc, module: m}, nil
}

// PassthroughModule implements chunk.PassthroughModule: never emitted
// itself, but its references are still followed.
type PassthroughModule struct {
	Name string
	Refs []chunk.Reference
}

func NewPassthroughModule(name string) *PassthroughModule { return &PassthroughModule{Name: name} }

func (m *PassthroughModule) AddRef(ref chunk.Reference) { m.Refs = append(m.Refs, ref) }
func (m *PassthroughModule) Ident(context.Context) (string, error) { return m.Name, nil }
func (m *PassthroughModule) References(context.Context) ([]chunk.Reference, error) { return m.Refs, nil }
func (m *PassthroughModule) PassthroughMarker() {}

// Reference is a fake module reference. ChunkType selects the
// classification; if Decline is set, ChunkingType reports "no type"
// (routes to external).
type Reference struct {
	chunk.BaseReference
	ChunkType chunk.ChunkingType
	Decline   bool
}

// NewReference builds a reference to dests with the given chunking type.
func NewReference(ctype chunk.ChunkingType, dests ...chunk.Module) *Reference {
	return &Reference{BaseReference: chunk.BaseReference{Modules: dests}, ChunkType: ctype}
}

// NewDecliningReference builds a chunkable reference whose ChunkingType
// reports false, routing straight to external.
func NewDecliningReference(dests ...chunk.Module) *Reference {
	return &Reference{BaseReference: chunk.BaseReference{Modules: dests}, Decline: true}
}

func (r *Reference) ChunkingType(context.Context) (chunk.ChunkingType, bool, error) {
	if r.Decline {
		return 0, false, nil
	}
	return r.ChunkType, true, nil
}

// PlainReference carries no ChunkableReference capability at all, always
// routed to external.
type PlainReference struct {
	Label string
}

func NewPlainReference(label string) *PlainReference { return &PlainReference{Label: label} }

// ChunkItem is a fake chunk item wrapping whichever module produced it.
type ChunkItem struct {
	ident  string
	refs   []chunk.Reference
	cc     chunk.ChunkingContext
	module chunk.Module
	typ    chunk.ChunkType
}

func (i *ChunkItem) AssetIdent(context.Context) (string, error) { return i.ident, nil }
func (i *ChunkItem) References(context.Context) ([]chunk.Reference, error) { return i.refs, nil }
func (i *ChunkItem) Type(context.Context) (chunk.ChunkType, error) {
	if i.typ != nil {
		return i.typ, nil
	}
	return ChunkTypeSingleton, nil
}
func (i *ChunkItem) Module() chunk.Module { return i.module }
func (i *ChunkItem) ChunkingContext() chunk.ChunkingContext { return i.cc }

// Chunk is a fake output chunk, identified by the ident of the item that
// produced it.
type Chunk struct {
	Item             chunk.ChunkItem
	AvailabilityInfo chunk.AvailabilityInfo
}

func (c *Chunk) Ident(ctx context.Context) (string, error) {
	ident, err := c.Item.AssetIdent(ctx)
	if err != nil {
		return "", err
	}
	return "chunk:" + ident, nil
}

// chunkType is the single fake ChunkType implementation; AsChunk just
// wraps the item in a Chunk handle.
type chunkType struct{}

func (chunkType) AsChunk(ctx context.Context, item chunk.ChunkItem, availabilityInfo chunk.AvailabilityInfo) (chunk.Chunk, error) {
	return &Chunk{Item: item, AvailabilityInfo: availabilityInfo}, nil
}

// ChunkTypeSingleton is the default ChunkType fake chunk items resolve to.
var ChunkTypeSingleton chunk.ChunkType = chunkType{}

// ChunkingContext is a fake policy object. SameChunk controls
// CanBeInSameChunk's answer for every (entry, candidate) pair; tests that
// need finer control should set SameChunkFunc instead.
type ChunkingContext struct {
	SameChunk     bool
	SameChunkFunc func(entry, candidate chunk.Module) bool

	ids    map[string]uint32
	nextID uint32
}

func NewChunkingContext(sameChunk bool) *ChunkingContext {
	return &ChunkingContext{SameChunk: sameChunk, ids: make(map[string]uint32)}
}

func (c *ChunkingContext) CanBeInSameChunk(ctx context.Context, entry, candidate chunk.Module) (bool, error) {
	if c.SameChunkFunc != nil {
		return c.SameChunkFunc(entry, candidate), nil
	}
	return c.SameChunk, nil
}

func (c *ChunkingContext) ChunkItemID(ctx context.Context, item chunk.ChunkItem) (chunkid.ModuleId, error) {
	ident, err := item.AssetIdent(ctx)
	if err != nil {
		return chunkid.ModuleId{}, err
	}
	id, ok := c.ids[ident]
	if !ok {
		id = c.nextID
		c.nextID++
		c.ids[ident] = id
	}
	return chunkid.Number(id), nil
}

// ItemFactory is a fake chunk.ItemFactory. DeclineAsync, when set, makes
// FromAsyncAsset always decline (nil, nil), exercising the "abandon
// remaining destinations" branch of the Async rule. DeclineFor names
// modules (by Ident) for which FromAsset should decline, exercising
// Placed's fatal-failure path for a single destination without also
// breaking root-entry construction.
type ItemFactory struct {
	DeclineAsync bool
	DeclineFor   map[string]bool
}

func NewItemFactory() *ItemFactory { return &ItemFactory{} }

func (f *ItemFactory) FromAsset(ctx context.Context, cc chunk.ChunkingContext, m chunk.Module) (chunk.ChunkItem, error) {
	if f.DeclineFor != nil {
		if ident, err := m.Ident(ctx); err == nil && f.DeclineFor[ident] {
			return nil, nil
		}
	}
	cm, ok := m.(*ChunkableModule)
	if !ok {
		return nil, fmt.Errorf("chunkgraphtest: module %T has no chunk item", m)
	}
	return cm.AsChunkItem(ctx, cc)
}

func (f *ItemFactory) FromAsyncAsset(ctx context.Context, cc chunk.ChunkingContext, m chunk.ChunkableModule, availabilityInfo chunk.AvailabilityInfo) (chunk.ChunkItem, error) {
	if f.DeclineAsync {
		return nil, nil
	}
	return &AsyncLoaderItem{target: m, cc: cc}, nil
}

// AsyncLoaderItem is the fake chunk item representing an async loader
// boundary: it has no references of its own, keeping the
// async destination's subgraph out of the current chunk.
type AsyncLoaderItem struct {
	target chunk.Module
	cc     chunk.ChunkingContext
}

func (a *AsyncLoaderItem) AssetIdent(ctx context.Context) (string, error) {
	ident, err := a.target.Ident(ctx)
	if err != nil {
		return "", err
	}
	return "loader:" + ident, nil
}

func (a *AsyncLoaderItem) References(context.Context) ([]chunk.Reference, error) { return nil, nil }

func (a *AsyncLoaderItem) Type(context.Context) (chunk.ChunkType, error) { return ChunkTypeSingleton, nil }

func (a *AsyncLoaderItem) Module() chunk.Module { return a.target }

func (a *AsyncLoaderItem) ChunkingContext() chunk.ChunkingContext { return a.cc }

// AvailabilitySet is a fake chunk.AvailabilitySet backed by a set of
// modules known to already be available.
type AvailabilitySet struct {
	available map[chunk.Module]bool
}

func NewAvailabilitySet(modules ...chunk.Module) *AvailabilitySet {
	s := &AvailabilitySet{available: make(map[chunk.Module]bool, len(modules))}
	for _, m := range modules {
		s.available[m] = true
	}
	return s
}

func (s *AvailabilitySet) Includes(ctx context.Context, m chunk.Module) (bool, error) {
	return s.available[m], nil
}
