package chunk

import "context"

// availabilityKind discriminates the AvailabilityInfo sum type.
type availabilityKind int

const (
	availabilityUntracked availabilityKind = iota
	availabilityComplete
	availabilityRoot
)

// AvailabilitySet answers whether a module is already available in the
// enclosing chunk group. The core queries it at most once per destination
// module per reference.
type AvailabilitySet interface {
	Includes(ctx context.Context, m Module) (bool, error)
}

// AvailabilityInfo is the sum type described in: Untracked, or
// Complete{available_modules, root}, or Root{current_availability_root}.
type AvailabilityInfo struct {
	kind     availabilityKind
	modules  AvailabilitySet
	root     Module
	rootOnly Module
}

// Untracked returns an AvailabilityInfo that tracks no availability.
func Untracked() AvailabilityInfo {
	return AvailabilityInfo{kind: availabilityUntracked}
}

// Complete returns an AvailabilityInfo backed by a concrete available-module
// set, rooted at root.
func Complete(modules AvailabilitySet, root Module) AvailabilityInfo {
	return AvailabilityInfo{kind: availabilityComplete, modules: modules, root: root}
}

// NewRoot returns an AvailabilityInfo synthesized for an IsolatedParallel
// destination: a fresh availability root with no inherited available set.
func NewRoot(current Module) AvailabilityInfo {
	return AvailabilityInfo{kind: availabilityRoot, rootOnly: current}
}

// AvailableModules returns the queryable available-module set and true
// when this AvailabilityInfo is Complete. Untracked and Root variants
// return (nil, false), meaning the classifier performs no availability
// check.
func (a AvailabilityInfo) AvailableModules() (AvailabilitySet, bool) {
	if a.kind == availabilityComplete && a.modules != nil {
		return a.modules, true
	}
	return nil, false
}

// Root returns the current availability root, valid for Complete and Root
// variants.
func (a AvailabilityInfo) Root() (Module, bool) {
	switch a.kind {
	case availabilityComplete:
		return a.root, a.root != nil
	case availabilityRoot:
		return a.rootOnly, a.rootOnly != nil
	default:
		return nil, false
	}
}

// IsRoot reports whether this AvailabilityInfo is the Root variant, i.e.
// was synthesized for an IsolatedParallel subgraph.
func (a AvailabilityInfo) IsRoot() bool {
	return a.kind == availabilityRoot
}
