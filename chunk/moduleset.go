package chunk

import (
	"context"

	"golang.org/x/exp/maps"
)

// ModuleSet is the default AvailabilitySet implementation: a plain set of
// modules known to be available in the enclosing chunk group. Callers
// with a more efficient backing store (e.g. one already indexed by the
// build graph) are free to implement AvailabilitySet themselves instead.
type ModuleSet struct {
	modules map[Module]struct{}
}

// NewModuleSet builds a ModuleSet containing modules.
func NewModuleSet(modules ...Module) *ModuleSet {
	s := &ModuleSet{modules: make(map[Module]struct{}, len(modules))}
	for _, m := range modules {
		s.modules[m] = struct{}{}
	}
	return s
}

// Includes implements AvailabilitySet.
func (s *ModuleSet) Includes(ctx context.Context, m Module) (bool, error) {
	_, ok := s.modules[m]
	return ok, nil
}

// Add marks m as available.
func (s *ModuleSet) Add(m Module) {
	s.modules[m] = struct{}{}
}

// Len reports how many modules are tracked.
func (s *ModuleSet) Len() int {
	return len(s.modules)
}

// Snapshot returns the tracked modules in map-iteration (non-deterministic)
// order, for diagnostics; callers needing a stable order should sort the
// result themselves.
func (s *ModuleSet) Snapshot() []Module {
	return maps.Keys(s.modules)
}

// Union returns a new ModuleSet containing every module from s and other.
func Union(s, other *ModuleSet) *ModuleSet {
	merged := make(map[Module]struct{}, len(s.modules)+len(other.modules))
	maps.Copy(merged, s.modules)
	maps.Copy(merged, other.modules)
	return &ModuleSet{modules: merged}
}
