package hoist

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/graph"
)

// DelegateSet is the set of modules that proxy remote code for one compilation.
//
// It is filled once by Discover and only read afterwards.
type DelegateSet struct {
	members sets.Set[graph.Module]
	order   []graph.Module
}

// Has reports whether m is a delegate module.
func (s *DelegateSet) Has(m graph.Module) bool {
	if s == nil {
		return false
	}
	return s.members.Has(m)
}

func (s *DelegateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Modules returns the delegates in discovery order.
func (s *DelegateSet) Modules() []graph.Module {
	if s == nil {
		return nil
	}
	out := make([]graph.Module, len(s.order))
	copy(out, s.order)
	return out
}

// Discover collects the modules whose resource equals one of the remote
// request targets. Matching is exact string equality.
func Discover(modules []graph.Module, remotes map[string]string) *DelegateSet {
	set := &DelegateSet{members: sets.New[graph.Module]()}
	targets := discoveryTargets(remotes)
	if targets.Len() == 0 {
		return set
	}
	for _, m := range modules {
		if m == nil || set.members.Has(m) {
			continue
		}
		resource, ok := m.Resource()
		if !ok || !targets.Has(resource) {
			continue
		}
		set.members.Insert(m)
		set.order = append(set.order, m)
	}
	return set
}

func discoveryTargets(remotes map[string]string) sets.Set[string] {
	targets := sets.New[string]()
	for _, remote := range remotes {
		targets.Insert(strings.TrimPrefix(remote, v1alpha1.InternalRequestPrefix))
	}
	return targets
}
