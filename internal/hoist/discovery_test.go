package hoist

import (
	"testing"

	"github.com/anvil-platform/delegatehoist/internal/graph"
)

func TestDiscover_MatchesResourceAfterStrippingInternalPrefix(t *testing.T) {
	delegate := graph.NewModule("delegate", graph.WithResource("app1@http://x/remoteEntry.js"))
	other := graph.NewModule("other", graph.WithResource("/src/other.js"))
	generated := graph.NewModule("container entry (default) []")

	set := Discover([]graph.Module{other, delegate, generated}, map[string]string{
		"app1": "internal app1@http://x/remoteEntry.js",
	})

	if set.Len() != 1 {
		t.Fatalf("expected 1 delegate, got %d", set.Len())
	}
	if !set.Has(delegate) {
		t.Fatalf("expected delegate module to be discovered")
	}
	if set.Has(other) || set.Has(generated) {
		t.Fatalf("unexpected module in delegate set: %v", set.Modules())
	}
}

func TestDiscover_ExactStringMatchOnly(t *testing.T) {
	trailing := graph.NewModule("trailing", graph.WithResource("app1@http://x/remoteEntry.js/"))
	prefixed := graph.NewModule("prefixed", graph.WithResource("internal app1@http://x/remoteEntry.js"))

	set := Discover([]graph.Module{trailing, prefixed}, map[string]string{
		"app1": "internal app1@http://x/remoteEntry.js",
	})
	if set.Len() != 0 {
		t.Fatalf("expected no delegates, got %v", set.Modules())
	}
}

func TestDiscover_ValueWithoutPrefixIsUsedAsIs(t *testing.T) {
	m := graph.NewModule("m", graph.WithResource("app2@http://y/remoteEntry.js"))
	set := Discover([]graph.Module{m}, map[string]string{"app2": "app2@http://y/remoteEntry.js"})
	if !set.Has(m) {
		t.Fatalf("expected unprefixed remote value to match")
	}
}

func TestDiscover_NoRemotesYieldsEmptySet(t *testing.T) {
	m := graph.NewModule("m", graph.WithResource(""))
	set := Discover([]graph.Module{m}, nil)
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
}

func TestDiscover_KeepsDiscoveryOrderAndIgnoresDuplicates(t *testing.T) {
	a := graph.NewModule("a", graph.WithResource("r1"))
	b := graph.NewModule("b", graph.WithResource("r2"))

	set := Discover([]graph.Module{b, a, b, nil}, map[string]string{
		"one": "internal r1",
		"two": "internal r2",
	})
	mods := set.Modules()
	if len(mods) != 2 || mods[0] != b || mods[1] != a {
		t.Fatalf("expected [b a], got %v", mods)
	}
}

func TestDelegateSet_NilIsEmpty(t *testing.T) {
	var set *DelegateSet
	if set.Len() != 0 || set.Has(graph.NewModule("x")) || set.Modules() != nil {
		t.Fatalf("nil set must behave as empty")
	}
}
