package hoist

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/graph"
)

// Class is the placement category of a module inside an application chunk.
type Class int

const (
	// ClassNone leaves the module where it is.
	ClassNone Class = iota
	// ClassContainer marks a delegate proxy (or a generated container module).
	ClassContainer
	// ClassToMove marks a shared or hoist-marked module bound for the runtime chunk.
	ClassToMove
)

func (c Class) String() string {
	switch c {
	case ClassContainer:
		return "container"
	case ClassToMove:
		return "to-move"
	default:
		return "none"
	}
}

// Classifier assigns a Class to modules from their request strings alone.
type Classifier struct {
	knownDelegates sets.Set[string]
	sharedModules  sets.Set[string]
	hoistMarker    string
}

func NewClassifier(opts v1alpha1.DelegateHoistOptions) *Classifier {
	marker := opts.HoistMarker
	if marker == "" {
		marker = v1alpha1.DefaultHoistMarker
	}
	return &Classifier{
		knownDelegates: KnownDelegates(opts.Remotes, opts.DelegateRequestMode),
		sharedModules:  InternalSharedModules(opts.Shared),
		hoistMarker:    marker,
	}
}

// Classify is total: container wins over to-move, to-move over none.
func (c *Classifier) Classify(m graph.Module) Class {
	if m == nil {
		return ClassNone
	}
	raw, ok := m.RawRequest()
	if ok && c.knownDelegates.Has(raw) {
		return ClassContainer
	}
	if ok && c.sharedModules.Has(raw) {
		return ClassToMove
	}
	if strings.Contains(m.UserRequest(), c.hoistMarker) {
		return ClassToMove
	}
	return ClassNone
}

// IsKnownDelegate reports whether m's raw request names a remote delegate.
func (c *Classifier) IsKnownDelegate(m graph.Module) bool {
	raw, ok := m.RawRequest()
	return ok && c.knownDelegates.Has(raw)
}

// KnownDelegates derives the raw requests of delegate modules from remotes.
//
// Remotes without a "?" contribute nothing in query mode.
func KnownDelegates(remotes map[string]string, mode v1alpha1.DelegateRequestMode) sets.Set[string] {
	out := sets.New[string]()
	for _, remote := range remotes {
		request := strings.TrimPrefix(remote, v1alpha1.InternalRequestPrefix)
		switch mode {
		case v1alpha1.DelegateRequestModePath:
			request, _, _ = strings.Cut(request, "?")
		case v1alpha1.DelegateRequestModeQuery:
			_, query, found := strings.Cut(request, "?")
			if !found {
				continue
			}
			request = query
		}
		if request != "" {
			out.Insert(request)
		}
	}
	return out
}

// InternalSharedModules returns the import request of every shared entry.
func InternalSharedModules(shared map[string]v1alpha1.SharedConfig) sets.Set[string] {
	out := sets.New[string]()
	for key, cfg := range shared {
		out.Insert(cfg.SharedRequest(key))
	}
	return out
}
