package v1alpha1

import "k8s.io/apimachinery/pkg/runtime/schema"

// NOTE: These types model only the options the delegate hoisting plugin reads.
// The host bundler owns everything else.

// DelegateRequestMode selects how remote request strings are turned into the
// raw requests used to recognise delegate modules inside application chunks.
type DelegateRequestMode string

const (
	// DelegateRequestModeFull strips the internal marker and keeps the rest.
	DelegateRequestModeFull DelegateRequestMode = "full"
	// DelegateRequestModePath additionally drops a trailing "?query" segment.
	DelegateRequestModePath DelegateRequestMode = "path"
	// DelegateRequestModeQuery keeps only the segment after the first "?".
	DelegateRequestModeQuery DelegateRequestMode = "query"
)

const (
	// InternalRequestPrefix marks a remote value as an internal delegate request.
	InternalRequestPrefix = "internal "

	// DefaultHoistMarker is the userRequest substring that forces a module into the runtime chunk.
	DefaultHoistMarker = "internal-delegate-hoist"

	// ServerCompilerName is the compiler name of server-side compilations.
	ServerCompilerName = "server"

	DelegateHoistOptionsKind = "DelegateHoistOptions"
)

// GroupVersion identifies the options document format.
var GroupVersion = schema.GroupVersion{Group: "federation.anvil.dev", Version: "v1alpha1"}
