package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DelegateHoistOptions configures where federated delegate modules are placed
// in the chunk graph.
//
// Example document:
//
//	apiVersion: federation.anvil.dev/v1alpha1
//	kind: DelegateHoistOptions
//	runtime: webpack-runtime
//	container: app1_remote
//	applicationName: app1
//	eager: true
//	remotes:
//	  app2: "internal app2@http://localhost:3001/remoteEntry.js"
//	shared:
//	  react: {}
//	  lodash: {import: lodash-es}
type DelegateHoistOptions struct {
	metav1.TypeMeta `json:",inline"`

	// Runtime names the chunk that receives delegate and hoisted modules.
	Runtime string `json:"runtime" validate:"required"`
	// Container names the chunk holding the generated container entry module.
	Container string `json:"container,omitempty"`
	// Remotes maps exposed names to "internal <request>" strings.
	Remotes map[string]string `json:"remotes,omitempty" validate:"dive,required"`
	// Shared maps package names to their share configuration.
	Shared map[string]SharedConfig `json:"shared,omitempty" validate:"dive"`
	// Eager evicts migrated modules from their application chunks.
	Eager bool `json:"eager,omitempty"`
	// ApplicationName is the chunk name/id prefix selecting application chunks.
	ApplicationName string `json:"applicationName,omitempty"`
	// Debug enables diagnostic logging only.
	Debug bool `json:"debug,omitempty"`

	DelegateRequestMode DelegateRequestMode `json:"delegateRequestMode,omitempty" validate:"omitempty,oneof=full path query"`
	HoistMarker         string              `json:"hoistMarker,omitempty"`
}

// SharedConfig describes one shared package.
//
// Only Import affects placement. The version fields are validated and carried
// for the host; share-scope negotiation happens elsewhere.
type SharedConfig struct {
	Import          string `json:"import,omitempty"`
	RequiredVersion string `json:"requiredVersion,omitempty" validate:"omitempty,semverconstraint"`
	Version         string `json:"version,omitempty" validate:"omitempty,semverversion"`
	Singleton       bool   `json:"singleton,omitempty"`
	Eager           bool   `json:"eager,omitempty"`
}

// Default fills unset optional fields.
func (o *DelegateHoistOptions) Default() {
	if o.APIVersion == "" {
		o.APIVersion = GroupVersion.String()
	}
	if o.Kind == "" {
		o.Kind = DelegateHoistOptionsKind
	}
	if o.DelegateRequestMode == "" {
		o.DelegateRequestMode = DelegateRequestModeFull
	}
	if o.HoistMarker == "" {
		o.HoistMarker = DefaultHoistMarker
	}
}

// SharedRequest returns the raw request a shared entry is imported by.
func (s SharedConfig) SharedRequest(key string) string {
	if s.Import != "" {
		return s.Import
	}
	return key
}
