package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DelegateHoistStatus is the observed outcome of the plugin for one
// compilation.
type DelegateHoistStatus struct {
	CompilationID string `json:"compilationID"`
	Compiler      string `json:"compiler,omitempty"`

	// Delegates lists discovered delegate module identifiers in discovery order.
	Delegates []string `json:"delegates,omitempty"`
	// Passes counts optimize passes run since discovery.
	Passes int64 `json:"passes"`

	// Conditions use ObservedGeneration to carry the pass number.
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}
