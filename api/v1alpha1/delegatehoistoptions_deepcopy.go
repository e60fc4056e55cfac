package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *DelegateHoistOptions) DeepCopyInto(out *DelegateHoistOptions) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	if in.Remotes != nil {
		out.Remotes = make(map[string]string, len(in.Remotes))
		for k, v := range in.Remotes {
			out.Remotes[k] = v
		}
	}
	if in.Shared != nil {
		out.Shared = make(map[string]SharedConfig, len(in.Shared))
		for k, v := range in.Shared {
			out.Shared[k] = v
		}
	}
}

// DeepCopy copies the receiver, creating a new DelegateHoistOptions.
func (in *DelegateHoistOptions) DeepCopy() *DelegateHoistOptions {
	if in == nil {
		return nil
	}
	out := new(DelegateHoistOptions)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *DelegateHoistStatus) DeepCopyInto(out *DelegateHoistStatus) {
	*out = *in
	if in.Delegates != nil {
		out.Delegates = make([]string, len(in.Delegates))
		copy(out.Delegates, in.Delegates)
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new DelegateHoistStatus.
func (in *DelegateHoistStatus) DeepCopy() *DelegateHoistStatus {
	if in == nil {
		return nil
	}
	out := new(DelegateHoistStatus)
	in.DeepCopyInto(out)
	return out
}
