package plugins

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/hoist"
)

const (
	ConditionDelegatesDiscovered = "DelegatesDiscovered"
	ConditionRuntimeChunkReady   = "RuntimeChunkReady"
	ConditionConverged           = "Converged"
)

func setCondition(status *v1alpha1.DelegateHoistStatus, condition metav1.Condition) {
	if status == nil {
		return
	}
	condition.ObservedGeneration = status.Passes
	meta.SetStatusCondition(&status.Conditions, condition)
}

func setDiscoveredCondition(status *v1alpha1.DelegateHoistStatus) {
	setCondition(status, metav1.Condition{
		Type:    ConditionDelegatesDiscovered,
		Status:  metav1.ConditionTrue,
		Reason:  "FinishModules",
		Message: delegatesMessage(len(status.Delegates)),
	})
}

func setPassConditions(status *v1alpha1.DelegateHoistStatus, report hoist.Report) {
	if report.Skipped != "" {
		setCondition(status, metav1.Condition{
			Type:    ConditionRuntimeChunkReady,
			Status:  metav1.ConditionFalse,
			Reason:  string(report.Skipped),
			Message: "Optimize pass skipped",
		})
		meta.RemoveStatusCondition(&status.Conditions, ConditionConverged)
		return
	}

	setCondition(status, metav1.Condition{
		Type:    ConditionRuntimeChunkReady,
		Status:  metav1.ConditionTrue,
		Reason:  "Found",
		Message: fmt.Sprintf("Runtime chunk %q", report.RuntimeChunk),
	})

	if n := report.Mutations(); n > 0 {
		setCondition(status, metav1.Condition{
			Type:    ConditionConverged,
			Status:  metav1.ConditionFalse,
			Reason:  "GraphChanged",
			Message: fmt.Sprintf("%d chunk/module connections changed", n),
		})
		return
	}
	setCondition(status, metav1.Condition{
		Type:    ConditionConverged,
		Status:  metav1.ConditionTrue,
		Reason:  "NoMutations",
		Message: "Chunk graph is at a fixed point",
	})
}

func delegatesMessage(n int) string {
	if n == 1 {
		return "1 delegate module"
	}
	return fmt.Sprintf("%d delegate modules", n)
}
