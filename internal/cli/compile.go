package cli

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/config"
	"github.com/anvil-platform/delegatehoist/internal/hoist"
	"github.com/anvil-platform/delegatehoist/internal/host"
	"github.com/anvil-platform/delegatehoist/internal/snapshot"
	"github.com/anvil-platform/delegatehoist/plugins"
)

type compileOptions struct {
	snapshotPath string
	passes       int
	compiler     string
}

type passSummary struct {
	Pass   int64        `json:"pass"`
	Result string       `json:"result"`
	Report hoist.Report `json:"report"`
}

type compileResult struct {
	Compilation string                       `json:"compilation"`
	Warnings    []string                     `json:"warnings,omitempty"`
	Status      v1alpha1.DelegateHoistStatus `json:"status"`
	Passes      []passSummary                `json:"passes"`
	Graph       snapshot.Document            `json:"graph"`

	snap *snapshot.Snapshot
}

// compileSnapshot loads options and a snapshot and runs one compilation of
// the plugin over it.
func compileSnapshot(ctx context.Context, g *globalOptions, o compileOptions) (*compileResult, error) {
	logger := log.FromContext(ctx).WithValues("snapshot", o.snapshotPath, "compiler", o.compiler)

	opts, err := config.Load(g.configFile)
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.LoadFile(o.snapshotPath)
	if err != nil {
		return nil, err
	}

	res := &compileResult{Warnings: config.Warnings(opts), snap: snap}
	p, err := plugins.NewDelegateHoistPlugin(opts, plugins.WithPassObserver(
		func(status v1alpha1.DelegateHoistStatus, report hoist.Report) {
			res.Passes = append(res.Passes, passSummary{
				Pass:   status.Passes,
				Result: plugins.PassResult(report),
				Report: report,
			})
		},
	))
	if err != nil {
		return nil, err
	}

	compiler := host.NewCompiler(o.compiler)
	p.Apply(compiler)

	comp, err := compiler.Run(log.IntoContext(ctx, logger), snap, o.passes)
	if err != nil {
		return nil, fmt.Errorf("compilation %s: %w", comp.ID(), err)
	}

	res.Compilation = comp.ID()
	res.Status, _ = p.Status(comp.ID())
	res.Graph = snap.Document()
	logger.V(1).Info("compilation finished", "compilation", comp.ID(), "passes", comp.Passes())
	return res, nil
}
