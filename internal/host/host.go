// Package host is an in-memory stand-in for the bundler that drives the
// plugin hooks over a snapshot.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/anvil-platform/delegatehoist/internal/graph"
	"github.com/anvil-platform/delegatehoist/internal/snapshot"
	"github.com/anvil-platform/delegatehoist/plugins"
)

// ErrDiscoveryIncomplete is returned when optimize-chunks would run before
// every finish-modules handler signalled completion.
var ErrDiscoveryIncomplete = errors.New("finish-modules has not completed")

// Compiler dispatches compilation hooks.
type Compiler struct {
	name  string
	hooks []func(plugins.Compilation)
}

var _ plugins.Compiler = (*Compiler)(nil)

func NewCompiler(name string) *Compiler {
	return &Compiler{name: name}
}

func (c *Compiler) Name() string { return c.name }

func (c *Compiler) OnCompilation(fn func(plugins.Compilation)) {
	c.hooks = append(c.hooks, fn)
}

// NewCompilation starts a compilation over snap and fires the compilation hooks.
func (c *Compiler) NewCompilation(snap *snapshot.Snapshot) *Compilation {
	comp := &Compilation{id: uuid.NewString(), compiler: c.name, snap: snap}
	for _, fn := range c.hooks {
		fn(comp)
	}
	return comp
}

// Run performs one compilation: finish-modules once, then passes optimize
// passes.
func (c *Compiler) Run(ctx context.Context, snap *snapshot.Snapshot, passes int) (*Compilation, error) {
	comp := c.NewCompilation(snap)
	if err := comp.FinishModules(ctx); err != nil {
		return comp, err
	}
	for i := 0; i < passes; i++ {
		if err := comp.OptimizeChunks(ctx); err != nil {
			return comp, err
		}
	}
	return comp, nil
}

type finishModulesHandler func(ctx context.Context, modules []graph.Module, done func(error))

type optimizeChunksHandler func(ctx context.Context, chunks []graph.Chunk)

// Compilation holds the hooks and graph of one build.
type Compilation struct {
	id       string
	compiler string
	snap     *snapshot.Snapshot

	finish   []finishModulesHandler
	optimize []optimizeChunksHandler

	finished bool
	passes   int
}

var _ plugins.Compilation = (*Compilation)(nil)

func (c *Compilation) ID() string                   { return c.id }
func (c *Compilation) ChunkGraph() graph.ChunkGraph { return c.snap.Graph }
func (c *Compilation) Snapshot() *snapshot.Snapshot { return c.snap }
func (c *Compilation) Passes() int                  { return c.passes }

func (c *Compilation) OnFinishModules(fn func(ctx context.Context, modules []graph.Module, done func(error))) {
	c.finish = append(c.finish, fn)
}

func (c *Compilation) OnOptimizeChunks(fn func(ctx context.Context, chunks []graph.Chunk)) {
	c.optimize = append(c.optimize, fn)
}

// FinishModules fires every finish-modules handler. Each must call done
// before returning.
func (c *Compilation) FinishModules(ctx context.Context) error {
	logger := log.FromContext(ctx).WithValues("compiler", c.compiler, "compilation", c.id)

	var errs []error
	for i, fn := range c.finish {
		var (
			once   sync.Once
			called bool
			result error
		)
		fn(ctx, c.snap.Modules, func(err error) {
			once.Do(func() {
				called = true
				result = err
			})
		})
		if !called {
			return fmt.Errorf("finish-modules handler %d: %w", i, ErrDiscoveryIncomplete)
		}
		if result != nil {
			errs = append(errs, fmt.Errorf("finish-modules handler %d: %w", i, result))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	c.finished = true
	logger.V(1).Info("finish-modules completed", "modules", len(c.snap.Modules), "handlers", len(c.finish))
	return nil
}

// OptimizeChunks fires one optimize pass.
func (c *Compilation) OptimizeChunks(ctx context.Context) error {
	if !c.finished {
		return ErrDiscoveryIncomplete
	}
	c.passes++
	for _, fn := range c.optimize {
		fn(ctx, c.snap.Chunks)
	}
	return nil
}
