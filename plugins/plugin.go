// Package plugins registers the delegate hoisting engine on a host bundler's
// compilation hooks.
package plugins

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/config"
	"github.com/anvil-platform/delegatehoist/internal/graph"
	"github.com/anvil-platform/delegatehoist/internal/hoist"
)

// PluginName is used as the logger name and in log values.
const PluginName = "DelegateHoistPlugin"

// Compiler is the host surface the plugin taps into once.
type Compiler interface {
	Name() string
	OnCompilation(fn func(Compilation))
}

// Compilation is the per-build host surface.
//
// Finish-modules handlers must call done exactly once; the host must not fire
// optimize-chunks before every done has been called.
type Compilation interface {
	ID() string
	ChunkGraph() graph.ChunkGraph
	OnFinishModules(fn func(ctx context.Context, modules []graph.Module, done func(error)))
	OnOptimizeChunks(fn func(ctx context.Context, chunks []graph.Chunk))
}

// PassObserver receives the status and report after every optimize pass.
type PassObserver func(status v1alpha1.DelegateHoistStatus, report hoist.Report)

type Option func(*DelegateHoistPlugin)

// WithPassObserver registers fn to be called after each optimize pass.
func WithPassObserver(fn PassObserver) Option {
	return func(p *DelegateHoistPlugin) {
		if fn != nil {
			p.observers = append(p.observers, fn)
		}
	}
}

// DelegateHoistPlugin places federated delegate modules in the runtime chunk.
type DelegateHoistPlugin struct {
	opts      v1alpha1.DelegateHoistOptions
	observers []PassObserver

	mu       sync.Mutex
	statuses map[string]*v1alpha1.DelegateHoistStatus
}

// NewDelegateHoistPlugin validates opts and returns a plugin holding a copy.
func NewDelegateHoistPlugin(opts v1alpha1.DelegateHoistOptions, options ...Option) (*DelegateHoistPlugin, error) {
	if err := config.Validate(opts); err != nil {
		return nil, err
	}
	p := &DelegateHoistPlugin{
		opts:     *opts.DeepCopy(),
		statuses: map[string]*v1alpha1.DelegateHoistStatus{},
	}
	p.opts.Default()
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// Options returns a copy of the defaulted options.
func (p *DelegateHoistPlugin) Options() v1alpha1.DelegateHoistOptions {
	return *p.opts.DeepCopy()
}

// Status returns the last observed status of a compilation.
func (p *DelegateHoistPlugin) Status(compilationID string) (v1alpha1.DelegateHoistStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.statuses[compilationID]
	if !ok {
		return v1alpha1.DelegateHoistStatus{}, false
	}
	return *s.DeepCopy(), true
}

// Apply registers the plugin on compiler. Every compilation gets its own
// delegate set; server compilations only get the baseline delegate placement.
func (p *DelegateHoistPlugin) Apply(compiler Compiler) {
	server := compiler.Name() == v1alpha1.ServerCompilerName

	compiler.OnCompilation(func(c Compilation) {
		state := &compilationState{
			plugin: p,
			c:      c,
			server: server,
			status: &v1alpha1.DelegateHoistStatus{CompilationID: c.ID(), Compiler: compiler.Name()},
		}
		p.mu.Lock()
		p.statuses[c.ID()] = state.status
		p.mu.Unlock()

		c.OnFinishModules(state.finishModules)
		c.OnOptimizeChunks(state.optimizeChunks)
	})
}

type compilationState struct {
	plugin *DelegateHoistPlugin
	c      Compilation
	server bool

	// delegates is nil until finish-modules has run.
	delegates *hoist.DelegateSet
	status    *v1alpha1.DelegateHoistStatus
}

func (s *compilationState) logger(ctx context.Context) logr.Logger {
	return log.FromContext(ctx).WithName(PluginName).WithValues(
		"compilation", s.c.ID(),
		"server", s.server,
	)
}

func (s *compilationState) finishModules(ctx context.Context, modules []graph.Module, done func(error)) {
	logger := s.logger(ctx)

	delegates := hoist.Discover(modules, s.plugin.opts.Remotes)
	ids := make([]string, 0, delegates.Len())
	for _, m := range delegates.Modules() {
		ids = append(ids, m.Identifier())
	}

	s.plugin.mu.Lock()
	s.delegates = delegates
	s.status.Delegates = ids
	setDiscoveredCondition(s.status)
	s.plugin.mu.Unlock()

	delegateHoistDelegatesDiscovered.Set(float64(delegates.Len()))
	logger.V(1).Info("delegate discovery finished", "modules", len(modules), "delegates", delegates.Len())
	done(nil)
}

func (s *compilationState) optimizeChunks(ctx context.Context, chunks []graph.Chunk) {
	logger := s.logger(ctx)

	s.plugin.mu.Lock()
	delegates := s.delegates
	s.plugin.mu.Unlock()
	if delegates == nil {
		delegateHoistPassesTotal.WithLabelValues(passResultPending).Inc()
		logger.Info("optimize pass before delegate discovery finished; skipping")
		return
	}

	start := time.Now()
	engine := hoist.NewEngine(s.c.ChunkGraph(), delegates, s.plugin.opts, s.server)
	report := engine.OptimizeChunks(log.IntoContext(ctx, logger), chunks)
	recordPass(report, time.Since(start).Seconds())

	s.plugin.mu.Lock()
	s.status.Passes++
	setPassConditions(s.status, report)
	snapshot := *s.status.DeepCopy()
	s.plugin.mu.Unlock()

	if report.Skipped != "" {
		logger.V(1).Info("optimize pass skipped", "reason", report.Skipped)
	} else {
		logger.V(1).Info("optimize pass finished", "pass", snapshot.Passes, "mutations", report.Mutations())
	}

	for _, fn := range s.plugin.observers {
		fn(snapshot, report)
	}
}
