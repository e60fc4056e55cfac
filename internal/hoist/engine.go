package hoist

import (
	"context"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/graph"
)

// Engine moves delegate, shared and hoisted modules into the runtime chunk.
//
// OptimizeChunks is a pure function of (delegates, options, chunk graph) and
// may run any number of times; once the graph converges further passes are
// no-ops.
type Engine struct {
	graph      graph.ChunkGraph
	delegates  *DelegateSet
	opts       v1alpha1.DelegateHoistOptions
	classifier *Classifier
	server     bool
}

// NewEngine builds an engine for one compilation. server disables the
// per-application classification step.
func NewEngine(g graph.ChunkGraph, delegates *DelegateSet, opts v1alpha1.DelegateHoistOptions, server bool) *Engine {
	opts.Default()
	return &Engine{
		graph:      g,
		delegates:  delegates,
		opts:       opts,
		classifier: NewClassifier(opts),
		server:     server,
	}
}

func (e *Engine) OptimizeChunks(ctx context.Context, chunks []graph.Chunk) Report {
	logger := log.FromContext(ctx).WithValues("runtimeChunk", e.opts.Runtime)
	debug := logger.V(1)
	if e.opts.Debug {
		debug = logger
	}

	report := Report{}

	runtimeChunk := ChunkByName(chunks, e.opts.Runtime)
	if runtimeChunk == nil {
		report.Skipped = SkipRuntimeChunkNotFound
		debug.Info("runtime chunk not found; skipping pass")
		return report
	}
	if !runtimeChunk.HasRuntime() {
		report.Skipped = SkipRuntimeChunkWithoutRuntime
		debug.Info("runtime chunk has no runtime; skipping pass")
		return report
	}
	report.RuntimeChunk = graph.ChunkKey(runtimeChunk)

	var container graph.Chunk
	if e.opts.Container != "" {
		container = ChunkByName(chunks, e.opts.Container)
		if container == nil {
			debug.Info("container chunk not found", "containerChunk", e.opts.Container)
		} else {
			report.ContainerChunk = graph.ChunkKey(container)
		}
	}

	e.placeDelegates(debug, &report, chunks, runtimeChunk, container)

	switch {
	case e.server:
		report.ApplicationsSkipped = SkipServerCompilation
	case e.opts.ApplicationName == "":
		report.ApplicationsSkipped = SkipNoApplicationName
	default:
		// Association runs against the runtime chunk as it stands after every
		// application chunk has been migrated.
		appChunks := ApplicationChunks(chunks, runtimeChunk, e.opts.ApplicationName)
		moved := make([]*moduleList, len(appChunks))
		for i, chunk := range appChunks {
			cr, toMove := e.migrate(debug, chunk, runtimeChunk, container)
			report.Applications = append(report.Applications, cr)
			moved[i] = toMove
		}
		for i, chunk := range appChunks {
			e.associate(debug, &report.Applications[i], chunk, runtimeChunk, moved[i])
		}
	}

	debug.Info("optimize pass finished",
		"delegates", e.delegates.Len(),
		"applicationChunks", len(report.Applications),
		"mutations", report.Mutations(),
	)
	return report
}

// placeDelegates connects every delegate to the container and runtime chunks
// and removes delegates from every chunk that cannot bootstrap the runtime.
// A container chunk without runtime is not connected, since the removal sweep
// would undo it.
func (e *Engine) placeDelegates(debug logr.Logger, report *Report, chunks []graph.Chunk, runtimeChunk, container graph.Chunk) {
	if e.delegates.Len() == 0 {
		return
	}
	targets := make([]graph.Chunk, 0, 2)
	if container != nil && container.HasRuntime() {
		targets = append(targets, container)
	}
	targets = append(targets, runtimeChunk)

	delegates := e.delegates.Modules()
	for _, chunk := range targets {
		for _, m := range delegates {
			if e.graph.IsModuleInChunk(m, chunk) {
				continue
			}
			debug.Info("adding delegate to chunk", "module", m.Identifier(), "chunk", graph.ChunkKey(chunk))
			e.graph.ConnectChunkAndModule(chunk, m)
			report.DelegatesConnected++
		}
	}

	for _, chunk := range chunks {
		if chunk == nil || chunk.HasRuntime() {
			continue
		}
		for _, m := range delegates {
			if !e.graph.IsModuleInChunk(m, chunk) {
				continue
			}
			debug.Info("removing delegate from non-runtime chunk", "module", m.Identifier(), "chunk", graph.ChunkKey(chunk))
			e.graph.DisconnectChunkAndModule(chunk, m)
			report.DelegatesRemoved++
		}
	}
}

// migrate classifies one application chunk, connects its container and
// to-move modules to the runtime chunk and, when eager, evicts the moved
// modules. It returns the chunk's to-move set for associate.
func (e *Engine) migrate(debug logr.Logger, chunk, runtimeChunk, container graph.Chunk) (ChunkReport, *moduleList) {
	cr := ChunkReport{Chunk: graph.ChunkKey(chunk)}

	toMove := newModuleList()
	containers := newModuleList()
	for _, m := range e.graph.OrderedChunkModules(chunk) {
		switch e.classifier.Classify(m) {
		case ClassContainer:
			containers.add(m)
		case ClassToMove:
			toMove.add(m)
		}
	}
	if container != nil {
		for _, m := range e.graph.OrderedChunkModules(container) {
			if _, ok := m.RawRequest(); ok {
				toMove.add(m)
			} else {
				containers.add(m)
			}
		}
	}
	cr.ToMove = toMove.identifiers()
	cr.Containers = containers.identifiers()

	modulesToConnect := newModuleList()
	modulesToConnect.add(toMove.items...)
	modulesToConnect.add(containers.items...)
	for _, m := range modulesToConnect.items {
		if e.graph.IsModuleInChunk(m, runtimeChunk) {
			continue
		}
		e.graph.ConnectChunkAndModule(runtimeChunk, m)
		cr.Connected++
	}

	// The container chunk keeps its own modules even when its name carries
	// the application prefix.
	if e.opts.Eager && chunk != container {
		for _, m := range toMove.items {
			if !e.graph.IsModuleInChunk(m, runtimeChunk) || !e.graph.IsModuleInChunk(m, chunk) {
				continue
			}
			debug.Info("moving module to runtime chunk", "module", m.Identifier(), "from", cr.Chunk, "to", graph.ChunkKey(runtimeChunk))
			e.graph.DisconnectChunkAndModule(chunk, m)
			cr.Evicted++
		}
	}

	return cr, toMove
}

// associate connects the known delegates held by the runtime chunk back to
// an application chunk.
func (e *Engine) associate(debug logr.Logger, cr *ChunkReport, chunk, runtimeChunk graph.Chunk, toMove *moduleList) {
	for _, m := range e.graph.OrderedChunkModules(runtimeChunk) {
		if e.graph.IsModuleInChunk(m, chunk) || !e.classifier.IsKnownDelegate(m) {
			continue
		}
		if e.delegates.Has(m) && !chunk.HasRuntime() {
			continue
		}
		if e.opts.Eager && toMove.has(m) {
			continue
		}
		debug.Info("associating runtime delegate with application chunk", "module", m.Identifier(), "chunk", cr.Chunk)
		e.graph.ConnectChunkAndModule(chunk, m)
		cr.Associated++
	}
}

// moduleList is an insertion-ordered set of modules.
type moduleList struct {
	items []graph.Module
	seen  map[graph.Module]struct{}
}

func newModuleList() *moduleList {
	return &moduleList{seen: map[graph.Module]struct{}{}}
}

func (l *moduleList) add(mods ...graph.Module) {
	for _, m := range mods {
		if _, ok := l.seen[m]; ok {
			continue
		}
		l.seen[m] = struct{}{}
		l.items = append(l.items, m)
	}
}

func (l *moduleList) has(m graph.Module) bool {
	_, ok := l.seen[m]
	return ok
}

func (l *moduleList) identifiers() []string {
	if len(l.items) == 0 {
		return nil
	}
	out := make([]string, 0, len(l.items))
	for _, m := range l.items {
		out = append(out, m.Identifier())
	}
	return out
}
