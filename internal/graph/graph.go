package graph

// Package graph contains the narrow view of the host bundler's chunk graph.
//
// The host owns modules and chunks. Implementations handed to this package must
// be comparable (pointer types in practice) because they are used as map keys.

// Module is a node in the host's module graph.
type Module interface {
	Identifier() string
	// RawRequest is the literal import string; absent for generated or concatenated modules.
	RawRequest() (string, bool)
	UserRequest() string
	// Resource is the resolved resource string, when the module has one.
	Resource() (string, bool)
}

// Chunk is a named or id-only grouping of modules.
type Chunk interface {
	Name() string
	ID() string
	// HasRuntime reports whether the chunk bootstraps the runtime.
	HasRuntime() bool
}

// ChunkGraph is the mutable many-to-many relation between chunks and modules.
//
// Connect and Disconnect are idempotent.
type ChunkGraph interface {
	IsModuleInChunk(m Module, c Chunk) bool
	ConnectChunkAndModule(c Chunk, m Module)
	DisconnectChunkAndModule(c Chunk, m Module)
	// OrderedChunkModules returns the chunk's modules in a stable order.
	// The returned slice is owned by the caller.
	OrderedChunkModules(c Chunk) []Module
}

// ChunkKey is the display key of a chunk: its name, or its id when unnamed.
func ChunkKey(c Chunk) string {
	if c == nil {
		return ""
	}
	if name := c.Name(); name != "" {
		return name
	}
	return c.ID()
}
