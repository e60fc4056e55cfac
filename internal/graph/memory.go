package graph

import "sort"

// MemoryGraph is an in-memory ChunkGraph.
//
// Per-chunk order is the order in which modules were connected; a module that
// is disconnected and connected again moves to the end.
type MemoryGraph struct {
	order map[Chunk][]Module
	index map[Chunk]map[Module]struct{}
}

var _ ChunkGraph = (*MemoryGraph)(nil)

func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		order: map[Chunk][]Module{},
		index: map[Chunk]map[Module]struct{}{},
	}
}

func (g *MemoryGraph) IsModuleInChunk(m Module, c Chunk) bool {
	_, ok := g.index[c][m]
	return ok
}

func (g *MemoryGraph) ConnectChunkAndModule(c Chunk, m Module) {
	if g.IsModuleInChunk(m, c) {
		return
	}
	set, ok := g.index[c]
	if !ok {
		set = map[Module]struct{}{}
		g.index[c] = set
	}
	set[m] = struct{}{}
	g.order[c] = append(g.order[c], m)
}

func (g *MemoryGraph) DisconnectChunkAndModule(c Chunk, m Module) {
	if !g.IsModuleInChunk(m, c) {
		return
	}
	delete(g.index[c], m)
	mods := g.order[c]
	for i := range mods {
		if mods[i] == m {
			g.order[c] = append(mods[:i:i], mods[i+1:]...)
			break
		}
	}
}

func (g *MemoryGraph) OrderedChunkModules(c Chunk) []Module {
	mods := g.order[c]
	out := make([]Module, len(mods))
	copy(out, mods)
	return out
}

// Adjacency renders the relation for the given chunks as chunk key -> sorted
// module identifiers. Chunks without modules map to an empty slice.
func Adjacency(g ChunkGraph, chunks []Chunk) map[string][]string {
	out := make(map[string][]string, len(chunks))
	for _, c := range chunks {
		mods := g.OrderedChunkModules(c)
		ids := make([]string, 0, len(mods))
		for _, m := range mods {
			ids = append(ids, m.Identifier())
		}
		sort.Strings(ids)
		out[ChunkKey(c)] = ids
	}
	return out
}
