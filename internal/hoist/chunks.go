package hoist

import (
	"strings"

	"github.com/anvil-platform/delegatehoist/internal/graph"
)

// ChunkByName returns the first chunk named name, or nil.
func ChunkByName(chunks []graph.Chunk, name string) graph.Chunk {
	for _, c := range chunks {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

// ApplicationChunks selects the chunks attributed to applicationName by the
// name prefix convention. Unnamed chunks are matched by id. The runtime chunk
// is never selected.
func ApplicationChunks(chunks []graph.Chunk, runtime graph.Chunk, applicationName string) []graph.Chunk {
	if applicationName == "" {
		return nil
	}
	out := make([]graph.Chunk, 0)
	for _, c := range chunks {
		if c == nil || c == runtime {
			continue
		}
		if strings.HasPrefix(graph.ChunkKey(c), applicationName) {
			out = append(out, c)
		}
	}
	return out
}
