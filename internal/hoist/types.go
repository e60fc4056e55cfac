package hoist

// SkipReason explains why a pass or one of its steps did nothing.
type SkipReason string

const (
	SkipRuntimeChunkNotFound       SkipReason = "RuntimeChunkNotFound"
	SkipRuntimeChunkWithoutRuntime SkipReason = "RuntimeChunkWithoutRuntime"

	SkipServerCompilation SkipReason = "ServerCompilation"
	SkipNoApplicationName SkipReason = "NoApplicationName"
)

// Report describes what one optimize pass changed.
//
// A pass over a converged graph reports zero mutations.
type Report struct {
	RuntimeChunk   string `json:"runtimeChunk,omitempty"`
	ContainerChunk string `json:"containerChunk,omitempty"`

	// Skipped is set when the whole pass was a no-op.
	Skipped SkipReason `json:"skipped,omitempty"`
	// ApplicationsSkipped is set when per-application classification did not run.
	ApplicationsSkipped SkipReason `json:"applicationsSkipped,omitempty"`

	DelegatesConnected int `json:"delegatesConnected"`
	DelegatesRemoved   int `json:"delegatesRemoved"`

	Applications []ChunkReport `json:"applications,omitempty"`
}

// ChunkReport covers one application chunk.
type ChunkReport struct {
	Chunk      string   `json:"chunk"`
	Containers []string `json:"containers,omitempty"`
	ToMove     []string `json:"toMove,omitempty"`

	// Connected counts modules newly connected to the runtime chunk.
	Connected int `json:"connected"`
	// Evicted counts modules disconnected from this chunk in eager mode.
	Evicted int `json:"evicted"`
	// Associated counts runtime delegates newly connected to this chunk.
	Associated int `json:"associated"`
}

// Mutations is the number of connect and disconnect calls that changed the graph.
func (r Report) Mutations() int {
	n := r.DelegatesConnected + r.DelegatesRemoved
	for _, a := range r.Applications {
		n += a.Connected + a.Evicted + a.Associated
	}
	return n
}
