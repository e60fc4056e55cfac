// Package snapshot reads and writes chunk graph documents used by the
// reference host.
//
// Example document:
//
//	name: app1-client
//	modules:
//	- id: webpack/container/reference/app2
//	  resource: app2@http://localhost:3001/remoteEntry.js
//	- id: ./node_modules/react/index.js
//	  rawRequest: react
//	chunks:
//	- name: webpack-runtime
//	  runtime: true
//	- name: app1-main
//	  modules: [webpack/container/reference/app2, ./node_modules/react/index.js]
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/anvil-platform/delegatehoist/internal/graph"
)

var (
	ErrDuplicateModule = errors.New("duplicate module id")
	ErrDuplicateChunk  = errors.New("duplicate chunk")
	ErrUnknownModule   = errors.New("unknown module")
	ErrUnnamedChunk    = errors.New("chunk has neither name nor id")
)

// Document is the serialized form of a chunk graph.
type Document struct {
	Name    string      `json:"name,omitempty"`
	Modules []ModuleDoc `json:"modules"`
	Chunks  []ChunkDoc  `json:"chunks"`
}

// ModuleDoc describes one module. Absent optional fields stay absent on the
// module; userRequest defaults to the id.
type ModuleDoc struct {
	ID          string  `json:"id"`
	RawRequest  *string `json:"rawRequest,omitempty"`
	UserRequest *string `json:"userRequest,omitempty"`
	Resource    *string `json:"resource,omitempty"`
}

// ChunkDoc describes one chunk and its modules by id.
type ChunkDoc struct {
	Name    string   `json:"name,omitempty"`
	ID      string   `json:"id,omitempty"`
	Runtime bool     `json:"runtime,omitempty"`
	Modules []string `json:"modules,omitempty"`
}

// Snapshot is a loaded document backed by a MemoryGraph.
type Snapshot struct {
	Name    string
	Graph   *graph.MemoryGraph
	Modules []graph.Module
	Chunks  []graph.Chunk
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Snapshot, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromDocument(doc)
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// FromDocument builds the graph described by doc.
func FromDocument(doc Document) (*Snapshot, error) {
	s := &Snapshot{Name: doc.Name, Graph: graph.NewMemoryGraph()}

	byID := make(map[string]graph.Module, len(doc.Modules))
	for i, md := range doc.Modules {
		if md.ID == "" {
			return nil, fmt.Errorf("modules[%d]: empty id", i)
		}
		if _, ok := byID[md.ID]; ok {
			return nil, fmt.Errorf("modules[%d]: %w %q", i, ErrDuplicateModule, md.ID)
		}
		var opts []graph.ModuleOption
		if md.RawRequest != nil {
			opts = append(opts, graph.WithRawRequest(*md.RawRequest))
		}
		if md.UserRequest != nil {
			opts = append(opts, graph.WithUserRequest(*md.UserRequest))
		}
		if md.Resource != nil {
			opts = append(opts, graph.WithResource(*md.Resource))
		}
		m := graph.NewModule(md.ID, opts...)
		byID[md.ID] = m
		s.Modules = append(s.Modules, m)
	}

	keys := make(map[string]struct{}, len(doc.Chunks))
	for i, cd := range doc.Chunks {
		c := &graph.StaticChunk{ChunkName: cd.Name, ChunkID: cd.ID, Runtime: cd.Runtime}
		key := graph.ChunkKey(c)
		if key == "" {
			return nil, fmt.Errorf("chunks[%d]: %w", i, ErrUnnamedChunk)
		}
		if _, ok := keys[key]; ok {
			return nil, fmt.Errorf("chunks[%d]: %w %q", i, ErrDuplicateChunk, key)
		}
		keys[key] = struct{}{}

		for _, id := range cd.Modules {
			m, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("chunks[%d] %q: %w %q", i, key, ErrUnknownModule, id)
			}
			s.Graph.ConnectChunkAndModule(c, m)
		}
		s.Chunks = append(s.Chunks, c)
	}
	return s, nil
}

// Document renders the current state of the graph. Chunk module lists follow
// the graph's per-chunk order.
func (s *Snapshot) Document() Document {
	doc := Document{
		Name:    s.Name,
		Modules: make([]ModuleDoc, 0, len(s.Modules)),
		Chunks:  make([]ChunkDoc, 0, len(s.Chunks)),
	}
	for _, m := range s.Modules {
		md := ModuleDoc{ID: m.Identifier()}
		if raw, ok := m.RawRequest(); ok {
			md.RawRequest = &raw
		}
		if user := m.UserRequest(); user != m.Identifier() {
			md.UserRequest = &user
		}
		if res, ok := m.Resource(); ok {
			md.Resource = &res
		}
		doc.Modules = append(doc.Modules, md)
	}
	for _, c := range s.Chunks {
		cd := ChunkDoc{Name: c.Name(), ID: c.ID(), Runtime: c.HasRuntime()}
		if cd.ID == cd.Name {
			cd.ID = ""
		}
		for _, m := range s.Graph.OrderedChunkModules(c) {
			cd.Modules = append(cd.Modules, m.Identifier())
		}
		doc.Chunks = append(doc.Chunks, cd)
	}
	return doc
}

// Marshal encodes the current state as YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s.Document())
}

// WriteFile writes the current state to path.
func (s *Snapshot) WriteFile(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Adjacency is graph.Adjacency over the snapshot's chunks.
func (s *Snapshot) Adjacency() map[string][]string {
	return graph.Adjacency(s.Graph, s.Chunks)
}
