package graph

// StaticModule is a plain Module value used by the reference host and tests.
type StaticModule struct {
	ID          string
	Request     string
	HasRequest  bool
	Path        string
	ResourceStr string
	HasResource bool
}

var _ Module = (*StaticModule)(nil)

type ModuleOption func(*StaticModule)

func WithRawRequest(raw string) ModuleOption {
	return func(m *StaticModule) {
		m.Request = raw
		m.HasRequest = true
	}
}

func WithUserRequest(user string) ModuleOption {
	return func(m *StaticModule) { m.Path = user }
}

func WithResource(resource string) ModuleOption {
	return func(m *StaticModule) {
		m.ResourceStr = resource
		m.HasResource = true
	}
}

// NewModule builds a StaticModule. userRequest defaults to the identifier.
func NewModule(id string, opts ...ModuleOption) *StaticModule {
	m := &StaticModule{ID: id, Path: id}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *StaticModule) Identifier() string { return m.ID }
func (m *StaticModule) RawRequest() (string, bool) { return m.Request, m.HasRequest }
func (m *StaticModule) UserRequest() string { return m.Path }
func (m *StaticModule) Resource() (string, bool) { return m.ResourceStr, m.HasResource }
func (m *StaticModule) String() string { return m.ID }

// StaticChunk is a plain Chunk value.
type StaticChunk struct {
	ChunkName string
	ChunkID   string
	Runtime   bool
}

var _ Chunk = (*StaticChunk)(nil)

func NewChunk(name string, runtime bool) *StaticChunk {
	return &StaticChunk{ChunkName: name, ChunkID: name, Runtime: runtime}
}

func (c *StaticChunk) Name() string { return c.ChunkName }
func (c *StaticChunk) ID() string { return c.ChunkID }
func (c *StaticChunk) HasRuntime() bool { return c.Runtime }
func (c *StaticChunk) String() string { return ChunkKey(c) }
