package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies whether a shader is a render shader or a compute shader.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface. Unlike a shader that discovers its
// binding layout by parsing WGSL comments, this shader is handed its complete layout as
// Go literals at construction time — the binding contract is fixed and known up front, so
// there is nothing left to infer from source text.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	workGroupSize              [3]uint32
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded WGSL shader. It exposes the shader's unique key,
// source code, entry point, bind group layout descriptors, vertex buffer layouts, and
// workgroup size needed for pipeline creation and resource wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a specific group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor associated with the index, or an empty descriptor if not set
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all bind group layout descriptors, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayout retrieves the vertex buffer layout for a specific key.
	//
	// Parameters:
	//   - key: the integer key identifying the vertex layout
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layout associated with the key, or nil if not set
	VertexLayout(key int) []wgpu.VertexBufferLayout

	// VertexLayouts retrieves all vertex buffer layouts associated with this shader.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: a map of keys to their corresponding vertex buffer layouts
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the type of the shader (vertex, fragment, or compute).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType
}

var _ Shader = &shader{}

// Descriptor carries everything needed to construct a Shader from an embedded WGSL source
// string plus the fixed Go-literal layout contract that source is assumed to satisfy.
type Descriptor struct {
	// Key is the unique identifier for the shader, used for caching and debug labels.
	Key string
	// Source is the WGSL source code, typically loaded via go:embed.
	Source string
	// Type is the shader stage.
	Type ShaderType
	// EntryPoint is the WGSL function name invoked for this stage.
	EntryPoint string
	// BindGroupLayouts maps group index to its layout descriptor.
	BindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor
	// VertexLayouts maps vertex buffer slot index to its layout, vertex shaders only.
	VertexLayouts map[int][]wgpu.VertexBufferLayout
	// WorkgroupSize is the @workgroup_size the compute shader declares, compute shaders only.
	WorkgroupSize [3]uint32
}

// New creates a new Shader from a fixed Descriptor. No shader source parsing is performed —
// the descriptor's layout fields are the authoritative binding contract.
//
// Parameters:
//   - d: the descriptor providing source and binding layout
//
// Returns:
//   - Shader: the new Shader instance
func New(d Descriptor) Shader {
	s := &shader{
		key:                        d.Key,
		source:                     d.Source,
		shaderType:                 d.Type,
		entryPoint:                 d.EntryPoint,
		bindGroupLayoutDescriptors: d.BindGroupLayouts,
		vertexLayouts:              d.VertexLayouts,
		workGroupSize:              d.WorkgroupSize,
	}
	if s.bindGroupLayoutDescriptors == nil {
		s.bindGroupLayoutDescriptors = make(map[int]wgpu.BindGroupLayoutDescriptor)
	}
	if s.vertexLayouts == nil {
		s.vertexLayouts = make(map[int][]wgpu.VertexBufferLayout)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexLayout(key int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[key]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}
