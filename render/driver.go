// Package render owns the single indirect render pipeline that draws every
// finalized instance in a geometry atlas pool: one drawIndexedIndirect call
// per draw command, with the vertex shader resolving hardware instance index
// through the pool's remap buffer.
package render

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxygpu/atlasrender/common"
	"github.com/oxygpu/atlasrender/gpuatlas"
)

//go:embed assets/indirect.vert.wgsl
var vertexSource string

//go:embed assets/indirect.frag.wgsl
var fragmentSource string

const indirectCommandStride = 20

// DepthConvention selects the clear value and compare function a Driver's
// depth attachment uses. The choice must match the convention baked into the
// projection matrix the caller feeds into RenderUniform.ViewProjection.
type DepthConvention int

const (
	// DepthConventionStandard clears to 1.0 and keeps fragments with Less depth.
	DepthConventionStandard DepthConvention = iota
	// DepthConventionReversedZ clears to 0.0 and keeps fragments with Greater depth.
	DepthConventionReversedZ
)

func (c DepthConvention) clearValue() float32 {
	if c == DepthConventionReversedZ {
		return 0
	}
	return 1
}

func (c DepthConvention) compareFunction() wgpu.CompareFunction {
	if c == DepthConventionReversedZ {
		return wgpu.CompareFunctionGreater
	}
	return wgpu.CompareFunctionLess
}

// Driver owns the indirect render pipeline and its per-frame uniform buffer.
// A Driver binds to at most one Pool at a time; Render rebuilds the bind
// group if the pool changes.
type Driver struct {
	mu sync.Mutex

	device *wgpu.Device
	conv   DepthConvention

	bindGroupLayout *wgpu.BindGroupLayout
	pipeline        *wgpu.RenderPipeline

	uniformBuffer *wgpu.Buffer

	boundPool *gpuatlas.Pool
	bindGroup *wgpu.BindGroup
}

// NewDriver creates the indirect render pipeline and the uniform buffer this
// driver writes every frame.
//
// Parameters:
//   - device: the GPU device to create the pipeline and buffers on
//   - surfaceFormat: the swap chain's preferred texture format, used as the
//     pipeline's single fragment target
//   - conv: the depth clear/compare convention this pipeline enforces
//
// Returns:
//   - *Driver: the new driver
//   - error: an error if pipeline or buffer creation fails
func NewDriver(device *wgpu.Device, surfaceFormat wgpu.TextureFormat, conv DepthConvention) (*Driver, error) {
	d := &Driver{device: device, conv: conv}

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Render Bind Group Layout",
		Entries: renderBindGroupLayoutEntries(),
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create bind group layout: %w", err)
	}
	d.bindGroupLayout = layout

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Render Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create pipeline layout: %w", err)
	}

	vs, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "indirect.vert.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexSource},
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create vertex shader module: %w", err)
	}

	fs, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "indirect.frag.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentSource},
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create fragment shader module: %w", err)
	}

	d.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Indirect Instance Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "main",
			Targets: []wgpu.ColorTargetState{
				{Format: surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      conv.compareFunction(),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create render pipeline: %w", err)
	}

	d.uniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Render Uniform",
		Size:  96,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: failed to create uniform buffer: %w", err)
	}

	return d, nil
}

func vertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 24,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

func renderBindGroupLayoutEntries() []wgpu.BindGroupLayoutEntry {
	stage := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	storage := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: stage,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
		}
	}
	return []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: stage, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		storage(1),
		storage(2),
		storage(3),
	}
}

// Render updates the uniform buffer, binds the atlas vertex/index buffers and
// transform/identifier/remap bind group, then issues one drawIndexedIndirect
// per draw command. A no-op (logged) when the pool is not Finalized or has
// no instances/commands.
//
// Parameters:
//   - pass: the open render pass to record draw calls into; the caller owns
//     its color/depth attachments and begin/end lifecycle
//   - queue: the GPU queue used for the uniform upload
//   - pool: the geometry atlas pool to draw from
//   - uniform: this frame's view-projection, camera position, selection id, and time
func (d *Driver) Render(pass *wgpu.RenderPassEncoder, queue *wgpu.Queue, pool *gpuatlas.Pool, uniform RenderUniform) {
	if pool.Phase() != gpuatlas.PhaseFinalized {
		log.Printf("render: render called before pool finalized, skipping")
		return
	}
	commandCount := pool.CommandCount()
	if pool.InstanceCount() == 0 || commandCount == 0 {
		log.Printf("render: render called with zero instances or commands, skipping")
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.boundPool != pool {
		if err := d.bindPool(pool); err != nil {
			log.Printf("render: failed to bind pool: %v", err)
			return
		}
	}

	queue.WriteBuffer(d.uniformBuffer, 0, common.StructToBytes(&uniform))

	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, d.bindGroup, nil)
	pass.SetVertexBuffer(0, pool.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(pool.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)

	for i := int32(0); i < commandCount; i++ {
		pass.DrawIndexedIndirect(pool.IndirectBuffer(), uint64(i)*indirectCommandStride)
	}
}

func (d *Driver) bindPool(pool *gpuatlas.Pool) error {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: d.uniformBuffer, Offset: 0, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: pool.TransformBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: pool.IdentifierBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 3, Buffer: pool.RemapBuffer(), Offset: 0, Size: wgpu.WholeSize},
	}

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Render Bind Group",
		Layout:  d.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return err
	}

	d.bindGroup = bindGroup
	d.boundPool = pool
	return nil
}

// DepthClearValue returns the clear value this driver's depth attachment
// must be cleared to before the render pass begins, per its DepthConvention.
func (d *Driver) DepthClearValue() float32 {
	return d.conv.clearValue()
}
