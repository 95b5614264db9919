package cull

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oxygpu/atlasrender/common"
	"github.com/oxygpu/atlasrender/gpuatlas"
)

//go:embed assets/reset.wgsl
var resetSource string

//go:embed assets/cull.wgsl
var cullSource string

const workgroupSize = 64

// Driver owns the two compute pipelines (reset, cull) that clear and refill a
// geometry atlas pool's remap buffer every frame. A Driver binds to at most
// one Pool at a time; Dispatch rebuilds the bind group if the pool changes.
type Driver struct {
	mu sync.Mutex

	device *wgpu.Device

	bindGroupLayout *wgpu.BindGroupLayout
	resetPipeline   *wgpu.ComputePipeline
	cullPipeline    *wgpu.ComputePipeline

	uniformBuffer *wgpu.Buffer

	boundPool *gpuatlas.Pool
	bindGroup *wgpu.BindGroup
}

// NewDriver creates the reset/cull compute pipelines and the uniform buffer
// this driver writes every frame.
//
// Parameters:
//   - device: the GPU device to create pipelines and buffers on
//
// Returns:
//   - *Driver: the new driver
//   - error: an error if pipeline or buffer creation fails
func NewDriver(device *wgpu.Device) (*Driver, error) {
	d := &Driver{device: device}

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Cull Bind Group Layout",
		Entries: cullBindGroupLayoutEntries(),
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create bind group layout: %w", err)
	}
	d.bindGroupLayout = layout

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Cull Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create pipeline layout: %w", err)
	}

	resetModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "reset.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: resetSource},
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create reset shader module: %w", err)
	}
	d.resetPipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "Reset Counts Pipeline",
		Layout:  pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: resetModule, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create reset pipeline: %w", err)
	}

	cullModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "cull.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cullSource},
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create cull shader module: %w", err)
	}
	d.cullPipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "Cull Instances Pipeline",
		Layout:  pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: cullModule, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create cull pipeline: %w", err)
	}

	d.uniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Culling Uniform",
		Size:  112,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("cull: failed to create uniform buffer: %w", err)
	}

	return d, nil
}

func cullBindGroupLayoutEntries() []wgpu.BindGroupLayoutEntry {
	stage := wgpu.ShaderStageCompute
	storage := func(binding uint32, readOnly bool) wgpu.BindGroupLayoutEntry {
		bindingType := wgpu.BufferBindingTypeStorage
		if readOnly {
			bindingType = wgpu.BufferBindingTypeReadOnlyStorage
		}
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: stage,
			Buffer:     wgpu.BufferBindingLayout{Type: bindingType},
		}
	}
	return []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: stage, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		storage(1, true),
		storage(2, false),
		storage(3, false),
		storage(4, true),
		storage(5, true),
		storage(6, true),
	}
}

// Dispatch extracts the frustum from viewProj, uploads the culling uniform,
// and runs resetCounts then cullInstances on the caller's shared encoder. A
// no-op (logged) when the pool is not Finalized or has no instances/commands.
//
// Parameters:
//   - encoder: the frame's shared command encoder; the caller opens and closes it
//   - queue: the GPU queue used for the uniform upload
//   - pool: the geometry atlas pool to cull against
//   - viewProj: the camera's projection * view matrix
func (d *Driver) Dispatch(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, pool *gpuatlas.Pool, viewProj mgl32.Mat4) {
	if pool.Phase() != gpuatlas.PhaseFinalized {
		log.Printf("cull: dispatch called before pool finalized, skipping")
		return
	}
	totalInstances := pool.InstanceCount()
	commandCount := uint32(pool.CommandCount())
	if totalInstances == 0 || commandCount == 0 {
		log.Printf("cull: dispatch called with zero instances or commands, skipping")
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.boundPool != pool {
		if err := d.bindPool(pool); err != nil {
			log.Printf("cull: failed to bind pool: %v", err)
			return
		}
	}

	frustum := ExtractFrustum(viewProj)
	uniform := newCullingUniform(frustum, totalInstances, commandCount)
	queue.WriteBuffer(d.uniformBuffer, 0, common.StructToBytes(&uniform))

	resetGroups := ceilDiv(commandCount, workgroupSize)
	resetPass := encoder.BeginComputePass(nil)
	resetPass.SetPipeline(d.resetPipeline)
	resetPass.SetBindGroup(0, d.bindGroup, nil)
	resetPass.DispatchWorkgroups(resetGroups, 1, 1)
	resetPass.End()

	cullGroups := ceilDiv(totalInstances, workgroupSize)
	cullPass := encoder.BeginComputePass(nil)
	cullPass.SetPipeline(d.cullPipeline)
	cullPass.SetBindGroup(0, d.bindGroup, nil)
	cullPass.DispatchWorkgroups(cullGroups, 1, 1)
	cullPass.End()
}

func (d *Driver) bindPool(pool *gpuatlas.Pool) error {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: d.uniformBuffer, Offset: 0, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: pool.TransformBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: pool.IndirectBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 3, Buffer: pool.RemapBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 4, Buffer: pool.InstanceCommandMapBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 5, Buffer: pool.CommandBaseOffsetBuffer(), Offset: 0, Size: wgpu.WholeSize},
		{Binding: 6, Buffer: pool.BoundingSphereBuffer(), Offset: 0, Size: wgpu.WholeSize},
	}

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Cull Bind Group",
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

func ceilDiv(n, d uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n + d - 1) / d
}
