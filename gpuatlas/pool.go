package gpuatlas

import (
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	vertexByteSize         = 24
	indexByteSize          = 4
	transformByteSize      = 64
	identifierByteSize     = 16
	indirectCommandSize    = 20
	remapEntryByteSize     = 4
	instanceMapByteSize    = 4
	baseOffsetByteSize     = 4
	boundingSphereByteSize = 16
	instanceStateByteSize  = 4

	// minBoundingRadius guards against a degenerate mesh whose vertices all coincide
	// producing a zero-radius sphere the cull shader's <-world_radius test would
	// treat as an always-visible point with no slack for floating-point error.
	minBoundingRadius = 1e-4
)

// Pool owns every persistent GPU buffer for a geometry atlas and its per-instance
// state: vertex/index atlas, instance transform/identifier buffers, the indirect
// draw-command table, the remap buffer, and the auxiliary buffers the culling
// driver consumes. Buffers are allocated once at construction with a fixed
// capacity; append operations fail rather than grow them.
type Pool struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	capacities PoolCapacities
	phase      Phase

	vertexCursor   uint32
	indexCursor    uint32
	instanceCursor uint32
	commandCount   int32

	commands        []IndirectCommand
	boundingSpheres []BoundingSphere
	segments        []segment

	vertexBuffer             *wgpu.Buffer
	indexBuffer              *wgpu.Buffer
	transformBuffer          *wgpu.Buffer
	identifierBuffer         *wgpu.Buffer
	indirectBuffer           *wgpu.Buffer
	remapBuffer              *wgpu.Buffer
	instanceCommandMapBuffer *wgpu.Buffer
	commandBaseOffsetBuffer  *wgpu.Buffer
	boundingSphereBuffer     *wgpu.Buffer
	instanceStateBuffer      *wgpu.Buffer
}

// NewPool creates a Pool and allocates every fixed-capacity GPU buffer it owns.
// All four capacities must be greater than zero; NewPool returns an error rather
// than panicking since this runs at deployment/startup time and the caller (the
// tileset loader) must be able to surface the failure instead of crashing.
//
// Parameters:
//   - device: the GPU device to allocate buffers on
//   - queue: the GPU queue used for all buffer writes
//   - opts: functional options setting the pool's fixed capacities
//
// Returns:
//   - *Pool: the newly created pool
//   - error: an error if a required capacity is missing or buffer creation fails
func NewPool(device *wgpu.Device, queue *wgpu.Queue, opts ...PoolOption) (*Pool, error) {
	cfg := &poolConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.capacityVertices == 0 || cfg.capacityIndices == 0 || cfg.capacityInstances == 0 || cfg.maxCommands == 0 {
		return nil, fmt.Errorf("gpuatlas: all capacities must be > 0 (vertices=%d indices=%d instances=%d maxCommands=%d)",
			cfg.capacityVertices, cfg.capacityIndices, cfg.capacityInstances, cfg.maxCommands)
	}

	p := &Pool{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
		capacities: PoolCapacities{
			Vertices:    cfg.capacityVertices,
			Indices:     cfg.capacityIndices,
			Instances:   cfg.capacityInstances,
			MaxCommands: cfg.maxCommands,
		},
		phase:           PhaseLoading,
		commands:        make([]IndirectCommand, cfg.maxCommands),
		boundingSpheres: make([]BoundingSphere, cfg.maxCommands),
	}

	var err error
	if p.vertexBuffer, err = p.createBuffer("Vertex Atlas", uint64(cfg.capacityVertices)*vertexByteSize,
		wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.indexBuffer, err = p.createBuffer("Index Atlas", uint64(cfg.capacityIndices)*indexByteSize,
		wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.transformBuffer, err = p.createBuffer("Instance Transforms", uint64(cfg.capacityInstances)*transformByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.identifierBuffer, err = p.createBuffer("Instance Identifiers", uint64(cfg.capacityInstances)*identifierByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.indirectBuffer, err = p.createBuffer("Indirect Commands", uint64(cfg.maxCommands)*indirectCommandSize,
		wgpu.BufferUsageIndirect|wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.remapBuffer, err = p.createBuffer("Remap", uint64(cfg.capacityInstances)*remapEntryByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.instanceCommandMapBuffer, err = p.createBuffer("Instance Command Map", uint64(cfg.capacityInstances)*instanceMapByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.commandBaseOffsetBuffer, err = p.createBuffer("Command Base Offsets", uint64(cfg.maxCommands)*baseOffsetByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.boundingSphereBuffer, err = p.createBuffer("Mesh Bounding Spheres", uint64(cfg.maxCommands)*boundingSphereByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	if p.instanceStateBuffer, err = p.createBuffer("Per-Instance State", uint64(cfg.capacityInstances)*instanceStateByteSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Pool) createBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpuatlas: failed to create %q buffer: %w", label, err)
	}
	return buf, nil
}

// Phase reports the pool's current lifecycle phase.
func (p *Pool) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Capacities reports the fixed capacities this pool was constructed with.
func (p *Pool) Capacities() PoolCapacities {
	return p.capacities
}

// Usage reports the running totals accumulated so far, letting a collaborator
// stop feeding chunks before hitting ErrCapacityExceeded rather than after.
func (p *Pool) Usage() PoolUsage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolUsage{
		Vertices:  p.vertexCursor,
		Indices:   p.indexCursor,
		Instances: p.instanceCursor,
		Commands:  uint32(p.commandCount),
	}
}

// VertexBuffer returns the GPU vertex atlas buffer.
func (p *Pool) VertexBuffer() *wgpu.Buffer { return p.vertexBuffer }

// IndexBuffer returns the GPU index atlas buffer.
func (p *Pool) IndexBuffer() *wgpu.Buffer { return p.indexBuffer }

// TransformBuffer returns the GPU instance transform buffer.
func (p *Pool) TransformBuffer() *wgpu.Buffer { return p.transformBuffer }

// IdentifierBuffer returns the GPU instance identifier buffer.
func (p *Pool) IdentifierBuffer() *wgpu.Buffer { return p.identifierBuffer }

// IndirectBuffer returns the GPU indirect draw-command buffer.
func (p *Pool) IndirectBuffer() *wgpu.Buffer { return p.indirectBuffer }

// RemapBuffer returns the GPU remap buffer.
func (p *Pool) RemapBuffer() *wgpu.Buffer { return p.remapBuffer }

// InstanceCommandMapBuffer returns the GPU instance-to-command map buffer.
func (p *Pool) InstanceCommandMapBuffer() *wgpu.Buffer { return p.instanceCommandMapBuffer }

// CommandBaseOffsetBuffer returns the GPU per-command base-offset table.
func (p *Pool) CommandBaseOffsetBuffer() *wgpu.Buffer { return p.commandBaseOffsetBuffer }

// BoundingSphereBuffer returns the GPU per-command local bounding-sphere buffer.
func (p *Pool) BoundingSphereBuffer() *wgpu.Buffer { return p.boundingSphereBuffer }

// InstanceStateBuffer returns a handle to the capacity_instances x 4B GPU buffer
// the pool allocates but never reads or writes. Collaborators may upload
// per-instance scalars here for their own shaders; the pool makes no guarantee
// about its contents.
func (p *Pool) InstanceStateBuffer() *wgpu.Buffer { return p.instanceStateBuffer }

// CommandCount returns the number of indirect draw commands allocated so far.
func (p *Pool) CommandCount() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commandCount
}

// InstanceCount returns the number of instances appended so far.
func (p *Pool) InstanceCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instanceCursor
}

// Dispose releases every GPU buffer this pool owns. Idempotent: calling it more
// than once is safe, each buffer is released at most once.
func (p *Pool) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	buffers := []**wgpu.Buffer{
		&p.vertexBuffer, &p.indexBuffer, &p.transformBuffer, &p.identifierBuffer,
		&p.indirectBuffer, &p.remapBuffer, &p.instanceCommandMapBuffer,
		&p.commandBaseOffsetBuffer, &p.boundingSphereBuffer, &p.instanceStateBuffer,
	}
	for _, b := range buffers {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	log.Printf("gpuatlas: pool disposed (vertices=%d indices=%d instances=%d commands=%d)",
		p.vertexCursor, p.indexCursor, p.instanceCursor, p.commandCount)
}
