// Package gpuatlas owns the fixed-capacity GPU buffers that back a geometry atlas
// and its per-instance state: the vertex/index atlas, instance transform and
// identifier buffers, the indirect draw-command table, and the remap buffer a
// culling pass writes into every frame. It implements the load-time append API
// (AppendMesh, AppendInstances, RecordCommandInstances) and the one-shot Finalize
// compaction that transitions the pool from Loading to Finalized.
package gpuatlas

// Vertex is the on-device vertex layout: position then normal, 24 bytes, no padding.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// IndirectCommand mirrors WebGPU's drawIndexedIndirect argument layout exactly:
// 20 bytes, five little-endian u32 fields in this order.
type IndirectCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    uint32
	FirstInstance uint32
}

// BoundingSphere is a mesh's local-space bounding sphere: 16 bytes, center then radius.
type BoundingSphere struct {
	Center [3]float32
	Radius float32
}

// transform is the on-device instance transform layout: a column-major 4x4 matrix, 64 bytes.
type transform [16]float32

// identifier is the on-device instance identifier layout: an id plus three pad words
// to preserve the 16-byte stride the shader storage layout mandates. The padding is
// not cosmetic — removing it would misalign every subsequent identifier record.
type identifier struct {
	ID   uint32
	pad0 uint32
	pad1 uint32
	pad2 uint32
}

// MeshAtlasEntry is the host-side handle returned by AppendMesh. CommandIndex is -1
// on allocation failure; callers that only inspect this struct (rather than the
// accompanying error) can still observe the failure via that sentinel value.
type MeshAtlasEntry struct {
	CommandIndex int32
	BaseVertex   uint32
	FirstIndex   uint32
	IndexCount   uint32
}

// Phase is the pool's two-state lifecycle: Loading while meshes/instances are being
// appended, Finalized once Finalize has compacted the remap buffer and the indirect
// command table is render-ready. The transition is one-way.
type Phase int

const (
	// PhaseLoading is the pool's state from construction until a successful Finalize.
	PhaseLoading Phase = iota
	// PhaseFinalized is the pool's state after Finalize succeeds. Render and cull
	// operations are no-ops outside this phase.
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "Loading"
	case PhaseFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

// PoolCapacities reports the fixed capacities a Pool was constructed with.
type PoolCapacities struct {
	Vertices    uint32
	Indices     uint32
	Instances   uint32
	MaxCommands uint32
}

// PoolUsage reports the running totals a Pool has accumulated so far, letting a
// collaborator (e.g. the tileset loader) decide to stop feeding chunks before
// hitting ErrCapacityExceeded rather than after.
type PoolUsage struct {
	Vertices  uint32
	Indices   uint32
	Instances uint32
	Commands  uint32
}

// segment is a pending (command, first_instance, count) triple recorded during
// ingest and consumed during Finalize. Segments are append-only and are not
// sorted by command at ingest time.
type segment struct {
	commandIndex  int32
	firstInstance uint32
	count         uint32
}
