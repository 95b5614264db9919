package gpuatlas

import (
	"fmt"
	"math"

	"github.com/oxygpu/atlasrender/common"
)

// meshAllocation is the pure bookkeeping result of reserving vertex/index atlas
// space and a command slot for a mesh: where it lands, and the cursors a
// caller commits after the corresponding GPU writes succeed.
type meshAllocation struct {
	entry           MeshAtlasEntry
	newVertexCursor uint32
	newIndexCursor  uint32
	newCommandCount int32
}

// allocateMeshSlot computes where a mesh's vertices, indices, and command slot
// land given the atlas's current cursors and fixed capacities. No GPU state is
// touched; this is the pure algorithmic core of AppendMesh; on error the
// caller's cursors are left untouched by construction, since it only reads
// them.
//
// Parameters:
//   - vertexCursor, indexCursor: the atlas's current cursors
//   - commandCount: the number of commands already allocated
//   - capacities: the pool's fixed capacities
//   - vertexCount, indexCount: the size of the mesh being appended
//
// Returns:
//   - meshAllocation: the allocated offsets and the cursors to commit
//   - error: ErrCapacityExceeded if the vertex atlas, index atlas, or command
//     table would overflow
func allocateMeshSlot(vertexCursor, indexCursor uint32, commandCount int32, capacities PoolCapacities, vertexCount, indexCount uint32) (meshAllocation, error) {
	newVertexCursor := vertexCursor + vertexCount
	newIndexCursor := indexCursor + indexCount
	newCommandCount := commandCount + 1

	if newVertexCursor > capacities.Vertices {
		return meshAllocation{}, fmt.Errorf("gpuatlas: vertex atlas %w", ErrCapacityExceeded)
	}
	if newIndexCursor > capacities.Indices {
		return meshAllocation{}, fmt.Errorf("gpuatlas: index atlas %w", ErrCapacityExceeded)
	}
	if uint32(newCommandCount) > capacities.MaxCommands {
		return meshAllocation{}, fmt.Errorf("gpuatlas: command table %w", ErrCapacityExceeded)
	}

	return meshAllocation{
		entry: MeshAtlasEntry{
			CommandIndex: commandCount,
			BaseVertex:   vertexCursor,
			FirstIndex:   indexCursor,
			IndexCount:   indexCount,
		},
		newVertexCursor: newVertexCursor,
		newIndexCursor:  newIndexCursor,
		newCommandCount: newCommandCount,
	}, nil
}

// AppendMesh appends a unique mesh's interleaved vertex data and index list into
// the shared vertex/index atlases, allocates a new indirect draw-command slot,
// computes and stores the mesh's local bounding sphere, and returns the offsets.
//
// Deduplication across input chunks (mapping the same mesh fingerprint to the
// same MeshAtlasEntry) is the caller's responsibility; AppendMesh always
// allocates a fresh command.
//
// Parameters:
//   - vertices: the mesh's vertices, non-empty
//   - indices: the mesh's indices, local to the mesh's own vertex range, non-empty
//
// Returns:
//   - MeshAtlasEntry: the allocated command index and atlas offsets. CommandIndex
//     is -1 when err is non-nil.
//   - error: ErrCapacityExceeded if the vertex atlas, index atlas, or command
//     table would overflow
func (p *Pool) AppendMesh(vertices []Vertex, indices []uint32) (MeshAtlasEntry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return MeshAtlasEntry{CommandIndex: -1}, fmt.Errorf("gpuatlas: mesh must have non-zero vertices and indices")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	alloc, err := allocateMeshSlot(p.vertexCursor, p.indexCursor, p.commandCount, p.capacities, uint32(len(vertices)), uint32(len(indices)))
	if err != nil {
		return MeshAtlasEntry{CommandIndex: -1}, err
	}

	entry := alloc.entry
	commandIndex := entry.CommandIndex

	center, radius := localBoundingSphere(vertices)

	p.queue.WriteBuffer(p.vertexBuffer, uint64(entry.BaseVertex)*vertexByteSize, common.SliceToBytes(vertices))
	p.queue.WriteBuffer(p.indexBuffer, uint64(entry.FirstIndex)*indexByteSize, common.SliceToBytes(indices))

	p.commands[commandIndex] = IndirectCommand{
		IndexCount:    entry.IndexCount,
		InstanceCount: 0,
		FirstIndex:    entry.FirstIndex,
		BaseVertex:    entry.BaseVertex,
		FirstInstance: 0,
	}
	p.boundingSpheres[commandIndex] = BoundingSphere{Center: center, Radius: radius}
	p.queue.WriteBuffer(p.boundingSphereBuffer, uint64(commandIndex)*boundingSphereByteSize,
		common.StructToBytes(&p.boundingSpheres[commandIndex]))

	p.vertexCursor = alloc.newVertexCursor
	p.indexCursor = alloc.newIndexCursor
	p.commandCount = alloc.newCommandCount

	return entry, nil
}

// localBoundingSphere computes a mesh's local-space bounding sphere as the
// centroid of its vertex positions and the maximum Euclidean distance from that
// centroid to any vertex. This deliberately overestimates for unevenly
// distributed vertices; tighter bounding algorithms are not implemented.
func localBoundingSphere(vertices []Vertex) (center [3]float32, radius float32) {
	var sum [3]float64
	for _, v := range vertices {
		sum[0] += float64(v.Position[0])
		sum[1] += float64(v.Position[1])
		sum[2] += float64(v.Position[2])
	}
	n := float64(len(vertices))
	center = [3]float32{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n)}

	var maxDistSq float64
	for _, v := range vertices {
		dx := float64(v.Position[0] - center[0])
		dy := float64(v.Position[1] - center[1])
		dz := float64(v.Position[2] - center[2])
		distSq := dx*dx + dy*dy + dz*dz
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}

	radius = float32(math.Sqrt(maxDistSq))
	if radius < minBoundingRadius {
		radius = minBoundingRadius
	}
	return center, radius
}
