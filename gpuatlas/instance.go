package gpuatlas

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oxygpu/atlasrender/common"
)

// instanceAllocation is the pure bookkeeping result of reserving instance
// buffer space: the absolute start index the batch lands at, and the cursor a
// caller commits after the corresponding GPU writes succeed.
type instanceAllocation struct {
	startIndex uint32
	newCursor  uint32
}

// allocateInstanceSlot computes where a batch of count instances lands given
// the current instance cursor and capacity. No GPU state is touched; this is
// the pure algorithmic core of AppendInstances.
func allocateInstanceSlot(instanceCursor, capacityInstances, count uint32) (instanceAllocation, error) {
	newCursor := instanceCursor + count
	if newCursor > capacityInstances {
		return instanceAllocation{}, fmt.Errorf("gpuatlas: instance buffers %w", ErrCapacityExceeded)
	}
	return instanceAllocation{startIndex: instanceCursor, newCursor: newCursor}, nil
}

// AppendInstances appends a batch of transform matrices and identifiers into the
// instance transform/identifier buffers at the current instance cursor. One
// chunk of input may call this multiple times; the returned start index plus
// len(transforms) gives the appended range.
//
// Parameters:
//   - transforms: column-major 4x4 model matrices, one per instance, non-empty
//   - ids: one identifier per instance; len(ids) must equal len(transforms)
//
// Returns:
//   - uint32: the absolute instance index of the first appended instance
//   - error: ErrCapacityExceeded if the instance buffers would overflow, or a
//     length-mismatch error
func (p *Pool) AppendInstances(transforms []mgl32.Mat4, ids []uint32) (uint32, error) {
	if len(transforms) == 0 || len(ids) == 0 {
		return 0, fmt.Errorf("gpuatlas: instance batch must be non-empty")
	}
	if len(transforms) != len(ids) {
		return 0, fmt.Errorf("gpuatlas: len(transforms) (%d) must equal len(ids) (%d)", len(transforms), len(ids))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	alloc, err := allocateInstanceSlot(p.instanceCursor, p.capacities.Instances, uint32(len(transforms)))
	if err != nil {
		return 0, err
	}

	count := uint32(len(transforms))
	rawTransforms := make([]transform, count)
	rawIdentifiers := make([]identifier, count)
	for i := range transforms {
		rawTransforms[i] = transform(transforms[i])
		rawIdentifiers[i] = identifier{ID: ids[i]}
	}

	p.queue.WriteBuffer(p.transformBuffer, uint64(alloc.startIndex)*transformByteSize, common.SliceToBytes(rawTransforms))
	p.queue.WriteBuffer(p.identifierBuffer, uint64(alloc.startIndex)*identifierByteSize, common.SliceToBytes(rawIdentifiers))

	p.instanceCursor = alloc.newCursor

	return alloc.startIndex, nil
}

// RecordCommandInstances accumulates a pending (command, first_instance, count)
// segment describing instances appended for a single draw command. The segment
// is not yet visible to the remap buffer; that only happens at Finalize.
//
// Parameters:
//   - commandIndex: the draw command these instances belong to
//   - firstInstanceStart: the absolute instance index returned by the
//     corresponding AppendInstances call (or a sub-range of it)
//   - count: how many contiguous instances starting at firstInstanceStart belong
//     to commandIndex
func (p *Pool) RecordCommandInstances(commandIndex int32, firstInstanceStart, count uint32) {
	if count == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.segments = append(p.segments, segment{
		commandIndex:  commandIndex,
		firstInstance: firstInstanceStart,
		count:         count,
	})
}
