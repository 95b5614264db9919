package gpuatlas

import (
	"context"
	"log"

	"github.com/oxygpu/atlasrender/common"
)

// finalizedLayout is the pure compaction result produced by compactSegments: a
// remap prefix, an instance-to-command map prefix, per-command base offsets, and
// the resulting per-command instance counts, keyed by command index. Separated
// from Finalize so the compaction algorithm is testable without a GPU device.
type finalizedLayout struct {
	remap              []uint32
	instanceCommandMap []uint32
	baseOffsets        map[int32]uint32
	instanceCounts     map[int32]uint32
	totalFinalized     uint32
}

// compactSegments buckets segments by command index, then walks every
// allocated command index in ascending order (0 through commandCount-1)
// writing each command's segments (in recording order) into a contiguous
// remap region. Every command index gets a baseOffsets/instanceCounts entry
// even when it has no segments at all, so the table stays monotonic — the
// cull shader's reset pass derives a command's finalized instance count from
// the gap between consecutive base offsets, and a missing entry for a
// zero-instance command would make that gap collapse to zero and skip the
// reset for the command before it. This is the pure algorithmic core of
// Finalize: no GPU state is touched.
func compactSegments(segments []segment, commandCount int32, capacityInstances uint32) finalizedLayout {
	byCommand := make(map[int32][]segment)
	for _, seg := range segments {
		byCommand[seg.commandIndex] = append(byCommand[seg.commandIndex], seg)
	}

	layout := finalizedLayout{
		remap:              make([]uint32, capacityInstances),
		instanceCommandMap: make([]uint32, capacityInstances),
		baseOffsets:        make(map[int32]uint32, commandCount),
		instanceCounts:     make(map[int32]uint32, commandCount),
	}

	var cursor uint32
	for c := int32(0); c < commandCount; c++ {
		offsetC := cursor
		var k uint32
		for _, seg := range byCommand[c] {
			for i := uint32(0); i < seg.count; i++ {
				t := seg.firstInstance + i
				layout.remap[offsetC+k] = t
				layout.instanceCommandMap[t] = uint32(c)
				k++
			}
		}
		layout.instanceCounts[c] = k
		layout.baseOffsets[c] = offsetC
		cursor += k
	}

	layout.totalFinalized = cursor
	return layout
}

// Finalize compacts the pending segment list so each command's instance indices
// become contiguous in the remap buffer, then uploads the full indirect-draw
// table, the instance-to-command map, the command base-offset table, and the
// bounding-sphere table in one burst of buffer writes. Idempotent after success:
// a second call with no new segments returns ErrFinalizeEmpty and leaves state
// untouched.
//
// The context is checked once at entry only; there is no blocking I/O inside
// Finalize for it to cancel mid-way, it exists purely so the call shape matches
// every other fallible GPU operation in this module.
//
// Parameters:
//   - ctx: checked once at entry for cancellation
//
// Returns:
//   - error: ErrFinalizeEmpty if there are no pending segments; the pool's phase
//     is unchanged (PhaseLoading unless an earlier call succeeded). A context
//     error if ctx is already done.
func (p *Pool) Finalize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.segments) == 0 {
		log.Printf("gpuatlas: finalize called with no pending segments, pool remains %s", p.phase)
		return ErrFinalizeEmpty
	}

	layout := compactSegments(p.segments, p.commandCount, p.capacities.Instances)

	for c, count := range layout.instanceCounts {
		p.commands[c].InstanceCount = count
		p.commands[c].FirstInstance = layout.baseOffsets[c]
	}

	baseOffsets := make([]uint32, p.capacities.MaxCommands)
	for c, offset := range layout.baseOffsets {
		baseOffsets[c] = offset
	}

	p.queue.WriteBuffer(p.remapBuffer, 0, common.SliceToBytes(layout.remap[:layout.totalFinalized]))
	p.queue.WriteBuffer(p.indirectBuffer, 0, common.SliceToBytes(p.commands[:p.commandCount]))
	p.queue.WriteBuffer(p.instanceCommandMapBuffer, 0, common.SliceToBytes(layout.instanceCommandMap[:p.instanceCursor]))
	p.queue.WriteBuffer(p.commandBaseOffsetBuffer, 0, common.SliceToBytes(baseOffsets[:p.commandCount]))
	p.queue.WriteBuffer(p.boundingSphereBuffer, 0, common.SliceToBytes(p.boundingSpheres[:p.commandCount]))

	p.segments = nil
	p.phase = PhaseFinalized

	log.Printf("gpuatlas: finalized %d instances across %d commands", layout.totalFinalized, p.commandCount)

	return nil
}
