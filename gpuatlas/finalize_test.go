package gpuatlas

import "testing"

func TestCompactSegmentsContiguousPerCommand(t *testing.T) {
	// Two commands, each fed by two out-of-order segments. Every command's
	// instances must land in one contiguous remap run regardless of the order
	// segments were recorded in.
	segments := []segment{
		{commandIndex: 1, firstInstance: 10, count: 2},
		{commandIndex: 0, firstInstance: 0, count: 3},
		{commandIndex: 1, firstInstance: 20, count: 1},
		{commandIndex: 0, firstInstance: 3, count: 2},
	}

	layout := compactSegments(segments, 2, 24)

	if layout.totalFinalized != 8 {
		t.Fatalf("totalFinalized = %d, want 8", layout.totalFinalized)
	}

	// command 0 gets the first contiguous run (ascending command index order).
	if got, want := layout.baseOffsets[0], uint32(0); got != want {
		t.Errorf("baseOffsets[0] = %d, want %d", got, want)
	}
	if got, want := layout.instanceCounts[0], uint32(5); got != want {
		t.Errorf("instanceCounts[0] = %d, want %d", got, want)
	}
	wantCommand0 := []uint32{0, 1, 2, 3, 4}
	for i, v := range wantCommand0 {
		if layout.remap[i] != v {
			t.Errorf("remap[%d] = %d, want %d", i, layout.remap[i], v)
		}
	}

	// command 1 follows immediately after, still contiguous, in recording order
	// of its two segments (10,11 then 20).
	if got, want := layout.baseOffsets[1], uint32(5); got != want {
		t.Errorf("baseOffsets[1] = %d, want %d", got, want)
	}
	if got, want := layout.instanceCounts[1], uint32(3); got != want {
		t.Errorf("instanceCounts[1] = %d, want %d", got, want)
	}
	wantCommand1 := []uint32{10, 11, 20}
	for i, v := range wantCommand1 {
		if layout.remap[5+i] != v {
			t.Errorf("remap[%d] = %d, want %d", 5+i, layout.remap[5+i], v)
		}
	}
}

func TestCompactSegmentsInstanceCommandMapConsistency(t *testing.T) {
	segments := []segment{
		{commandIndex: 2, firstInstance: 0, count: 2},
		{commandIndex: 0, firstInstance: 2, count: 1},
	}

	layout := compactSegments(segments, 3, 8)

	// Every remapped slot's target instance must map back to the command that
	// produced it.
	for commandSlot, instanceIdx := range layout.remap[:layout.totalFinalized] {
		_ = commandSlot
		mappedCommand := layout.instanceCommandMap[instanceIdx]
		found := false
		for c, offset := range layout.baseOffsets {
			count := layout.instanceCounts[c]
			if instanceIdxIsInRange(layout.remap, offset, count, instanceIdx) {
				if uint32(c) != mappedCommand {
					t.Errorf("instance %d mapped to command %d, but remap places it under command %d", instanceIdx, mappedCommand, c)
				}
				found = true
			}
		}
		if !found {
			t.Errorf("instance %d not found in any command's remap range", instanceIdx)
		}
	}
}

func instanceIdxIsInRange(remap []uint32, offset, count, instanceIdx uint32) bool {
	for i := offset; i < offset+count; i++ {
		if remap[i] == instanceIdx {
			return true
		}
	}
	return false
}

func TestCompactSegmentsDisjointAcrossCommands(t *testing.T) {
	segments := []segment{
		{commandIndex: 0, firstInstance: 0, count: 4},
		{commandIndex: 1, firstInstance: 4, count: 4},
		{commandIndex: 2, firstInstance: 8, count: 4},
	}

	layout := compactSegments(segments, 3, 12)

	seen := make(map[uint32]int32)
	for c, offset := range layout.baseOffsets {
		count := layout.instanceCounts[c]
		for i := offset; i < offset+count; i++ {
			if prev, ok := seen[i]; ok {
				t.Errorf("remap slot %d claimed by both command %d and command %d", i, prev, c)
			}
			seen[i] = c
		}
	}
	if len(seen) != 12 {
		t.Errorf("got %d distinct remap slots claimed, want 12", len(seen))
	}
}

func TestCompactSegmentsDeterministic(t *testing.T) {
	segments := []segment{
		{commandIndex: 3, firstInstance: 5, count: 2},
		{commandIndex: 1, firstInstance: 0, count: 2},
		{commandIndex: 2, firstInstance: 2, count: 3},
	}

	first := compactSegments(segments, 4, 10)
	second := compactSegments(segments, 4, 10)

	if first.totalFinalized != second.totalFinalized {
		t.Fatalf("totalFinalized differs across runs: %d vs %d", first.totalFinalized, second.totalFinalized)
	}
	for i := uint32(0); i < first.totalFinalized; i++ {
		if first.remap[i] != second.remap[i] {
			t.Errorf("remap[%d] differs across runs: %d vs %d", i, first.remap[i], second.remap[i])
		}
	}
	for c := range first.baseOffsets {
		if first.baseOffsets[c] != second.baseOffsets[c] {
			t.Errorf("baseOffsets[%d] differs across runs: %d vs %d", c, first.baseOffsets[c], second.baseOffsets[c])
		}
	}
}

func TestCompactSegmentsEmpty(t *testing.T) {
	layout := compactSegments(nil, 0, 4)
	if layout.totalFinalized != 0 {
		t.Errorf("totalFinalized = %d, want 0", layout.totalFinalized)
	}
	if len(layout.baseOffsets) != 0 {
		t.Errorf("baseOffsets = %v, want empty", layout.baseOffsets)
	}
}

func TestCompactSegmentsForwardFillsZeroInstanceCommands(t *testing.T) {
	// Command index 1 has no segments at all, sitting between two commands
	// that do. Its base offset must still be recorded, forward-filled to the
	// running cursor left by command 0, not left absent or zero-valued -
	// otherwise the cull shader's reset pass would compute command 0's
	// finalized count as base_offsets[1] - base_offsets[0] == 0 - 0 and skip
	// resetting it every frame.
	segments := []segment{
		{commandIndex: 0, firstInstance: 0, count: 3},
		{commandIndex: 2, firstInstance: 3, count: 1},
	}

	layout := compactSegments(segments, 3, 4)

	if len(layout.baseOffsets) != 3 {
		t.Fatalf("len(baseOffsets) = %d, want 3", len(layout.baseOffsets))
	}
	if got, want := layout.baseOffsets[0], uint32(0); got != want {
		t.Errorf("baseOffsets[0] = %d, want %d", got, want)
	}
	if got, want := layout.instanceCounts[1], uint32(0); got != want {
		t.Errorf("instanceCounts[1] = %d, want %d", got, want)
	}
	if got, want := layout.baseOffsets[1], uint32(3); got != want {
		t.Errorf("baseOffsets[1] = %d, want %d (forward-filled to command 0's end)", got, want)
	}
	if got, want := layout.baseOffsets[2], uint32(3); got != want {
		t.Errorf("baseOffsets[2] = %d, want %d", got, want)
	}
	if got, want := layout.instanceCounts[2], uint32(1); got != want {
		t.Errorf("instanceCounts[2] = %d, want %d", got, want)
	}

	// The property the reset shader relies on: base offsets are monotonic
	// across every command index, with no gaps.
	for c := int32(1); c < 3; c++ {
		if layout.baseOffsets[c] < layout.baseOffsets[c-1] {
			t.Errorf("baseOffsets not monotonic at command %d: %d < %d", c, layout.baseOffsets[c], layout.baseOffsets[c-1])
		}
	}
}
