package gpuatlas

import (
	"errors"
	"testing"
)

func TestAllocateInstanceSlotAccumulatesCursor(t *testing.T) {
	// S2: appending several instance batches must return a dense,
	// non-overlapping run of start indices derived purely from the running
	// cursor, with no GPU device involved.
	const capacity = 20

	var cursor uint32
	counts := []uint32{5, 3, 8}

	var starts []uint32
	for _, count := range counts {
		alloc, err := allocateInstanceSlot(cursor, capacity, count)
		if err != nil {
			t.Fatalf("allocateInstanceSlot: unexpected error: %v", err)
		}
		starts = append(starts, alloc.startIndex)
		cursor = alloc.newCursor
	}

	wantStarts := []uint32{0, 5, 8}
	for i, want := range wantStarts {
		if starts[i] != want {
			t.Errorf("starts[%d] = %d, want %d", i, starts[i], want)
		}
	}
	if cursor != 16 {
		t.Errorf("final cursor = %d, want 16", cursor)
	}
}

func TestAllocateInstanceSlotCapacityExceeded(t *testing.T) {
	_, err := allocateInstanceSlot(18, 20, 5)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestAllocateInstanceSlotExactlyAtBoundary(t *testing.T) {
	alloc, err := allocateInstanceSlot(12, 20, 8)
	if err != nil {
		t.Fatalf("unexpected error at exact capacity: %v", err)
	}
	if alloc.startIndex != 12 || alloc.newCursor != 20 {
		t.Errorf("alloc = %+v, want startIndex=12 newCursor=20", alloc)
	}
}
