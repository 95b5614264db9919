package gpuatlas

import (
	"errors"
	"math"
	"testing"
)

func TestLocalBoundingSphereCube(t *testing.T) {
	// Unit cube centered on the origin, corners at +/-0.5 on every axis.
	vertices := []Vertex{
		{Position: [3]float32{-0.5, -0.5, -0.5}},
		{Position: [3]float32{0.5, -0.5, -0.5}},
		{Position: [3]float32{-0.5, 0.5, -0.5}},
		{Position: [3]float32{0.5, 0.5, -0.5}},
		{Position: [3]float32{-0.5, -0.5, 0.5}},
		{Position: [3]float32{0.5, -0.5, 0.5}},
		{Position: [3]float32{-0.5, 0.5, 0.5}},
		{Position: [3]float32{0.5, 0.5, 0.5}},
	}

	center, radius := localBoundingSphere(vertices)

	wantCenter := [3]float32{0, 0, 0}
	if center != wantCenter {
		t.Errorf("center = %v, want %v", center, wantCenter)
	}

	wantRadius := float32(math.Sqrt(0.75))
	if diff := math.Abs(float64(radius - wantRadius)); diff > 1e-5 {
		t.Errorf("radius = %v, want %v", radius, wantRadius)
	}
}

func TestLocalBoundingSphereOffCenter(t *testing.T) {
	vertices := []Vertex{
		{Position: [3]float32{10, 0, 0}},
		{Position: [3]float32{12, 0, 0}},
	}

	center, radius := localBoundingSphere(vertices)

	wantCenter := [3]float32{11, 0, 0}
	if center != wantCenter {
		t.Errorf("center = %v, want %v", center, wantCenter)
	}
	if radius != 1 {
		t.Errorf("radius = %v, want 1", radius)
	}
}

func TestLocalBoundingSphereDegenerateClampsRadius(t *testing.T) {
	// A single repeated point has zero spread; the radius must be clamped to
	// the minimum so the cull shader never sees a zero-radius sphere.
	vertices := []Vertex{
		{Position: [3]float32{5, 5, 5}},
		{Position: [3]float32{5, 5, 5}},
	}

	_, radius := localBoundingSphere(vertices)

	if radius != minBoundingRadius {
		t.Errorf("radius = %v, want clamped minimum %v", radius, minBoundingRadius)
	}
}

func TestAllocateMeshSlotAccumulatesCursors(t *testing.T) {
	// S1: appending three meshes in sequence must derive strictly increasing,
	// non-overlapping vertex/index offsets and sequential command indices,
	// entirely from cursor arithmetic, with no GPU device involved.
	capacities := PoolCapacities{Vertices: 100, Indices: 200, Instances: 10, MaxCommands: 10}

	var vertexCursor, indexCursor uint32
	var commandCount int32

	sizes := []struct{ vertices, indices uint32 }{
		{vertices: 8, indices: 36},
		{vertices: 5, indices: 12},
		{vertices: 6, indices: 24},
	}

	var entries []MeshAtlasEntry
	for _, s := range sizes {
		alloc, err := allocateMeshSlot(vertexCursor, indexCursor, commandCount, capacities, s.vertices, s.indices)
		if err != nil {
			t.Fatalf("allocateMeshSlot: unexpected error: %v", err)
		}
		entries = append(entries, alloc.entry)
		vertexCursor = alloc.newVertexCursor
		indexCursor = alloc.newIndexCursor
		commandCount = alloc.newCommandCount
	}

	wantEntries := []MeshAtlasEntry{
		{CommandIndex: 0, BaseVertex: 0, FirstIndex: 0, IndexCount: 36},
		{CommandIndex: 1, BaseVertex: 8, FirstIndex: 36, IndexCount: 12},
		{CommandIndex: 2, BaseVertex: 13, FirstIndex: 48, IndexCount: 24},
	}
	for i, want := range wantEntries {
		if entries[i] != want {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want)
		}
	}
	if vertexCursor != 19 {
		t.Errorf("final vertexCursor = %d, want 19", vertexCursor)
	}
	if indexCursor != 72 {
		t.Errorf("final indexCursor = %d, want 72", indexCursor)
	}
	if commandCount != 3 {
		t.Errorf("final commandCount = %d, want 3", commandCount)
	}
}

func TestAllocateMeshSlotCapacityExceeded(t *testing.T) {
	tests := []struct {
		name       string
		capacities PoolCapacities
	}{
		{"vertex atlas full", PoolCapacities{Vertices: 4, Indices: 100, Instances: 10, MaxCommands: 10}},
		{"index atlas full", PoolCapacities{Vertices: 100, Indices: 4, Instances: 10, MaxCommands: 10}},
		{"command table full", PoolCapacities{Vertices: 100, Indices: 100, Instances: 10, MaxCommands: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := allocateMeshSlot(0, 0, 0, tt.capacities, 8, 36)
			if !errors.Is(err, ErrCapacityExceeded) {
				t.Fatalf("err = %v, want ErrCapacityExceeded", err)
			}
		})
	}
}

func TestAllocateMeshSlotAcceptsExactlyAtBoundary(t *testing.T) {
	// A mesh that exactly fills remaining capacity must still succeed; only
	// exceeding it is an error.
	capacities := PoolCapacities{Vertices: 8, Indices: 36, Instances: 10, MaxCommands: 1}
	alloc, err := allocateMeshSlot(0, 0, 0, capacities, 8, 36)
	if err != nil {
		t.Fatalf("unexpected error at exact capacity: %v", err)
	}
	if alloc.newVertexCursor != 8 || alloc.newIndexCursor != 36 || alloc.newCommandCount != 1 {
		t.Errorf("alloc = %+v, want cursors at capacity", alloc)
	}
}

