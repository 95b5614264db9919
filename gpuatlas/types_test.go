package gpuatlas

import (
	"testing"
	"unsafe"
)

func TestVertexSize(t *testing.T) {
	v := Vertex{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 1, 0}}
	if got, want := unsafe.Sizeof(v), uintptr(vertexByteSize); got != want {
		t.Errorf("unsafe.Sizeof(Vertex) = %d, want %d", got, want)
	}
}

func TestIndirectCommandLayout(t *testing.T) {
	cmd := IndirectCommand{
		IndexCount:    100,
		InstanceCount: 10,
		FirstIndex:    0,
		BaseVertex:    0,
		FirstInstance: 0,
	}

	if got, want := unsafe.Sizeof(cmd), uintptr(indirectCommandSize); got != want {
		t.Errorf("unsafe.Sizeof(IndirectCommand) = %d, want %d", got, want)
	}

	raw := (*[5]uint32)(unsafe.Pointer(&cmd))
	want := [5]uint32{100, 10, 0, 0, 0}
	if *raw != want {
		t.Errorf("IndirectCommand field order = %v, want %v", *raw, want)
	}
}

func TestBoundingSphereSize(t *testing.T) {
	s := BoundingSphere{Center: [3]float32{1, 2, 3}, Radius: 4}
	if got, want := unsafe.Sizeof(s), uintptr(boundingSphereByteSize); got != want {
		t.Errorf("unsafe.Sizeof(BoundingSphere) = %d, want %d", got, want)
	}
}

func TestIdentifierSize(t *testing.T) {
	id := identifier{ID: 7}
	if got, want := unsafe.Sizeof(id), uintptr(identifierByteSize); got != want {
		t.Errorf("unsafe.Sizeof(identifier) = %d, want %d", got, want)
	}
}

func TestTransformSize(t *testing.T) {
	var tr transform
	if got, want := unsafe.Sizeof(tr), uintptr(transformByteSize); got != want {
		t.Errorf("unsafe.Sizeof(transform) = %d, want %d", got, want)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseLoading, "Loading"},
		{PhaseFinalized, "Finalized"},
		{Phase(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
