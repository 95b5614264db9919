package cull

import (
	"testing"
	"unsafe"
)

func TestCullingUniformSize(t *testing.T) {
	var u CullingUniform
	if got, want := unsafe.Sizeof(u), uintptr(112); got != want {
		t.Errorf("unsafe.Sizeof(CullingUniform) = %d, want %d", got, want)
	}
}

func TestNewCullingUniformCopiesPlanes(t *testing.T) {
	var f Frustum
	for i := range f.Planes {
		f.Planes[i] = Plane{Normal: [3]float32{float32(i), 0, 0}, Distance: float32(i) * 2}
	}

	u := newCullingUniform(f, 500, 12)

	if u.TotalInstances != 500 {
		t.Errorf("TotalInstances = %d, want 500", u.TotalInstances)
	}
	if u.DrawCommandCount != 12 {
		t.Errorf("DrawCommandCount = %d, want 12", u.DrawCommandCount)
	}

	for i, p := range f.Planes {
		want := plane4{p.Normal[0], p.Normal[1], p.Normal[2], p.Distance}
		if u.Planes[i] != want {
			t.Errorf("Planes[%d] = %v, want %v", i, u.Planes[i], want)
		}
	}
}
