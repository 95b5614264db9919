// Package cull extracts world-space frustum planes from a camera's
// view-projection matrix and drives the two compute passes (reset, cull)
// that populate a geometry atlas pool's remap buffer each frame.
package cull

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a single frustum plane in the form n.x*x + n.y*y + n.z*z + d = 0,
// oriented so dot(n, p) + d >= 0 means p is inside the half-space.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum is the six planes of a view frustum, in Left, Right, Bottom, Top,
// Near, Far order.
type Frustum struct {
	Planes [6]Plane
}

const (
	frustumLeft = iota
	frustumRight
	frustumBottom
	frustumTop
	frustumNear
	frustumFar
)

// ExtractFrustum derives the six world-space frustum planes from a combined
// view-projection matrix using the Gribb/Hartmann method. Unlike a 0-centered
// NDC-Z convention, Near/Far here follow WebGPU's [0,1] depth range: Near is
// row2 directly, Far is row3-row2.
//
// Parameters:
//   - viewProj: the projection matrix times the view matrix (Proj * View),
//     consistent with this package's column-vector convention clipPos = M * worldPos
//
// Returns:
//   - Frustum: six normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}

	row0, row1, row2, row3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[frustumLeft] = newPlane(add(row3, row0))
	f.Planes[frustumRight] = newPlane(sub(row3, row0))
	f.Planes[frustumBottom] = newPlane(add(row3, row1))
	f.Planes[frustumTop] = newPlane(sub(row3, row1))
	f.Planes[frustumNear] = newPlane(row2)
	f.Planes[frustumFar] = newPlane(sub(row3, row2))

	return f
}

func add(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func sub(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// VisibleSphere reports whether a world-space bounding sphere survives this
// frustum's 6-plane test: the same `dot(n, center) + d < -radius` rejection
// the cull shader applies per instance, mirrored on the host for testing
// without a GPU device.
func VisibleSphere(f Frustum, center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		n := mgl32.Vec3{p.Normal[0], p.Normal[1], p.Normal[2]}
		dist := n.Dot(center) + p.Distance
		if dist < -radius {
			return false
		}
	}
	return true
}

func newPlane(v [4]float32) Plane {
	p := Plane{Normal: [3]float32{v[0], v[1], v[2]}, Distance: v[3]}
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2],
	)))
	if length >= 1e-6 {
		inv := 1 / length
		p.Normal[0] *= inv
		p.Normal[1] *= inv
		p.Normal[2] *= inv
		p.Distance *= inv
	}
	return p
}
