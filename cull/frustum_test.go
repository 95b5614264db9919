package cull

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oxygpu/atlasrender/common"
)

func testViewProj(t *testing.T, fovYDegrees float32) mgl32.Mat4 {
	t.Helper()

	var projRaw [16]float32
	common.Perspective(projRaw[:], float32(fovYDegrees*math.Pi/180), 1.0, 0.1, 100.0)
	proj := mgl32.Mat4(projRaw)

	eye := mgl32.Vec3{0, 0, 0}
	center := mgl32.Vec3{0, 0, 1}
	up := mgl32.Vec3{0, 1, 0}
	view := mgl32.LookAtV(eye, center, up)

	return proj.Mul4(view)
}

func TestFrustumCullSoundnessInFront(t *testing.T) {
	// S3: camera at origin looking along +Z, 90 degree FOV. Instance A at
	// (0,0,10) radius 0.5 must be visible.
	viewProj := testViewProj(t, 90)
	frustum := ExtractFrustum(viewProj)

	if !VisibleSphere(frustum, mgl32.Vec3{0, 0, 10}, 0.5) {
		t.Error("instance in front of camera within frustum should be visible")
	}
}

func TestFrustumCullSoundnessBehind(t *testing.T) {
	// S3: Instance B at (0,0,-10) radius 0.5, behind the camera, must not be visible.
	viewProj := testViewProj(t, 90)
	frustum := ExtractFrustum(viewProj)

	if VisibleSphere(frustum, mgl32.Vec3{0, 0, -10}, 0.5) {
		t.Error("instance behind camera should not be visible")
	}
}

func TestFrustumCullSoundnessLargeSphereStillVisible(t *testing.T) {
	// S4: same configuration, instance B at (0,0,10) with radius 50 clearly
	// intersects the frustum on every plane and must not be culled.
	viewProj := testViewProj(t, 90)
	frustum := ExtractFrustum(viewProj)

	if !VisibleSphere(frustum, mgl32.Vec3{0, 0, 10}, 50) {
		t.Error("large sphere intersecting every plane should not be culled")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	viewProj := testViewProj(t, 60)
	frustum := ExtractFrustum(viewProj)

	for i, p := range frustum.Planes {
		length := math.Sqrt(float64(
			p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2],
		))
		if math.Abs(length-1) > 1e-4 {
			t.Errorf("plane %d normal length = %v, want ~1", i, length)
		}
	}
}

func TestFrustumOffAxisInstanceCulledByPlane(t *testing.T) {
	// Far off to the side, well outside the left/right planes of a narrow FOV.
	viewProj := testViewProj(t, 30)
	frustum := ExtractFrustum(viewProj)

	if VisibleSphere(frustum, mgl32.Vec3{1000, 0, 10}, 0.5) {
		t.Error("instance far outside the side planes should be culled")
	}
}
