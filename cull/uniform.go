package cull

// plane4 is a single plane equation laid out as a vec4<f32> for the shader: n.x, n.y, n.z, d.
type plane4 [4]float32

// CullingUniform is the 112-byte per-frame uniform the cull shaders read: six
// normalized world-space plane equations followed by the two live counts and
// their padding.
type CullingUniform struct {
	Planes           [6]plane4
	TotalInstances   uint32
	DrawCommandCount uint32
	pad0, pad1       uint32
}

func newCullingUniform(f Frustum, totalInstances, drawCommandCount uint32) CullingUniform {
	var u CullingUniform
	for i, p := range f.Planes {
		u.Planes[i] = plane4{p.Normal[0], p.Normal[1], p.Normal[2], p.Distance}
	}
	u.TotalInstances = totalInstances
	u.DrawCommandCount = drawCommandCount
	return u
}
