package render

// RenderUniform is the 96-byte per-frame uniform the render shaders read: the
// combined view-projection matrix, the camera's world position, a reserved
// selection id passed through for a picking collaborator, and elapsed time.
type RenderUniform struct {
	ViewProjection [16]float32 // offset 0: mat4x4<f32>
	CameraPosition [3]float32  // offset 64: vec3<f32>
	SelectedID     uint32      // offset 76: reserved for a picking/highlight collaborator
	TimeSeconds    float32     // offset 80
	pad0, pad1, pad2 uint32    // offset 84: pad to the 16-byte uniform block multiple
}
