// Command atlasdemo drives a geometry atlas pool through a small fixed scene:
// a handful of unique meshes stamped out as many instances, culled by compute
// every frame and drawn with one indirect draw call per mesh.
package main

import (
	"context"
	"log"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oxygpu/atlasrender/common"
	"github.com/oxygpu/atlasrender/cull"
	"github.com/oxygpu/atlasrender/engine"
	"github.com/oxygpu/atlasrender/engine/camera"
	"github.com/oxygpu/atlasrender/engine/renderer"
	"github.com/oxygpu/atlasrender/engine/window"
	"github.com/oxygpu/atlasrender/gpuatlas"
	"github.com/oxygpu/atlasrender/render"
)

const (
	gridSide     = 64
	gridSpacing  = 3.0
	meshCount    = 3
	instanceCap  = gridSide * gridSide * meshCount
	vertexCap    = 4096
	indexCap     = 8192
	maxCommands  = meshCount
)

func main() {
	eng := engine.NewEngine(
		engine.WithProfiling(true),
		engine.WithTickRate(60),
		engine.WithWindow(window.NewWindow(
			window.WithTitle("Atlas Render Demo"),
			window.WithWidth(1600),
			window.WithHeight(900),
		)),
	)

	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		eng.Window(),
		renderer.WithPresentMode(renderer.PresentModeUncapped),
		renderer.WithMSAA(renderer.MSAAOff),
	)

	cam := camera.NewCamera(
		camera.WithFov(float32(60.0*math.Pi/180.0)),
		camera.WithAspect(float32(eng.Window().Width())/float32(eng.Window().Height())),
		camera.WithNear(0.1),
		camera.WithFar(10000),
		camera.WithController(camera.NewCameraController(
			camera.WithRadius(180),
			camera.WithTarget(0, 0, 0),
			camera.WithElevation(0.6),
			camera.WithAzimuth(0.3),
			camera.WithRadiusBounds(10, 5000),
			camera.WithZoomSpeed(30.0),
			camera.WithMouseSensitivity(0.002),
		)),
	)

	pool, err := gpuatlas.NewPool(r.Device(), r.Queue(),
		gpuatlas.WithCapacityVertices(vertexCap),
		gpuatlas.WithCapacityIndices(indexCap),
		gpuatlas.WithCapacityInstances(instanceCap),
		gpuatlas.WithMaxCommands(maxCommands),
	)
	if err != nil {
		log.Fatalf("atlasdemo: failed to create pool: %v", err)
	}

	seedScene(pool)

	if err := pool.Finalize(context.Background()); err != nil {
		log.Fatalf("atlasdemo: failed to finalize pool: %v", err)
	}

	cullDriver, err := cull.NewDriver(r.Device())
	if err != nil {
		log.Fatalf("atlasdemo: failed to create cull driver: %v", err)
	}

	renderDriver, err := render.NewDriver(r.Device(), r.SurfaceFormat(), render.DepthConventionStandard)
	if err != nil {
		log.Fatalf("atlasdemo: failed to create render driver: %v", err)
	}

	var elapsed float32
	keyState := setupInput(eng, cam)

	eng.SetTickCallback(func(deltaTime float32) {
		elapsed += deltaTime

		if keyState[common.KeyW] {
			cam.Controller().PanForward(1)
		}
		if keyState[common.KeyS] {
			cam.Controller().PanForward(-1)
		}
		if keyState[common.KeyA] {
			cam.Controller().PanRight(-1)
		}
		if keyState[common.KeyD] {
			cam.Controller().PanRight(1)
		}
		if keyState[common.KeyQ] {
			cam.Controller().PanUp(1)
		}
		if keyState[common.KeyE] {
			cam.Controller().PanUp(-1)
		}

		cam.Update()
	})

	eng.SetResizeCallback(func(width, height int) {
		r.Resize(width, height)
		cam.SetAspect(float32(width) / float32(height))
	})

	eng.SetRenderCallback(func(_ float32) {
		if err := r.BeginFrame(); err != nil {
			log.Printf("atlasdemo: failed to begin frame: %v", err)
			return
		}

		viewProj := mgl32.Mat4(cam.ViewProjectionMatrix())
		cullDriver.Dispatch(r.FrameEncoder(), r.Queue(), pool, viewProj)

		r.BeginRenderPass()

		px, py, pz := cam.Controller().Position()
		uniform := render.RenderUniform{
			ViewProjection: cam.ViewProjectionMatrix(),
			CameraPosition: [3]float32{px, py, pz},
			TimeSeconds:    elapsed,
		}
		renderDriver.Render(r.FramePass(), r.Queue(), pool, uniform)

		r.EndRenderPass()
		r.EndFrame()
		r.Present()
	})

	log.Println("atlasdemo: starting")
	eng.Run()
}

// seedScene appends three unique meshes (cube, pyramid, octahedron) and
// stamps each one out across a grid of instances, recording every instance
// batch against its mesh's draw command before Finalize compacts them.
func seedScene(pool *gpuatlas.Pool) {
	cubeVertices, cubeIndices := cubeMesh()
	pyramidVertices, pyramidIndices := pyramidMesh()
	octahedronVertices, octahedronIndices := octahedronMesh()

	meshes := []gpuatlas.MeshAtlasEntry{
		mustAppendMesh(pool, cubeVertices, cubeIndices),
		mustAppendMesh(pool, pyramidVertices, pyramidIndices),
		mustAppendMesh(pool, octahedronVertices, octahedronIndices),
	}

	for meshIdx, mesh := range meshes {
		transforms := make([]mgl32.Mat4, 0, gridSide*gridSide)
		ids := make([]uint32, 0, gridSide*gridSide)

		for row := 0; row < gridSide; row++ {
			for col := 0; col < gridSide; col++ {
				x := (float32(col) - float32(gridSide-1)/2.0) * gridSpacing
				z := (float32(row)-float32(gridSide-1)/2.0)*gridSpacing + float32(meshIdx)*gridSide*gridSpacing*1.5
				transforms = append(transforms, mgl32.Translate3D(x, 0, z))
				ids = append(ids, rand.Uint32())
			}
		}

		start, err := pool.AppendInstances(transforms, ids)
		if err != nil {
			log.Fatalf("atlasdemo: failed to append instances for mesh %d: %v", meshIdx, err)
		}
		pool.RecordCommandInstances(mesh.CommandIndex, start, uint32(len(transforms)))
	}
}

func mustAppendMesh(pool *gpuatlas.Pool, vertices []gpuatlas.Vertex, indices []uint32) gpuatlas.MeshAtlasEntry {
	entry, err := pool.AppendMesh(vertices, indices)
	if err != nil {
		log.Fatalf("atlasdemo: failed to append mesh: %v", err)
	}
	return entry
}

func cubeMesh() ([]gpuatlas.Vertex, []uint32) {
	type face struct {
		positions [4][3]float32
		normal    [3]float32
	}
	faces := []face{
		{positions: [4][3]float32{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}}, normal: [3]float32{1, 0, 0}},
		{positions: [4][3]float32{{-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5}}, normal: [3]float32{-1, 0, 0}},
		{positions: [4][3]float32{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}}, normal: [3]float32{0, 1, 0}},
		{positions: [4][3]float32{{-0.5, -0.5, 0.5}, {-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}}, normal: [3]float32{0, -1, 0}},
		{positions: [4][3]float32{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, normal: [3]float32{0, 0, 1}},
		{positions: [4][3]float32{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, normal: [3]float32{0, 0, -1}},
	}

	vertices := make([]gpuatlas.Vertex, 0, 24)
	for _, f := range faces {
		for _, pos := range f.positions {
			vertices = append(vertices, gpuatlas.Vertex{Position: pos, Normal: f.normal})
		}
	}

	indices := make([]uint32, 0, 36)
	for fi := range faces {
		base := uint32(fi * 4)
		indices = append(indices, base+0, base+1, base+2, base+0, base+2, base+3)
	}

	return vertices, indices
}

func pyramidMesh() ([]gpuatlas.Vertex, []uint32) {
	apex := [3]float32{0, 0.5, 0}
	base := [4][3]float32{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}

	var vertices []gpuatlas.Vertex
	var indices []uint32

	for i := 0; i < 4; i++ {
		a := base[i]
		b := base[(i+1)%4]
		normal := triangleNormal(a, b, apex)
		start := uint32(len(vertices))
		vertices = append(vertices,
			gpuatlas.Vertex{Position: a, Normal: normal},
			gpuatlas.Vertex{Position: b, Normal: normal},
			gpuatlas.Vertex{Position: apex, Normal: normal},
		)
		indices = append(indices, start, start+1, start+2)
	}

	floorNormal := [3]float32{0, -1, 0}
	floorStart := uint32(len(vertices))
	for _, p := range base {
		vertices = append(vertices, gpuatlas.Vertex{Position: p, Normal: floorNormal})
	}
	indices = append(indices, floorStart, floorStart+2, floorStart+1, floorStart, floorStart+3, floorStart+2)

	return vertices, indices
}

func octahedronMesh() ([]gpuatlas.Vertex, []uint32) {
	poles := [6][3]float32{
		{0.5, 0, 0}, {-0.5, 0, 0},
		{0, 0.5, 0}, {0, -0.5, 0},
		{0, 0, 0.5}, {0, 0, -0.5},
	}
	// Eight faces, one per octant, each touching +/-X, +/-Y, +/-Z poles.
	faceIdx := [8][3]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}

	var vertices []gpuatlas.Vertex
	var indices []uint32
	for _, tri := range faceIdx {
		a, b, c := poles[tri[0]], poles[tri[1]], poles[tri[2]]
		normal := triangleNormal(a, b, c)
		start := uint32(len(vertices))
		vertices = append(vertices,
			gpuatlas.Vertex{Position: a, Normal: normal},
			gpuatlas.Vertex{Position: b, Normal: normal},
			gpuatlas.Vertex{Position: c, Normal: normal},
		)
		indices = append(indices, start, start+1, start+2)
	}

	return vertices, indices
}

func triangleNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if length < 1e-6 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{n[0] / length, n[1] / length, n[2] / length}
}

// setupInput wires mouse orbit/zoom directly and returns the live key-state
// map; WASD/QE panning is polled from the caller's tick callback since the
// engine only holds a single tick callback slot.
func setupInput(eng engine.Engine, cam camera.Camera) map[uint32]bool {
	keyState := make(map[uint32]bool)

	eng.Window().SetKeyDownCallback(func(keyCode uint32) { keyState[keyCode] = true })
	eng.Window().SetKeyUpCallback(func(keyCode uint32) { keyState[keyCode] = false })

	var dragging bool
	var lastX, lastY int32

	eng.Window().SetMiddleMouseDownCallback(func(x, y int32) {
		dragging = true
		lastX, lastY = x, y
	})
	eng.Window().SetMiddleMouseUpCallback(func(_, _ int32) { dragging = false })
	eng.Window().SetMouseMoveCallback(func(x, y int32) {
		if !dragging {
			return
		}
		dx := float32(x - lastX)
		dy := float32(y - lastY)
		cam.Controller().SetAzimuth(cam.Controller().Azimuth() + dx*cam.Controller().MouseSensitivity())
		cam.Controller().SetElevation(cam.Controller().Elevation() - dy*cam.Controller().MouseSensitivity())
		lastX, lastY = x, y
	})
	eng.Window().SetScrollCallback(func(delta float32) {
		cam.Controller().Zoom(delta)
	})

	return keyState
}
