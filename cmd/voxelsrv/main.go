// Command voxelsrv is a minimal GLFW+WebGPU viewer: it streams a world
// generated by voxelgen through chunkmgr.Manager and draws whatever
// comes back from Render, driven by a flying camera.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/chunkmgr"
	"github.com/ridgeline-games/voxelstream/region"
	"github.com/ridgeline-games/voxelstream/voxel"
)

type uniformData struct {
	MVP    mgl32.Mat4
	Origin mgl32.Vec3
	_pad   float32
}

// noopColliderSink discards the collision-mesh callbacks: this viewer
// has no physics integration, only rendering.
type noopColliderSink struct{}

func (noopColliderSink) Add(voxel.ColliderHandle)    {}
func (noopColliderSink) Remove(voxel.ColliderHandle) {}

// gpuDrawSink implements streamio.DrawSink, uploading and drawing each
// chunk's front mesh buffer within the frame's already-open render
// pass.
type gpuDrawSink struct {
	ew             *engineWindow
	pipeline       *wgpu.RenderPipeline
	bindGroup      *wgpu.BindGroup
	uniformBuf     *wgpu.Buffer
	pass           *wgpu.RenderPassEncoder
	viewProjCached mgl32.Mat4
}

func (s *gpuDrawSink) Draw(mesh *voxel.MeshBuffer, origin mgl32.Vec3) {
	if len(mesh.Indices) == 0 {
		return
	}

	u := uniformData{MVP: s.viewProjCached, Origin: origin}
	s.ew.gpu.Queue.WriteBuffer(s.uniformBuf, 0, wgpu.ToBytes([]uniformData{u}))

	vertexBuf, err := s.ew.gpu.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "chunk vertices",
		Contents: wgpu.ToBytes(mesh.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	defer vertexBuf.Release()

	indexBuf, err := s.ew.gpu.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "chunk indices",
		Contents: wgpu.ToBytes(mesh.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}
	defer indexBuf.Release()

	s.pass.SetPipeline(s.pipeline)
	s.pass.SetBindGroup(0, s.bindGroup, nil)
	s.pass.SetVertexBuffer(0, vertexBuf, 0, wgpu.WholeSize)
	s.pass.SetIndexBuffer(indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	s.pass.DrawIndexed(uint32(len(mesh.Indices)), 1, 0, 0, 0)
}

func main() {
	worldsRoot := flag.String("worlds", "Worlds", "worlds root directory")
	name := flag.String("world", "Generated", "world name to load")
	viewDistance := flag.Int("view-distance", int(chunkmgr.DefaultViewDistance), "chunk view distance, V")
	flag.Parse()

	ew := newEngineWindow(1280, 720, "voxelsrv")
	defer ew.window().Destroy()
	defer glfw.Terminate()

	pipeline := newChunkPipeline(ew)
	uniformBuf, err := ew.gpu.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "frame uniforms",
		Contents: wgpu.ToBytes([]uniformData{{}}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup, err := ew.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: uniformBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}

	fs := region.NewWorldFileSystem(*worldsRoot)
	manager := chunkmgr.New(chunkmgr.Config{
		FS:           fs,
		Sink:         noopColliderSink{},
		ViewDistance: int32(*viewDistance),
	})
	if err := manager.LoadWorld(*name); err != nil {
		fmt.Fprintf(os.Stderr, "voxelsrv: load world %q: %v\n", *name, err)
		os.Exit(1)
	}

	cam := newFlyingCamera(ew.aspect())
	input := newInputState()

	ew.window().SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		ew.resize(width, height)
		cam.Aspect = ew.aspect()
	})
	ew.window().SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		input.onCursorMove(xpos, ypos, cam)
	})
	ew.window().SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		input.onKey(w, key, action)
	})

	drawSink := &gpuDrawSink{ew: ew, pipeline: pipeline, bindGroup: bindGroup, uniformBuf: uniformBuf}

	lastFrame := glfw.GetTime()
	for !ew.window().ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		dt := float32(now - lastFrame)
		lastFrame = now

		cam.Move(input.moveAxes(ew.window()), dt)
		manager.Update(cam)

		texture, err := ew.gpu.Surface.GetCurrentTexture()
		if err != nil {
			continue
		}
		view, err := texture.CreateView(nil)
		if err != nil {
			panic(err)
		}

		encoder, err := ew.gpu.Device.CreateCommandEncoder(nil)
		if err != nil {
			panic(err)
		}
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       view,
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: 0.53, G: 0.8, B: 0.92, A: 1},
				},
			},
		})

		drawSink.viewProjCached = cam.viewProj()
		drawSink.pass = pass
		manager.Render(cam, drawSink)

		if err := pass.End(); err != nil {
			panic(err)
		}
		pass.Release()

		cmdBuf, err := encoder.Finish(nil)
		if err != nil {
			panic(err)
		}
		ew.gpu.Queue.Submit(cmdBuf)
		ew.gpu.Surface.Present()

		view.Release()
		encoder.Release()
		cmdBuf.Release()
	}

	if err := manager.SaveWorld(); err != nil {
		fmt.Fprintf(os.Stderr, "voxelsrv: save world on exit: %v\n", err)
	}
}
