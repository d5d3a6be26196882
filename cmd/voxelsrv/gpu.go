package main

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/ridgeline-games/voxelstream"
)

// engineWindow pairs the shared window+GPU bring-up with the pieces a
// chunk-mesh renderer needs on top of it.
type engineWindow struct {
	win *voxelstream.WindowState
	gpu *voxelstream.GpuState
}

func newEngineWindow(width, height int, title string) *engineWindow {
	win := voxelstream.CreateWindowState(width, height, title)
	gpu := voxelstream.CreateGpuState(win)
	return &engineWindow{win: win, gpu: gpu}
}

func (ew *engineWindow) window() *glfw.Window { return ew.win.Window }

func (ew *engineWindow) resize(width, height int) {
	ew.win.WindowWidth = width
	ew.win.WindowHeight = height
	ew.gpu.Resize(width, height)
}

func (ew *engineWindow) aspect() float32 { return ew.gpu.Aspect() }

const chunkShaderWGSL = `
struct Uniforms {
	mvp: mat4x4<f32>,
	origin: vec3<f32>,
};
@group(0) @binding(0) var<uniform> uniforms: Uniforms;

struct VertexIn {
	@location(0) position: vec3<f32>,
	@location(1) packed: u32,
};

struct VertexOut {
	@builtin(position) clip: vec4<f32>,
	@location(0) shade: f32,
};

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
	var out: VertexOut;
	let world = in.position;
	out.clip = uniforms.mvp * vec4<f32>(world, 1.0);
	let face = (in.packed >> 8u) & 0x7u;
	out.shade = 0.6 + 0.4 * f32(face) / 6.0;
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	return vec4<f32>(in.shade, in.shade, in.shade, 1.0);
}
`

// newChunkPipeline builds the pipeline rendering voxel.MeshBuffer
// vertices. It declares its vertex layout directly with wgpu types; the
// teacher's tag-driven layout helper, whose format parser only knew
// floatN tags and had no case for the packed uint32 attribute a chunk
// vertex carries, is not part of this module; see DESIGN.md.
func newChunkPipeline(ew *engineWindow) *wgpu.RenderPipeline {
	device := ew.gpu.Device
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "chunk mesh shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: chunkShaderWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	layout := wgpu.VertexBufferLayout{
		ArrayStride: 16, // 3×f32 position + 1×u32 packed
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},
			{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatUint32},
		},
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: ew.gpu.SurfaceConfig.Format, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		panic(err)
	}
	return pipeline
}
