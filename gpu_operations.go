// Package voxelstream's window and device bring-up: a thin GLFW+WebGPU
// layer the demo binaries build on rather than duplicate.
package voxelstream

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"runtime"
)

// WindowState owns the GLFW window backing a rendering surface.
type WindowState struct {
	Window       *glfw.Window
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
}

// GpuState is the WebGPU device, queue, and swapchain surface bound to
// a WindowState.
type GpuState struct {
	Surface       *wgpu.Surface
	Adapter       *wgpu.Adapter
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	SurfaceConfig *wgpu.SurfaceConfiguration
}

// CreateWindowState initializes GLFW (locking the calling goroutine to
// its OS thread, since GLFW is not safe to call off the thread it was
// initialized on) and opens a window with no client API bound — the
// surface is configured for WebGPU by CreateGpuState.
func CreateWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		Window:       win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		WindowTitle:  windowTitle,
	}
}

// CreateGpuState requests a high-performance adapter and device for
// s's window and configures its swapchain surface for vsynced
// presentation.
func CreateGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.Window))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: nil,
		RequiredLimits:   nil,
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		Surface:       surface,
		Adapter:       adapter,
		Device:        device,
		Queue:         queue,
		SurfaceConfig: &surfaceConfig,
	}
}

// Resize reconfigures gs's swapchain surface for a new window size.
func (gs *GpuState) Resize(width, height int) {
	gs.SurfaceConfig.Width = uint32(width)
	gs.SurfaceConfig.Height = uint32(height)
	gs.Surface.Configure(gs.Adapter, gs.Device, gs.SurfaceConfig)
}

// Aspect returns SurfaceConfig's width/height ratio, or 1 if height is
// zero (avoids a division-by-zero during a minimized-window resize).
func (gs *GpuState) Aspect() float32 {
	if gs.SurfaceConfig.Height == 0 {
		return 1
	}
	return float32(gs.SurfaceConfig.Width) / float32(gs.SurfaceConfig.Height)
}
