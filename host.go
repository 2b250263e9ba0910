package starfield

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/starfield/internal/gpu"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host owns the device; the layer only borrows it. DeviceHandle is an
// alias for gpucontext.DeviceProvider so any gpucontext-based host can be
// passed in directly. For the built-in GPU pipeline the provider must also
// expose HAL types via HalDevice() any / HalQueue() any; hosts that can't
// are rejected at Attach with ErrNoHALDevice.
type DeviceHandle = gpucontext.DeviceProvider

// PassEncoder records draw commands into the host's active render pass.
// hal.RenderPassEncoder satisfies it; tests substitute recording fakes.
type PassEncoder = gpu.PassEncoder

// RenderState exposes the host's mutable draw state. The layer snapshots
// it before drawing and restores it on every exit path, so hosts that
// track state explicitly (GL-style renderers in particular) see no
// residue from the sky draw.
type RenderState interface {
	// Pipeline is the host's active program/pipeline handle, opaque to the
	// layer. It is captured and restored but never set during the draw:
	// the sky pipeline binds through the pass encoder.
	Pipeline() any
	SetPipeline(p any)

	DepthCompare() gputypes.CompareFunction
	SetDepthCompare(fn gputypes.CompareFunction)

	DepthWriteEnabled() bool
	SetDepthWriteEnabled(enabled bool)

	BlendEnabled() bool
	SetBlendEnabled(enabled bool)

	BlendFunc() (src, dst gputypes.BlendFactor)
	SetBlendFunc(src, dst gputypes.BlendFactor)
}

// LayerRegistry is the host's scene-layer list. The sky layer inserts
// itself at the front so it renders behind everything else.
type LayerRegistry interface {
	InsertLayerFront(layer any) error
	RemoveLayer(layer any) error
}

// Context bundles the host facilities the layer needs. Attach uses Device
// and Layers; Render uses State and Pass. Optional fields may be nil and
// the corresponding step is skipped.
type Context struct {
	Device DeviceHandle
	Layers LayerRegistry
	State  RenderState
	Pass   PassEncoder
}

// GPUResources is the per-layer GPU resource set created at attach and
// destroyed at detach. *gpu.StarPipeline is the production implementation.
type GPUResources interface {
	// UploadUniforms writes the packed per-frame uniform block.
	UploadUniforms(data []byte)

	// RecordDraw records the fullscreen quad draw into the pass.
	RecordDraw(rp PassEncoder)

	// Destroy releases everything in reverse creation order. Safe to call
	// more than once.
	Destroy()
}

// ResourceFactory builds the layer's GPU resources from the host device
// and the generated shader source. Tests substitute in-memory fakes.
type ResourceFactory func(device DeviceHandle, shaderSource string) (GPUResources, error)

// ErrNoHALDevice indicates the host's device handle does not expose the
// HAL device and queue the GPU pipeline needs.
var ErrNoHALDevice = errors.New("starfield: device handle does not expose HAL types")

// halProvider is the duck-typed bridge gpucontext hosts implement to hand
// out the underlying wgpu/hal objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// defaultResourceFactory bridges the gpucontext device handle to wgpu/hal
// and builds the real pipeline.
func defaultResourceFactory(device DeviceHandle, shaderSource string) (GPUResources, error) {
	hp, ok := device.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	halDevice, ok := hp.HalDevice().(hal.Device)
	if !ok || halDevice == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	halQueue, ok := hp.HalQueue().(hal.Queue)
	if !ok || halQueue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}
	return gpu.NewStarPipeline(halDevice, halQueue, shaderSource, device.SurfaceFormat(), Logger())
}
