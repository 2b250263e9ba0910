// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu holds the wgpu/hal render pipeline behind the sky layer.
package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Sentinel errors for the two ways resource creation can fail. The root
// package re-exports them as ErrCompileFailure and ErrLinkFailure.
var (
	ErrCompile = errors.New("starfield: shader compilation failed")
	ErrLink    = errors.New("starfield: pipeline creation failed")
)

// UniformSize is the byte size of the per-frame uniform block:
// inv_proj mat4x4 (64) + globe_position vec3 + globe_radius (16) +
// globe_center vec2 + padding (16) + camera_angles vec3 + intensity (16).
const UniformSize = 112

// starVertexStride is the byte stride per vertex: one vec2<f32> NDC
// position.
const starVertexStride = 8

// starIndexCount is the index count for the two triangles of the quad.
const starIndexCount = 6

// PassEncoder is the subset of hal.RenderPassEncoder the sky draw records
// through. Narrowing the interface keeps the draw testable with a fake.
type PassEncoder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// StarPipeline owns the GPU resources for the sky quad: shader module,
// bind group layout, pipeline layout, render pipeline, vertex/index/uniform
// buffers, and the uniform bind group. All resources are created once at
// attach and live until Destroy.
type StarPipeline struct {
	device hal.Device
	queue  hal.Queue
	logger *slog.Logger

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
}

// NewStarPipeline compiles the shader and creates every GPU resource the
// sky draw needs. The shader source is validated through naga before the
// device sees it, so a rejected shader surfaces as ErrCompile with the
// compiler's message attached.
//
// format is the color attachment format of the host's render pass;
// TextureFormatUndefined falls back to BGRA8Unorm.
//
// On any failure the partially created resources are released and the
// error is returned; the caller holds nothing.
func NewStarPipeline(
	device hal.Device, queue hal.Queue,
	shaderSource string, format gputypes.TextureFormat,
	logger *slog.Logger,
) (*StarPipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &StarPipeline{device: device, queue: queue, logger: logger}
	if err := p.create(shaderSource, format); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *StarPipeline) create(shaderSource string, format gputypes.TextureFormat) error {
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}

	spirvBytes, err := naga.Compile(shaderSource)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompile, err)
	}
	p.logger.Debug("sky shader compiled",
		"wgslBytes", len(shaderSource), "spirvBytes", len(spirvBytes))

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "starfield_shader",
		Source: hal.ShaderSource{WGSL: shaderSource},
	})
	if err != nil {
		return fmt.Errorf("%w: create shader module: %w", ErrCompile, err)
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "starfield_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create uniform layout: %w", ErrLink, err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "starfield_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: create pipeline layout: %w", ErrLink, err)
	}
	p.pipeLayout = pipeLayout

	// The quad draws into the host's pass, which carries a depth/stencil
	// attachment. Depth compares Always and writes nothing: the sky sits
	// on the far plane behind the globe. Stencil is pass-through.
	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "starfield_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    starVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create render pipeline: %w", ErrLink, err)
	}
	p.pipeline = pipeline

	vertBuf, err := p.createAndUploadBuffer("starfield_verts", quadVertexData(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLink, err)
	}
	p.vertBuf = vertBuf

	idxBuf, err := p.createAndUploadBuffer("starfield_indices", quadIndexData(),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLink, err)
	}
	p.idxBuf = idxBuf

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "starfield_uniform",
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: create uniform buffer: %w", ErrLink, err)
	}
	p.uniformBuf = uniformBuf

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "starfield_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: UniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %w", ErrLink, err)
	}
	p.bindGroup = bindGroup

	return nil
}

// UploadUniforms writes the packed per-frame uniform block to the GPU.
// data must be UniformSize bytes; shorter payloads are written as-is.
func (p *StarPipeline) UploadUniforms(data []byte) {
	p.queue.WriteBuffer(p.uniformBuf, 0, data)
}

// RecordDraw records the fullscreen quad into the host's render pass.
func (p *StarPipeline) RecordDraw(rp PassEncoder) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertBuf, 0)
	rp.SetIndexBuffer(p.idxBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(starIndexCount, 1, 0, 0, 0)
}

// Destroy releases all GPU resources in reverse creation order. Safe to
// call multiple times or on a partially created pipeline.
func (p *StarPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.idxBuf != nil {
		p.device.DestroyBuffer(p.idxBuf)
		p.idxBuf = nil
	}
	if p.vertBuf != nil {
		p.device.DestroyBuffer(p.vertBuf)
		p.vertBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *StarPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// starVertexLayout returns the vertex buffer layout: a single vec2<f32>
// NDC position per vertex.
func starVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: starVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// quadVertexData returns the four NDC corners of the fullscreen quad.
func quadVertexData() []byte {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	buf := make([]byte, len(corners)*starVertexStride)
	for i, c := range corners {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(c[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(c[1]))
	}
	return buf
}

// quadIndexData returns the uint16 indices for the quad's two triangles.
// 12 bytes total, which satisfies the 4-byte copy alignment.
func quadIndexData() []byte {
	indices := [starIndexCount]uint16{0, 1, 2, 2, 3, 0}
	buf := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
