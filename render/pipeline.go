// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/internal/shader"
	"github.com/gogpu/uibridge/paint"
)

// HDRFormat is the color format of HDR targets.
const HDRFormat = gputypes.TextureFormatRGBA16Float

// PipelineKey selects a specialized GUI pipeline.
type PipelineKey struct {
	Format gputypes.TextureFormat
	HDR    bool

	// Bindless is the bindless chunk size, 0 for one texture per bind group.
	Bindless uint32
}

// KeyForTarget derives the pipeline key from a target's current format and
// HDR mode.
func KeyForTarget(t Target, bindless uint32) PipelineKey {
	format := t.Format
	if t.HDR {
		format = HDRFormat
	}
	return PipelineKey{Format: format, HDR: t.HDR, Bindless: bindless}
}

// linearOutput reports whether the fragment shader must write linear color.
func (k PipelineKey) linearOutput() bool {
	return k.HDR || k.Format.IsSrgb() || k.Format == HDRFormat
}

// PipelineCache memoizes GUI render pipelines by PipelineKey. Layouts and
// the shader module are shared by all variants and created on first use.
//
// PipelineCache is not safe for concurrent use; the render world owns it.
type PipelineCache struct {
	device     hal.Device
	bindless   uint32
	precompile bool

	shader          hal.ShaderModule
	transformLayout hal.BindGroupLayout
	textureLayout   hal.BindGroupLayout
	pipeLayout      hal.PipelineLayout

	pipelines map[PipelineKey]hal.RenderPipeline
}

// NewPipelineCache returns a cache creating pipelines on device. bindless is
// the bindless chunk size, 0 to disable. precompile compiles WGSL to SPIR-V
// before module creation.
func NewPipelineCache(device hal.Device, bindless uint32, precompile bool) *PipelineCache {
	return &PipelineCache{
		device:     device,
		bindless:   bindless,
		precompile: precompile,
		pipelines:  make(map[PipelineKey]hal.RenderPipeline),
	}
}

// Bindless returns the bindless chunk size, 0 when disabled.
func (c *PipelineCache) Bindless() uint32 { return c.bindless }

// Get returns the pipeline for key, creating it on first use.
func (c *PipelineCache) Get(key PipelineKey) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}
	if key.Bindless != c.bindless {
		return nil, fmt.Errorf("render: pipeline key bindless=%d does not match cache bindless=%d",
			key.Bindless, c.bindless)
	}
	if err := c.ensureLayouts(); err != nil {
		return nil, err
	}
	p, err := c.createPipeline(key)
	if err != nil {
		return nil, err
	}
	c.pipelines[key] = p
	slogger().Debug("gui pipeline created", "format", key.Format, "hdr", key.HDR, "bindless", key.Bindless)
	return p, nil
}

// Lookup returns an already created pipeline.
func (c *PipelineCache) Lookup(key PipelineKey) (hal.RenderPipeline, bool) {
	p, ok := c.pipelines[key]
	return p, ok
}

// Len returns the number of created pipelines.
func (c *PipelineCache) Len() int { return len(c.pipelines) }

// TransformLayout returns the layout of bind group 0.
func (c *PipelineCache) TransformLayout() (hal.BindGroupLayout, error) {
	if err := c.ensureLayouts(); err != nil {
		return nil, err
	}
	return c.transformLayout, nil
}

// TextureLayout returns the layout of bind group 1.
func (c *PipelineCache) TextureLayout() (hal.BindGroupLayout, error) {
	if err := c.ensureLayouts(); err != nil {
		return nil, err
	}
	return c.textureLayout, nil
}

// ensureLayouts creates the shader module and the shared layouts.
func (c *PipelineCache) ensureLayouts() error {
	if c.pipeLayout != nil {
		return nil
	}

	src := shader.UI()
	if c.bindless > 0 {
		var err error
		if src, err = shader.Bindless(c.bindless); err != nil {
			return err
		}
	}
	module, err := shader.CreateModule(c.device, "gui_shader", src, c.precompile)
	if err != nil {
		return err
	}
	c.shader = module

	// Group 0: screen transform, one slab entry per context selected by
	// dynamic offset.
	transformLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gui_transform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    shader.TransformBinding,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   shader.TransformByteSize,
				},
			},
		},
	})
	if err != nil {
		c.destroyLayouts()
		return fmt.Errorf("create gui transform layout: %w", err)
	}
	c.transformLayout = transformLayout

	// Group 1: texture + sampler pairs.
	textureLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "gui_texture_layout",
		Entries: textureLayoutEntries(c.bindless),
	})
	if err != nil {
		c.destroyLayouts()
		return fmt.Errorf("create gui texture layout: %w", err)
	}
	c.textureLayout = textureLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gui_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.transformLayout, c.textureLayout},
	})
	if err != nil {
		c.destroyLayouts()
		return fmt.Errorf("create gui pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout
	return nil
}

// textureLayoutEntries returns one texture/sampler pair, or chunk pairs for
// the bindless layout.
func textureLayoutEntries(chunk uint32) []gputypes.BindGroupLayoutEntry {
	pairs := max(chunk, 1)
	entries := make([]gputypes.BindGroupLayoutEntry, 0, 2*pairs)
	for i := uint32(0); i < pairs; i++ {
		tex, smp := shader.SlotBindings(i)
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    tex,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    smp,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return entries
}

func (c *PipelineCache) createPipeline(key PipelineKey) (hal.RenderPipeline, error) {
	fragment := shader.FragmentGamma
	if key.linearOutput() {
		fragment = shader.FragmentLinear
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("gui_pipeline_%s", key.Format),
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: shader.VertexEntry,
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: fragment,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    key.Format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gui pipeline for %s: %w", key.Format, err)
	}
	return pipeline, nil
}

// vertexLayout matches paint.Vertex.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: paint.VertexSize,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
				{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2}, // color
			},
		},
	}
}

// Destroy releases all pipelines, layouts and the shader module.
func (c *PipelineCache) Destroy() {
	for key, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, key)
	}
	c.destroyLayouts()
}

// destroyLayouts releases shared resources in reverse creation order.
func (c *PipelineCache) destroyLayouts() {
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.textureLayout != nil {
		c.device.DestroyBindGroupLayout(c.textureLayout)
		c.textureLayout = nil
	}
	if c.transformLayout != nil {
		c.device.DestroyBindGroupLayout(c.transformLayout)
		c.transformLayout = nil
	}
	if c.shader != nil {
		c.device.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}
