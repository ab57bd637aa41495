// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/paint"
)

// fakeHandle stands in for texture views and samplers. Noop resources are
// zero-sized, so tests need objects with a stable identity.
type fakeHandle struct{ id int }

func (*fakeHandle) Destroy()                {}
func (h *fakeHandle) NativeHandle() uintptr { return uintptr(h.id) }

type fakeGroup struct {
	id      int
	label   string
	entries []gputypes.BindGroupEntry
}

func (*fakeGroup) Destroy() {}

type fakePipeline struct {
	id   int
	desc *hal.RenderPipelineDescriptor
}

func (*fakePipeline) Destroy() {}

var errInjected = errors.New("injected failure")

// recordingDevice wraps the noop device, numbering bind groups and pipelines
// and counting buffer churn.
type recordingDevice struct {
	hal.Device

	groups          []*fakeGroup
	destroyedGroups int
	failGroups      bool

	pipelines      []*fakePipeline
	failPipelines  bool
	buffers        int
	destroyedBufs  int
	bufferRequests []uint64

	freedCmds int
	waits     int
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.failGroups {
		return nil, errInjected
	}
	g := &fakeGroup{id: len(d.groups) + 1, label: desc.Label, entries: desc.Entries}
	d.groups = append(d.groups, g)
	return g, nil
}

func (d *recordingDevice) DestroyBindGroup(hal.BindGroup) { d.destroyedGroups++ }

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.failPipelines {
		return nil, errInjected
	}
	p := &fakePipeline{id: len(d.pipelines) + 1, desc: desc}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffers++
	d.bufferRequests = append(d.bufferRequests, desc.Size)
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) DestroyBuffer(b hal.Buffer) {
	d.destroyedBufs++
	d.Device.DestroyBuffer(b)
}

func (d *recordingDevice) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.freedCmds++
	d.Device.FreeCommandBuffer(cmd)
}

func (d *recordingDevice) WaitIdle() error {
	d.waits++
	return d.Device.WaitIdle()
}

type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

// recordingQueue records buffer writes and submissions. With lagging set,
// PollCompleted reports completed instead of the noop queue's synchronous
// index.
type recordingQueue struct {
	hal.Queue

	writes  []bufferWrite
	submits int

	lagging   bool
	completed uint64
}

func (q *recordingQueue) PollCompleted() uint64 {
	if q.lagging {
		return q.completed
	}
	return q.Queue.PollCompleted()
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.writes = append(q.writes, bufferWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
	return q.Queue.WriteBuffer(buffer, offset, data)
}

func (q *recordingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.submits++
	return q.Queue.Submit(cmds)
}

// passCall is one recorded render pass command.
type passCall struct {
	op string

	viewport [4]float32
	scissor  URect

	slot    uint32
	group   hal.BindGroup
	offsets []uint32

	indexCount    uint32
	firstIndex    uint32
	firstInstance uint32
}

type recordingPass struct {
	hal.RenderPassEncoder
	calls []passCall
}

func (p *recordingPass) SetPipeline(pl hal.RenderPipeline) {
	p.calls = append(p.calls, passCall{op: "pipeline"})
	p.RenderPassEncoder.SetPipeline(pl)
}

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.calls = append(p.calls, passCall{op: "bindgroup", slot: index, group: group, offsets: offsets})
}

func (p *recordingPass) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	p.calls = append(p.calls, passCall{op: "viewport", viewport: [4]float32{x, y, w, h}})
}

func (p *recordingPass) SetScissorRect(x, y, w, h uint32) {
	p.calls = append(p.calls, passCall{op: "scissor", scissor: URect{X: x, Y: y, W: w, H: h}})
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.calls = append(p.calls, passCall{op: "draw", indexCount: indexCount, firstIndex: firstIndex, firstInstance: firstInstance})
}

func (p *recordingPass) End() {
	p.calls = append(p.calls, passCall{op: "end"})
}

// ops returns the recorded calls filtered to op.
func (p *recordingPass) ops(op string) []passCall {
	var out []passCall
	for _, c := range p.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

// lastViewport returns the most recent viewport.
func (p *recordingPass) lastViewport() [4]float32 {
	for i := len(p.calls) - 1; i >= 0; i-- {
		if p.calls[i].op == "viewport" {
			return p.calls[i].viewport
		}
	}
	return [4]float32{}
}

type recordingEncoder struct {
	hal.CommandEncoder
	passes []*recordingPass
	descs  []hal.RenderPassDescriptor
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.descs = append(e.descs, *desc)
	p := &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc)}
	e.passes = append(e.passes, p)
	return p
}

// newTestDevice opens a noop device wrapped in recorders.
func newTestDevice(t *testing.T) (*recordingDevice, *recordingQueue) {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	require.NoError(t, err)

	return &recordingDevice{Device: openDev.Device}, &recordingQueue{Queue: openDev.Queue}
}

func newTestEncoder(t *testing.T, dev *recordingDevice) *recordingEncoder {
	t.Helper()
	enc, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test"})
	require.NoError(t, err)
	require.NoError(t, enc.BeginEncoding("test"))
	return &recordingEncoder{CommandEncoder: enc}
}

// staticTextures resolves a fixed set of textures.
type staticTextures []BoundTexture

func (s staticTextures) ResolvedTextures() []BoundTexture { return s }

func boundTexture(key TextureKey, id int) BoundTexture {
	return BoundTexture{Key: key, View: &fakeHandle{id: id}, Sampler: &fakeHandle{id: 1000 + id}}
}

// recordingCallback records every invocation and the viewport active during
// Render.
type recordingCallback struct {
	updates  []CallbackInfo
	prepares []CallbackInfo
	renders  []CallbackInfo

	viewports [][4]float32
	contexts  []ContextID
}

func (c *recordingCallback) Update(info CallbackInfo, _ ContextID, _ PipelineKey, _ donburi.World) {
	c.updates = append(c.updates, info)
}

func (c *recordingCallback) Prepare(info CallbackInfo, rc *RenderContext, _ ContextID, _ PipelineKey, _ donburi.World) {
	if rc == nil || rc.Encoder == nil {
		panic("prepare without encoder")
	}
	c.prepares = append(c.prepares, info)
}

func (c *recordingCallback) Render(info CallbackInfo, pass hal.RenderPassEncoder, id ContextID, _ PipelineKey, _ donburi.World) {
	c.renders = append(c.renders, info)
	c.contexts = append(c.contexts, id)
	if rp, ok := pass.(*recordingPass); ok {
		c.viewports = append(c.viewports, rp.lastViewport())
	}
}

// renderOnly implements only the mandatory Render.
type renderOnly struct{ calls int }

func (r *renderOnly) Render(CallbackInfo, hal.RenderPassEncoder, ContextID, PipelineKey, donburi.World) {
	r.calls++
}

// meshPrim returns a clipped mesh of n vertices forming n indices.
func meshPrim(clip paint.Rect, vertices, indices int, tex paint.TextureID) paint.ClippedPrimitive {
	m := &paint.Mesh{TextureID: tex}
	for i := 0; i < vertices; i++ {
		m.Vertices = append(m.Vertices, paint.Vertex{
			Pos:   paint.Pos2{X: float32(i), Y: float32(i)},
			Color: paint.White,
		})
	}
	for i := 0; i < indices; i++ {
		m.Indices = append(m.Indices, uint32(i%vertices)) //nolint:gosec // test sizes
	}
	return paint.ClippedPrimitive{ClipRect: clip, Mesh: m}
}

func callbackPrim(clip paint.Rect, pc paint.PaintCallback) paint.ClippedPrimitive {
	return paint.ClippedPrimitive{ClipRect: clip, Callback: &pc}
}

// addView creates a render-world entity for a context.
func addView(world donburi.World, view ExtractedView, prims ...paint.ClippedPrimitive) donburi.Entity {
	e := world.Create(View, Output)
	entry := world.Entry(e)
	View.SetValue(entry, view)
	Output.SetValue(entry, ExtractedOutput{Primitives: prims})
	return e
}

func windowTarget(w, h uint32) Target {
	return Target{
		Kind:   TargetWindow,
		View:   &fakeHandle{id: 1},
		Format: gputypes.TextureFormatBGRA8UnormSrgb,
		Width:  w,
		Height: h,
	}
}
