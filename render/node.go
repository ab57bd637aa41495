// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/paint"
)

// NodeState is the position of a Node in its per-frame cycle.
type NodeState uint8

const (
	// NodeIdle is the state before the first Update.
	NodeIdle NodeState = iota

	// NodeUpdated means buffers and tables hold this frame's data.
	NodeUpdated

	// NodeSubmitted means Run has recorded this frame's passes.
	NodeSubmitted
)

// String returns the state name.
func (s NodeState) String() string {
	switch s {
	case NodeIdle:
		return "Idle"
	case NodeUpdated:
		return "Updated"
	case NodeSubmitted:
		return "Submitted"
	default:
		return fmt.Sprintf("NodeState(%d)", int(s))
	}
}

// NodeConfig configures a Node.
type NodeConfig struct {
	Device hal.Device
	Queue  hal.Queue
	Limits gputypes.Limits

	// Bindless is the bindless chunk size; 0 uses one bind group per
	// texture. See BindlessChunkSize.
	Bindless uint32

	// Precompile compiles shaders to SPIR-V before module creation.
	Precompile bool

	// Textures lists resolvable textures. Nil means no texture resolves.
	Textures TextureResolver

	// Registry validates paint callback payloads. Nil creates a private one.
	Registry *CallbackRegistry

	// Retirer delays destruction of replaced GPU objects until the
	// submissions using them completed. Share it with other owners of GPU
	// objects drawn by the node. Nil creates a private one.
	Retirer *Retirer
}

// FrameStats summarizes the last Update and Run.
type FrameStats struct {
	Contexts        int
	SkippedContexts int
	DrawCalls       int
	Callbacks       int
	MissingTextures int
	VertexBytes     int
	IndexBytes      int
}

// contextState is the render-side state of one GUI context. Buffers keep
// their capacity across frames; everything else is rebuilt by Update.
type contextState struct {
	id     ContextID
	target Target
	ppp    float32
	key    PipelineKey

	list     DrawList
	vertices *GeometryBuffer
	indices  *GeometryBuffer

	// ready is set when Update left the context drawable this frame.
	ready bool
}

func (cs *contextState) callbackInfo(cb *CallbackDraw) CallbackInfo {
	return CallbackInfo{
		Viewport:       cb.Rect,
		ClipRect:       cb.ClipRect,
		PixelsPerPoint: cs.ppp,
		ScreenSizePx:   [2]uint32{cs.target.Width, cs.target.Height},
	}
}

// Node turns extracted GUI output into GPU draw calls. Update runs once per
// frame after extraction; Run records one render pass per context.
//
// Every per-context failure skips that context for the frame and is logged;
// other contexts still draw.
type Node struct {
	device   hal.Device
	queue    hal.Queue
	resolver TextureResolver
	registry *CallbackRegistry
	retire   *Retirer
	bindless uint32

	pipelines  *PipelineCache
	transforms *TransformTable
	bindings   *TextureBindingTable

	state    NodeState
	contexts map[ContextID]*contextState
	order    []ContextID
	stats    FrameStats
}

// NewNode creates the node and its shared GPU layouts.
func NewNode(cfg NodeConfig) (*Node, error) {
	if cfg.Device == nil || cfg.Queue == nil {
		return nil, ErrNoDevice
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewCallbackRegistry()
	}
	retire := cfg.Retirer
	if retire == nil {
		retire = NewRetirer(cfg.Device, cfg.Queue)
	}

	pipelines := NewPipelineCache(cfg.Device, cfg.Bindless, cfg.Precompile)
	transformLayout, err := pipelines.TransformLayout()
	if err != nil {
		return nil, fmt.Errorf("render: create node: %w", err)
	}
	textureLayout, err := pipelines.TextureLayout()
	if err != nil {
		pipelines.Destroy()
		return nil, fmt.Errorf("render: create node: %w", err)
	}

	return &Node{
		device:     cfg.Device,
		queue:      cfg.Queue,
		resolver:   cfg.Textures,
		registry:   registry,
		retire:     retire,
		bindless:   cfg.Bindless,
		pipelines:  pipelines,
		transforms: NewTransformTable(cfg.Device, retire, transformLayout, cfg.Limits.MinUniformBufferOffsetAlignment),
		bindings:   NewTextureBindingTable(cfg.Device, retire, textureLayout, cfg.Bindless),
		contexts:   make(map[ContextID]*contextState),
	}, nil
}

// State returns the node's position in the frame cycle.
func (n *Node) State() NodeState { return n.state }

// Stats returns the statistics of the last frame.
func (n *Node) Stats() FrameStats { return n.stats }

// Registry returns the callback registry the node resolves payloads with.
func (n *Node) Registry() *CallbackRegistry { return n.registry }

// Retirer returns the retirer releasing the node's replaced GPU objects.
func (n *Node) Retirer() *Retirer { return n.retire }

// Pipelines returns the node's pipeline cache.
func (n *Node) Pipelines() *PipelineCache { return n.pipelines }

// Bindings returns the texture binding table installed by the last Update.
func (n *Node) Bindings() *TextureBindingTable { return n.bindings }

// DrawList returns the draw list Update built for id.
func (n *Node) DrawList(id ContextID) (*DrawList, bool) {
	cs, ok := n.contexts[id]
	if !ok || !cs.ready {
		return nil, false
	}
	return &cs.list, true
}

// Buffers returns the vertex and index buffers of id.
func (n *Node) Buffers(id ContextID) (vertices, indices *GeometryBuffer, ok bool) {
	cs, ok := n.contexts[id]
	if !ok {
		return nil, nil, false
	}
	return cs.vertices, cs.indices, true
}

// Update rebuilds every context's draw list and buffers from the extracted
// views in world, then the shared transform and texture tables.
//
// A context whose target is degenerate or has no view is skipped for the
// frame with its buffers untouched. Contexts no longer present in world are
// released. Objects retired by earlier frames are destroyed once their
// submissions completed.
func (n *Node) Update(world donburi.World) error {
	n.retire.Collect()

	views := collectViews(world)
	slices.SortFunc(views, func(a, b extractedContext) int {
		return cmp.Compare(a.view.ID, b.view.ID)
	})

	n.stats = FrameStats{}
	n.order = n.order[:0]
	seen := make(map[ContextID]struct{}, len(views))
	transforms := make(map[ContextID]Transform, len(views))

	for _, ec := range views {
		id := ec.view.ID
		seen[id] = struct{}{}
		cs := n.context(id)
		cs.ready = false

		target := ec.view.Target
		if target.IsDegenerate() {
			n.stats.SkippedContexts++
			continue
		}
		if target.View == nil {
			slogger().Debug("gui target not ready", "context", id, "kind", target.Kind)
			n.stats.SkippedContexts++
			continue
		}

		cs.target = target
		cs.ppp = ec.view.PixelsPerPoint
		if cs.ppp <= 0 {
			cs.ppp = 1
		}
		cs.key = KeyForTarget(target, n.bindless)

		var prims []paint.ClippedPrimitive
		if ec.output != nil {
			prims = ec.output.Primitives
		}
		BuildDrawList(&cs.list, DrawListInput{
			Owner:          id,
			Primitives:     prims,
			PixelsPerPoint: cs.ppp,
			Width:          target.Width,
			Height:         target.Height,
		}, n.registry)

		for _, cb := range cs.list.Callbacks() {
			if u, ok := cb.Callback.Callback().(CallbackUpdater); ok && n.callbackVisible(cs, cb) {
				u.Update(cs.callbackInfo(cb), id, cs.key, world)
			}
		}

		if err := n.upload(cs); err != nil {
			slogger().Error("gui geometry upload failed", "context", id, "err", err)
			n.stats.SkippedContexts++
			continue
		}
		if _, err := n.pipelines.Get(cs.key); err != nil {
			slogger().Warn("gui pipeline not ready, skipping context", "context", id, "format", cs.key.Format, "err", err)
			n.stats.SkippedContexts++
			continue
		}

		transforms[id] = TransformFor(target.Width, target.Height, cs.ppp)
		cs.ready = true
		n.order = append(n.order, id)
	}

	for id, cs := range n.contexts {
		if _, ok := seen[id]; !ok {
			cs.vertices.Destroy()
			cs.indices.Destroy()
			delete(n.contexts, id)
			slogger().Debug("gui context released", "context", id)
		}
	}

	if err := n.transforms.Rebuild(n.queue, transforms); err != nil {
		// Without transforms nothing can be drawn this frame.
		n.order = n.order[:0]
		n.state = NodeUpdated
		return fmt.Errorf("render: rebuild transforms: %w", err)
	}

	var textures []BoundTexture
	if n.resolver != nil {
		textures = n.resolver.ResolvedTextures()
	}
	if err := n.bindings.Rebuild(textures); err != nil {
		slogger().Warn("gui texture table kept from previous frame", "err", err)
	}

	n.state = NodeUpdated
	return nil
}

// context returns the state of id, creating it with empty buffers.
func (n *Node) context(id ContextID) *contextState {
	cs, ok := n.contexts[id]
	if !ok {
		cs = &contextState{
			id:       id,
			vertices: NewGeometryBuffer(n.device, n.retire, fmt.Sprintf("gui_vertices_%d", id), gputypes.BufferUsageVertex),
			indices:  NewGeometryBuffer(n.device, n.retire, fmt.Sprintf("gui_indices_%d", id), gputypes.BufferUsageIndex),
		}
		n.contexts[id] = cs
	}
	return cs
}

func (n *Node) upload(cs *contextState) error {
	if err := cs.vertices.Upload(n.queue, cs.list.Vertices); err != nil {
		return err
	}
	if err := cs.indices.Upload(n.queue, cs.list.Indices); err != nil {
		return err
	}
	n.stats.VertexBytes += len(cs.list.Vertices)
	n.stats.IndexBytes += len(cs.list.Indices)
	return nil
}

// callbackVisible reports whether a callback command is invoked. Commands
// whose clip lies outside the target are kept but not called.
func (n *Node) callbackVisible(cs *contextState, cb *CallbackDraw) bool {
	return !PhysicalRect(cb.ClipRect, cs.ppp).Intersect(cs.target.Bounds()).IsEmpty()
}

// Run records one render pass per ready context into rc.Encoder. It fails
// only when Update has not run since the last Run.
func (n *Node) Run(rc *RenderContext, world donburi.World) error {
	if n.state != NodeUpdated {
		return fmt.Errorf("%w (state %s)", ErrNodeNotUpdated, n.state)
	}

	for _, id := range n.order {
		cs := n.contexts[id]
		pipeline, ok := n.pipelines.Lookup(cs.key)
		if !ok {
			slogger().Error("skipping gui context", "context", id, "err", ErrPipelineMissing, "format", cs.key.Format)
			n.stats.SkippedContexts++
			continue
		}
		offset, ok := n.transforms.Offset(id)
		if !ok {
			slogger().Error("skipping gui context", "context", id, "err", "no transform")
			n.stats.SkippedContexts++
			continue
		}

		callbacks := cs.list.Callbacks()
		for _, cb := range callbacks {
			if p, ok := cb.Callback.Callback().(CallbackPreparer); ok && n.callbackVisible(cs, cb) {
				p.Prepare(cs.callbackInfo(cb), rc, id, cs.key, world)
			}
		}

		n.encodePass(rc.Encoder, cs, pipeline, offset, world)
		n.stats.Contexts++
	}

	n.state = NodeSubmitted
	return nil
}

// encodePass records the commands of one context.
func (n *Node) encodePass(encoder hal.CommandEncoder, cs *contextState, pipeline hal.RenderPipeline, transformOffset uint32, world donburi.World) {
	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: fmt.Sprintf("gui_pass_%d", cs.id),
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       cs.target.View,
				LoadOp:     cs.target.loadOp(),
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: cs.target.ClearColor,
			},
		},
	})
	defer pass.End()

	width, height := float32(cs.target.Width), float32(cs.target.Height)
	hasGeometry := cs.list.IndexCount() > 0

	// reset restores the state callbacks may have changed.
	var boundTexture hal.BindGroup
	reset := func() {
		pass.SetViewport(0, 0, width, height, 0, 1)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, n.transforms.BindGroup(), []uint32{transformOffset})
		if hasGeometry {
			pass.SetVertexBuffer(0, cs.vertices.Buffer(), 0)
			pass.SetIndexBuffer(cs.indices.Buffer(), gputypes.IndexFormatUint32, 0)
		}
		boundTexture = nil
	}

	dirty := true
	var firstIndex uint32
	for i := range cs.list.Commands {
		cmd := &cs.list.Commands[i]
		switch prim := cmd.Primitive.(type) {
		case *MeshDraw:
			binding, ok := n.bindings.Resolve(prim.Texture)
			if !ok {
				slogger().Warn("gui texture not resolvable, skipping mesh",
					"context", cs.id, "texture", prim.Texture, "indices", prim.IndexCount)
				n.stats.MissingTextures++
				firstIndex += prim.IndexCount
				continue
			}
			if dirty {
				reset()
				dirty = false
			}
			pass.SetScissorRect(cmd.ClipRect.X, cmd.ClipRect.Y, cmd.ClipRect.W, cmd.ClipRect.H)
			if binding.Group != boundTexture {
				pass.SetBindGroup(1, binding.Group, nil)
				boundTexture = binding.Group
			}
			pass.DrawIndexed(prim.IndexCount, 1, firstIndex, 0, binding.Index)
			firstIndex += prim.IndexCount
			n.stats.DrawCalls++

		case *CallbackDraw:
			if cmd.ClipRect.IsEmpty() {
				continue
			}
			info := cs.callbackInfo(prim)
			vp := info.ViewportInPixels()
			if vp.WidthPx <= 0 || vp.HeightPx <= 0 {
				continue
			}
			pass.SetViewport(float32(vp.LeftPx), float32(vp.TopPx), float32(vp.WidthPx), float32(vp.HeightPx), 0, 1)
			pass.SetScissorRect(cmd.ClipRect.X, cmd.ClipRect.Y, cmd.ClipRect.W, cmd.ClipRect.H)
			prim.Callback.Callback().Render(info, pass, cs.id, cs.key, world)
			dirty = true
			n.stats.Callbacks++
		}
	}
}

// Submit encodes Run into a fresh command encoder and submits it on the
// node's queue. The command buffer is freed by a later Update once the
// queue reports the submission completed.
func (n *Node) Submit(world donburi.World) error {
	encoder, err := n.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gui_frame"})
	if err != nil {
		return fmt.Errorf("render: create encoder: %w", err)
	}

	if err := encoder.BeginEncoding("gui_frame"); err != nil {
		return fmt.Errorf("render: begin encoding: %w", err)
	}
	rc := &RenderContext{Device: n.device, Queue: n.queue, Encoder: encoder}
	if err := n.Run(rc, world); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmds, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end encoding: %w", err)
	}
	index, err := n.queue.Submit([]hal.CommandBuffer{cmds})
	if err != nil {
		n.device.FreeCommandBuffer(cmds)
		return fmt.Errorf("render: submit: %w", err)
	}
	n.retire.Submitted(index)
	n.retire.Release(func() { n.device.FreeCommandBuffer(cmds) })
	return nil
}

// Destroy waits for outstanding submissions and releases all GPU resources
// owned by the node, including everything still held by its retirer.
func (n *Node) Destroy() {
	for id, cs := range n.contexts {
		cs.vertices.Destroy()
		cs.indices.Destroy()
		delete(n.contexts, id)
	}
	n.bindings.Destroy()
	n.transforms.Destroy()
	n.retire.Flush()
	n.pipelines.Destroy()
	n.state = NodeIdle
}

