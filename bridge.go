package uibridge

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/ecs"
	"github.com/gogpu/uibridge/extract"
	"github.com/gogpu/uibridge/input"
	"github.com/gogpu/uibridge/output"
	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
	"github.com/gogpu/uibridge/textures"
)

// Bridge drives GUI contexts through the frame and draws them with the
// host's GPU device.
//
// A frame is BeginFrame, the host's UI code, EndFrame, then Render:
//
//	b.BeginFrame()
//	gui.Label("hello") // host UI code against each context's GUI
//	b.EndFrame()
//	if err := b.Render(); err != nil {
//	    return err
//	}
//
// Bridge methods must be called from one goroutine. RegisterCallback and the
// user texture methods are safe for concurrent use.
type Bridge struct {
	settings Settings
	maxSide  int

	sim         donburi.World
	renderWorld donburi.World

	extractor *extract.Extractor
	collector *input.Collector
	output    *output.Processor

	managed     *textures.Managed
	users       *textures.UserTextures
	store       *textures.GPUStore
	pendingFree []render.TextureKey

	registry *render.CallbackRegistry
	node     *render.Node

	passes map[render.ContextID]bool
	start  time.Time
	redraw bool
	closed bool
}

// New creates a bridge on the provider's device.
func New(provider render.DeviceHandle, opts ...Option) (*Bridge, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	device, queue, err := render.HALFromProvider(provider)
	if err != nil {
		return nil, err
	}

	var chunk uint32
	if o.settings.Bindless {
		chunk = render.BindlessChunkSize(o.limits, o.settings.MaxBindlessTextures)
		if chunk == 0 {
			Logger().Warn("uibridge: device limits do not allow bindless textures, using one bind group per texture")
		}
	}

	retire := render.NewRetirer(device, queue)
	users := textures.NewUserTextures()
	store := textures.NewGPUStore(device, queue, retire, users, o.resolver)
	registry := render.NewCallbackRegistry()
	node, err := render.NewNode(render.NodeConfig{
		Device:     device,
		Queue:      queue,
		Limits:     o.limits,
		Bindless:   chunk,
		Precompile: o.settings.PrecompileShaders,
		Textures:   store,
		Registry:   registry,
		Retirer:    retire,
	})
	if err != nil {
		return nil, err
	}

	loadOp, _ := parseLoadOp(o.settings.ImageLoadOp)
	sim, rw := donburi.NewWorld(), donburi.NewWorld()

	var clipboard input.ClipboardReader
	if o.platform != nil {
		clipboard = o.platform
	}

	b := &Bridge{
		settings:    o.settings,
		maxSide:     int(o.limits.MaxTextureDimension2D),
		sim:         sim,
		renderWorld: rw,
		extractor: extract.New(rw, extract.Config{
			ScaleFactor:     o.settings.ScaleFactor,
			ImageLoadOp:     loadOp,
			ImageClearColor: o.settings.clearColor(),
		}),
		collector: input.NewCollector(sim, o.settings.ScaleFactor, clipboard),
		output:    output.NewProcessor(o.platform),
		managed:   textures.NewManaged(),
		users:     users,
		store:     store,
		registry:  registry,
		node:      node,
		passes:    make(map[render.ContextID]bool),
		start:     time.Now(),
	}
	Logger().Info("uibridge: bridge created",
		"bindless", chunk,
		"scale_factor", o.settings.ScaleFactor,
		"run_manually", o.settings.RunManually)
	return b, nil
}

// AddContext registers a GUI context rendering into target.
func (b *Bridge) AddContext(id render.ContextID, gui paint.Context, target ecs.TargetData) error {
	if b.closed {
		return ErrClosed
	}
	if gui == nil {
		return ErrNoGUI
	}
	if _, ok := ecs.Find(b.sim, id); ok {
		return fmt.Errorf("%w: %d", ErrContextExists, id)
	}
	ecs.Spawn(b.sim, id, gui, target)
	Logger().Info("uibridge: context added", "context", id, "target", target.Kind)
	return nil
}

// RemoveContext unregisters a context. Its render state and textures are
// released by the next Render.
func (b *Bridge) RemoveContext(id render.ContextID) error {
	entry, err := b.find(id)
	if err != nil {
		return err
	}
	b.sim.Remove(entry.Entity())
	delete(b.passes, id)
	b.collector.Forget(id)
	Logger().Info("uibridge: context removed", "context", id)
	return nil
}

// SetTarget replaces a context's render target, for example after a resize.
func (b *Bridge) SetTarget(id render.ContextID, target ecs.TargetData) error {
	entry, err := b.find(id)
	if err != nil {
		return err
	}
	ecs.Target.SetValue(entry, target)
	return nil
}

// AttachInput feeds src's events to context id.
func (b *Bridge) AttachInput(id render.ContextID, src gpucontext.EventSource) error {
	if _, err := b.find(id); err != nil {
		return err
	}
	input.Attach(b.sim, id, src)
	return nil
}

// SetScaleFactor changes the bridge-wide scale factor.
func (b *Bridge) SetScaleFactor(s float32) error {
	if s <= 0 {
		return fmt.Errorf("%w: scale factor must be positive, got %v", ErrInvalidSettings, s)
	}
	b.settings.ScaleFactor = s
	b.extractor.SetScaleFactor(s)
	b.collector.SetScaleFactor(s)
	return nil
}

func (b *Bridge) find(id render.ContextID) (*donburi.Entry, error) {
	if b.closed {
		return nil, ErrClosed
	}
	entry, ok := ecs.Find(b.sim, id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContext, id)
	}
	return entry, nil
}

// BeginFrame collects pending input and, unless the settings ask to run
// manually, begins a GUI pass on every active context.
func (b *Bridge) BeginFrame() error {
	if b.closed {
		return ErrClosed
	}
	b.collector.Collect()
	if b.settings.RunManually {
		return nil
	}
	for _, entry := range ecs.Contexts(b.sim) {
		if ecs.Target.Get(entry).Active {
			b.beginPass(entry)
		}
	}
	return nil
}

// BeginPass begins the GUI pass of one context. Hosts that run manually call
// it for the contexts they want to update this frame.
func (b *Bridge) BeginPass(id render.ContextID) error {
	entry, err := b.find(id)
	if err != nil {
		return err
	}
	if b.passes[id] {
		return fmt.Errorf("%w: %d", ErrPassActive, id)
	}
	b.beginPass(entry)
	return nil
}

func (b *Bridge) beginPass(entry *donburi.Entry) {
	ctx := ecs.Context.Get(entry)
	target := ecs.Target.Get(entry)

	raw := ecs.Input.Get(entry).Raw.Take()
	if target.Width > 0 && target.Height > 0 {
		ppp := target.PixelsPerPoint(b.settings.ScaleFactor)
		screen := paint.NewRect(0, 0, float32(target.Width)/ppp, float32(target.Height)/ppp)
		raw.ScreenRect = &screen
	}
	raw.MaxTextureSide = b.maxSide
	raw.Time = time.Since(b.start).Seconds()

	ctx.GUI.BeginPass(raw)
	b.passes[ctx.ID] = true
}

// EndFrame ends every begun pass, tessellates the output and applies the
// platform output.
func (b *Bridge) EndFrame() error {
	if b.closed {
		return ErrClosed
	}
	for _, entry := range ecs.Contexts(b.sim) {
		id := ecs.Context.Get(entry).ID
		if b.passes[id] {
			b.endPass(entry)
		}
	}
	clear(b.passes)
	b.redraw = b.output.Process(b.sim)
	return nil
}

func (b *Bridge) endPass(entry *donburi.Entry) {
	ctx := ecs.Context.Get(entry)
	full := ctx.GUI.EndPass()

	ppp := full.PixelsPerPoint
	if ppp <= 0 {
		ppp = ecs.Target.Get(entry).PixelsPerPoint(b.settings.ScaleFactor)
	}

	ro := ecs.RenderOutput.Get(entry)
	ro.Primitives = ctx.GUI.Tessellate(full.Shapes, ppp)
	ro.Textures.Append(full.TexturesDelta)
	ro.PixelsPerPoint = ppp

	out := ecs.Output.Get(entry)
	out.Platform = full.PlatformOutput
	out.RedrawRequested = full.RepaintRequested || !full.PlatformOutput.IsEmpty()
	out.Wants = full.Wants
}

// RedrawRequested reports whether the last EndFrame asked for another frame.
func (b *Bridge) RedrawRequested() bool { return b.redraw }

// WantsInput returns the input context id claimed at the end of its last
// pass. Hosts skip their own handling of events the GUI claimed.
func (b *Bridge) WantsInput(id render.ContextID) (paint.InputWants, error) {
	entry, err := b.find(id)
	if err != nil {
		return paint.InputWants{}, err
	}
	return ecs.Output.Get(entry).Wants, nil
}

// WantsAnyInput returns the input claimed by any context.
func (b *Bridge) WantsAnyInput() paint.InputWants {
	if b.closed {
		return paint.InputWants{}
	}
	return output.Wants(b.sim)
}

// Render extracts the frame's output, updates textures and GPU buffers and
// submits one render pass per context.
//
// Per-context problems skip that context and are logged. The returned error
// is reserved for frame-level failures such as command submission.
func (b *Bridge) Render() error {
	if b.closed {
		return ErrClosed
	}

	b.store.Free(b.pendingFree...)
	b.pendingFree = b.pendingFree[:0]

	frame := b.extractor.Extract(b.sim)
	for _, id := range frame.Removed {
		if _, ok := ecs.Find(b.sim, id); !ok {
			b.store.Free(b.managed.RemoveOwner(id)...)
		}
	}
	for _, tc := range frame.Textures {
		// Failed entries are logged by Apply and skipped.
		_ = b.managed.Apply(tc.Owner, tc.Delta)
	}
	if err := b.store.Sync(b.managed); err != nil {
		Logger().Warn("uibridge: texture upload failed", "error", err)
	}

	// Frees apply after this frame's draws, even when the frame fails.
	defer func() {
		for _, tc := range frame.Textures {
			b.pendingFree = append(b.pendingFree, b.managed.Free(tc.Owner, tc.Delta.Free)...)
		}
	}()

	if err := b.node.Update(b.renderWorld); err != nil {
		return fmt.Errorf("uibridge: render: %w", err)
	}
	if err := b.node.Submit(b.renderWorld); err != nil {
		return fmt.Errorf("uibridge: render: %w", err)
	}
	return nil
}

// RegisterCallback returns a paint callback that draws cb at rect within the
// GUI's draw order. Hand it to the GUI library as a paint.PaintCallback shape.
func (b *Bridge) RegisterCallback(rect paint.Rect, cb render.Callback) paint.PaintCallback {
	return b.registry.Register(rect, cb)
}

// AddUserTexture registers a host image and returns the id the GUI should
// draw it with.
func (b *Bridge) AddUserTexture(h textures.Handle, opts paint.TextureOptions) paint.TextureID {
	return paint.User(b.users.Add(h, opts))
}

// RemoveUserTexture unregisters a host image.
func (b *Bridge) RemoveUserTexture(h textures.Handle) (paint.TextureID, bool) {
	id, ok := b.users.Remove(h)
	return paint.User(id), ok
}

// UserTexture returns the id of a registered host image.
func (b *Bridge) UserTexture(h textures.Handle) (paint.TextureID, bool) {
	id, ok := b.users.ID(h)
	return paint.User(id), ok
}

// DrawList returns the draw commands built for a context by the last Render.
func (b *Bridge) DrawList(id render.ContextID) (*render.DrawList, bool) {
	return b.node.DrawList(id)
}

// Stats returns the statistics of the last Render.
func (b *Bridge) Stats() render.FrameStats { return b.node.Stats() }

// Settings returns the active settings.
func (b *Bridge) Settings() Settings { return b.settings }

// World returns the simulation world holding the context entities.
func (b *Bridge) World() donburi.World { return b.sim }

// RenderWorld returns the world extraction writes into. Paint callbacks
// receive it.
func (b *Bridge) RenderWorld() donburi.World { return b.renderWorld }

// Node returns the render node.
func (b *Bridge) Node() *render.Node { return b.node }

// Close releases every GPU resource. The bridge is unusable afterwards.
func (b *Bridge) Close() {
	if b.closed {
		return
	}
	b.closed = true
	// The node flushes the shared retirer, so the store retires first.
	b.store.Destroy()
	b.node.Destroy()
	Logger().Info("uibridge: bridge closed")
}
