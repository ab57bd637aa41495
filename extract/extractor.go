// Package extract moves each frame's GUI output from the simulation world
// into the render world.
//
// Extraction is the only place that reads simulation-side GUI state on behalf
// of rendering. It runs once per frame, after the GUI passes ended and before
// render.Node.Update. Draw output is moved, not copied: the simulation-side
// component is left empty for the next frame.
package extract

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/ecs"
	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

// Config controls how simulation targets become render views.
type Config struct {
	// ScaleFactor multiplies every target's own scale factor.
	ScaleFactor float32

	// ImageLoadOp and ImageClearColor apply to image targets.
	ImageLoadOp     gputypes.LoadOp
	ImageClearColor gputypes.Color
}

// TextureChanges are the texture deltas one context produced this frame.
type TextureChanges struct {
	Owner render.ContextID
	Delta paint.TexturesDelta
}

// Frame is what one extraction handed to the render side besides the
// render-world entities.
type Frame struct {
	// Textures lists texture deltas in context order.
	Textures []TextureChanges

	// Removed lists contexts whose render binding was dropped this frame,
	// because they became inactive or left the simulation world.
	Removed []render.ContextID
}

// Extractor maintains the render-world entity of every extracted context.
type Extractor struct {
	cfg      Config
	world    donburi.World
	entities map[render.ContextID]donburi.Entity
}

// New creates an extractor that writes into renderWorld.
func New(renderWorld donburi.World, cfg Config) *Extractor {
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = 1
	}
	return &Extractor{
		cfg:      cfg,
		world:    renderWorld,
		entities: make(map[render.ContextID]donburi.Entity),
	}
}

// World returns the render world.
func (x *Extractor) World() donburi.World { return x.world }

// SetScaleFactor changes the global scale factor from the next extraction.
func (x *Extractor) SetScaleFactor(s float32) {
	if s > 0 {
		x.cfg.ScaleFactor = s
	}
}

// Extract moves every active context's output from sim into the render world.
func (x *Extractor) Extract(sim donburi.World) Frame {
	var frame Frame
	live := make(map[render.ContextID]bool, len(x.entities))

	for _, entry := range ecs.Contexts(sim) {
		id := ecs.Context.Get(entry).ID
		target := ecs.Target.Get(entry)
		out := ecs.RenderOutput.Get(entry).Take()

		if !out.Textures.IsEmpty() {
			frame.Textures = append(frame.Textures, TextureChanges{Owner: id, Delta: out.Textures})
		}
		if !target.Active {
			continue
		}
		live[id] = true

		ppp := out.PixelsPerPoint
		if ppp <= 0 {
			ppp = target.PixelsPerPoint(x.cfg.ScaleFactor)
		}
		view := render.ExtractedView{
			ID:             id,
			Target:         x.renderTarget(target),
			PixelsPerPoint: ppp,
			ClipFromView:   clipFromView(target.Width, target.Height, ppp),
		}
		x.attach(id, view, render.ExtractedOutput{Primitives: out.Primitives})
	}

	for id, e := range x.entities {
		if live[id] {
			continue
		}
		if x.world.Valid(e) {
			x.world.Remove(e)
		}
		delete(x.entities, id)
		frame.Removed = append(frame.Removed, id)
		slogger().Debug("uibridge: render binding removed", "context", id)
	}
	slices.Sort(frame.Removed)
	return frame
}

func (x *Extractor) attach(id render.ContextID, view render.ExtractedView, output render.ExtractedOutput) {
	e, ok := x.entities[id]
	if !ok || !x.world.Valid(e) {
		e = x.world.Create(render.View, render.Output)
		x.entities[id] = e
	}
	entry := x.world.Entry(e)
	render.View.SetValue(entry, view)
	render.Output.SetValue(entry, output)
}

func (x *Extractor) renderTarget(t *ecs.TargetData) render.Target {
	rt := render.Target{
		Kind:   t.Kind,
		View:   t.View,
		Format: t.Format,
		Width:  t.Width,
		Height: t.Height,
		HDR:    t.HDR,
	}
	if t.Kind == render.TargetImage {
		rt.LoadOp = x.cfg.ImageLoadOp
		rt.ClearColor = x.cfg.ImageClearColor
	}
	return rt
}

// Entity returns the render-world entity of context id.
func (x *Extractor) Entity(id render.ContextID) (donburi.Entity, bool) {
	e, ok := x.entities[id]
	return e, ok
}

// Len returns the number of contexts bound in the render world.
func (x *Extractor) Len() int { return len(x.entities) }

// clipFromView maps logical points of a w by h pixel target to clip space,
// with y pointing down.
func clipFromView(w, h uint32, ppp float32) mgl32.Mat4 {
	lw, lh := float32(w)/ppp, float32(h)/ppp
	if lw <= 0 || lh <= 0 {
		return mgl32.Ident4()
	}
	return mgl32.Ortho(0, lw, lh, 0, -1, 1)
}
