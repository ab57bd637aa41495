// Package ecs defines the simulation-world components of a GUI context.
//
// Every GUI context is one donburi entity carrying Context, Target, Input,
// RenderOutput and Output. The root package drives these components through
// the frame; extraction moves RenderOutput into the render world.
package ecs

import (
	"cmp"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

// ContextData identifies a context and holds its GUI library instance.
type ContextData struct {
	ID  render.ContextID
	GUI paint.Context
}

// TargetData describes what a context renders into and at which scale.
type TargetData struct {
	Kind   render.TargetKind
	View   hal.TextureView
	Format gputypes.TextureFormat

	// Width and Height are in physical pixels.
	Width, Height uint32

	// ScaleFactor is the window's DPI scale. It is multiplied with the
	// bridge-wide scale factor to get pixels per point.
	ScaleFactor float32

	HDR bool

	// Active reports whether the context's view is live. Inactive contexts
	// are not extracted and lose their render-side state.
	Active bool
}

// PixelsPerPoint returns the scale of the context's GUI, given the
// bridge-wide scale factor.
func (t TargetData) PixelsPerPoint(global float32) float32 {
	s := t.ScaleFactor
	if s <= 0 {
		s = 1
	}
	if global <= 0 {
		global = 1
	}
	return s * global
}

// InputData accumulates the context's input until the next GUI pass.
type InputData struct {
	Raw paint.RawInput
}

// RenderOutputData is the tessellated output of the last GUI pass, waiting
// for extraction.
type RenderOutputData struct {
	Primitives     []paint.ClippedPrimitive
	Textures       paint.TexturesDelta
	PixelsPerPoint float32
}

// Take moves the output out, leaving the component empty.
func (o *RenderOutputData) Take() RenderOutputData {
	out := *o
	*o = RenderOutputData{}
	return out
}

// OutputData is the platform side of the last GUI pass. Platform and
// RedrawRequested are consumed by output processing; Wants stays until the
// next pass of the context.
type OutputData struct {
	Platform        paint.PlatformOutput
	RedrawRequested bool
	Wants           paint.InputWants
}

// Components of a GUI context entity.
var (
	Context      = donburi.NewComponentType[ContextData]()
	Target       = donburi.NewComponentType[TargetData]()
	Input        = donburi.NewComponentType[InputData]()
	RenderOutput = donburi.NewComponentType[RenderOutputData]()
	Output       = donburi.NewComponentType[OutputData]()
)

var contextQuery = donburi.NewQuery(filter.Contains(Context, Target))

// Spawn creates a context entity with all components.
func Spawn(world donburi.World, id render.ContextID, gui paint.Context, target TargetData) donburi.Entity {
	e := world.Create(Context, Target, Input, RenderOutput, Output)
	entry := world.Entry(e)
	Context.SetValue(entry, ContextData{ID: id, GUI: gui})
	Target.SetValue(entry, target)
	return e
}

// Contexts returns the context entities in ascending ID order.
func Contexts(world donburi.World) []*donburi.Entry {
	var out []*donburi.Entry
	contextQuery.Each(world, func(e *donburi.Entry) {
		out = append(out, e)
	})
	slices.SortFunc(out, func(a, b *donburi.Entry) int {
		return cmp.Compare(Context.Get(a).ID, Context.Get(b).ID)
	})
	return out
}

// Find returns the entity of context id.
func Find(world donburi.World, id render.ContextID) (*donburi.Entry, bool) {
	var found *donburi.Entry
	contextQuery.Each(world, func(e *donburi.Entry) {
		if found == nil && Context.Get(e).ID == id {
			found = e
		}
	})
	return found, found != nil
}
