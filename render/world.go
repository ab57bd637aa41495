// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/gogpu/uibridge/paint"
)

// ExtractedView is the render-world view of one GUI context: where it draws
// and at which scale. Extraction rewrites it every frame.
type ExtractedView struct {
	ID     ContextID
	Target Target

	PixelsPerPoint float32

	// ClipFromView is the orthographic projection of the target in logical
	// points, for callbacks that draw with their own pipelines.
	ClipFromView mgl32.Mat4
}

// ExtractedOutput is the draw output moved out of the simulation world for
// this frame. The render world owns it until the next extraction.
type ExtractedOutput struct {
	Primitives []paint.ClippedPrimitive
}

// Render-world components written by extraction and read by Node.Update.
var (
	View   = donburi.NewComponentType[ExtractedView]()
	Output = donburi.NewComponentType[ExtractedOutput]()
)

// viewQuery matches every entity extraction attached a context to.
var viewQuery = donburi.NewQuery(filter.Contains(View, Output))

// extractedContext pairs a view with its output for one Update.
type extractedContext struct {
	view   ExtractedView
	output *ExtractedOutput
}

// collectViews returns the world's extracted contexts.
func collectViews(world donburi.World) []extractedContext {
	var out []extractedContext
	viewQuery.Each(world, func(e *donburi.Entry) {
		out = append(out, extractedContext{
			view:   *View.Get(e),
			output: Output.Get(e),
		})
	})
	return out
}
