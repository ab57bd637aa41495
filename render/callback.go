// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/gogpu/wgpu/hal"
	"github.com/yohamta/donburi"

	"github.com/gogpu/uibridge/paint"
)

// Callback draws custom GPU content at a point in the GUI's draw order.
//
// Render runs inside the GUI render pass, after the viewport has been set to
// the callback's rectangle and the scissor to its clip rectangle. It may
// change any pass state; the node restores pipeline, bind groups and
// viewport before the next GUI mesh.
//
// A Callback may additionally implement CallbackUpdater and
// CallbackPreparer. Calls are never concurrent, and implementations must not
// keep pass or world references past the call.
type Callback interface {
	Render(info CallbackInfo, pass hal.RenderPassEncoder, id ContextID, key PipelineKey, world donburi.World)
}

// CallbackUpdater is implemented by callbacks that stage data before the
// frame's buffers are uploaded. Update runs once per frame in draw order.
type CallbackUpdater interface {
	Update(info CallbackInfo, id ContextID, key PipelineKey, world donburi.World)
}

// CallbackPreparer is implemented by callbacks that record GPU work which
// must complete before the GUI render pass begins.
type CallbackPreparer interface {
	Prepare(info CallbackInfo, rc *RenderContext, id ContextID, key PipelineKey, world donburi.World)
}

// RenderContext gives callbacks access to the frame's command recording.
type RenderContext struct {
	Device  hal.Device
	Queue   hal.Queue
	Encoder hal.CommandEncoder
}

// CallbackInfo describes where a callback draws.
type CallbackInfo struct {
	// Viewport is the callback's rectangle in logical points.
	Viewport paint.Rect

	// ClipRect is the clip rectangle in logical points.
	ClipRect paint.Rect

	PixelsPerPoint float32

	// ScreenSizePx is the target size in physical pixels.
	ScreenSizePx [2]uint32
}

// ViewportInPixels is a rectangle in physical pixels, clamped to the screen.
type ViewportInPixels struct {
	LeftPx, TopPx int32

	// FromBottomPx is the distance from the bottom edge of the screen, for
	// APIs with a bottom-left origin.
	FromBottomPx int32

	WidthPx, HeightPx int32
}

// ViewportInPixels returns the callback viewport in physical pixels.
func (i CallbackInfo) ViewportInPixels() ViewportInPixels {
	return i.pixels(i.Viewport)
}

// ClipRectInPixels returns the clip rectangle in physical pixels.
func (i CallbackInfo) ClipRectInPixels() ViewportInPixels {
	return i.pixels(i.ClipRect)
}

func (i CallbackInfo) pixels(r paint.Rect) ViewportInPixels {
	w, h := int32(i.ScreenSizePx[0]), int32(i.ScreenSizePx[1]) //nolint:gosec // screen sizes fit in int32

	left := clampPx(r.Min.X*i.PixelsPerPoint, 0, w)
	top := clampPx(r.Min.Y*i.PixelsPerPoint, 0, h)
	right := clampPx(r.Max.X*i.PixelsPerPoint, left, w)
	bottom := clampPx(r.Max.Y*i.PixelsPerPoint, top, h)

	height := bottom - top
	return ViewportInPixels{
		LeftPx:       left,
		TopPx:        top,
		FromBottomPx: h - height - top,
		WidthPx:      right - left,
		HeightPx:     height,
	}
}

func clampPx(v float32, lo, hi int32) int32 {
	v = math32.Round(v)
	switch {
	case math32.IsNaN(v) || v <= float32(lo):
		return lo
	case v >= float32(hi):
		return hi
	default:
		return int32(v)
	}
}

// PaintCallback is the payload carried by paint.PaintCallback.Callback.
// It is immutable after construction and may be shared between the widget
// code that created it and any number of frames' draw lists.
type PaintCallback struct {
	id       uint64
	registry *CallbackRegistry
	callback Callback
}

// ID returns the handle number assigned at registration.
func (p *PaintCallback) ID() uint64 { return p.id }

// Callback returns the registered implementation.
func (p *PaintCallback) Callback() Callback { return p.callback }

// CallbackRegistry hands out paint callback handles and validates them when
// draw lists are built. It is safe for concurrent use.
type CallbackRegistry struct {
	next       atomic.Uint64
	registered atomic.Uint64
	rejected   atomic.Uint64
}

// NewCallbackRegistry returns an empty registry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{}
}

// Register wraps cb into a paint callback positioned at rect. The result is
// handed to the GUI library, which returns it inside a ClippedPrimitive.
func (r *CallbackRegistry) Register(rect paint.Rect, cb Callback) paint.PaintCallback {
	r.registered.Add(1)
	return paint.PaintCallback{
		Rect: rect,
		Callback: &PaintCallback{
			id:       r.next.Add(1),
			registry: r,
			callback: cb,
		},
	}
}

// Resolve downcasts a type-erased payload. It fails for payloads of another
// type, handles from a different registry and nil callbacks.
func (r *CallbackRegistry) Resolve(payload any) (*PaintCallback, bool) {
	pc, ok := payload.(*PaintCallback)
	if !ok || pc == nil || pc.registry != r || pc.callback == nil {
		r.rejected.Add(1)
		return nil, false
	}
	return pc, true
}

// Registered returns how many callbacks have been registered.
func (r *CallbackRegistry) Registered() uint64 { return r.registered.Load() }

// Rejected returns how many payloads failed to resolve.
func (r *CallbackRegistry) Rejected() uint64 { return r.rejected.Load() }
