// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/paint"
)

// ContextID is the stable identity of one GUI context. The simulation world
// assigns it when a context is registered and the render world keys all
// per-context state by it.
type ContextID uint64

// TargetKind tells what a context renders into.
type TargetKind uint8

const (
	// TargetWindow draws on top of the window's surface texture.
	TargetWindow TargetKind = iota

	// TargetImage draws into an off-screen image.
	TargetImage
)

// String returns "Window" or "Image".
func (k TargetKind) String() string {
	switch k {
	case TargetWindow:
		return "Window"
	case TargetImage:
		return "Image"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target describes the color attachment a context renders into.
type Target struct {
	Kind TargetKind

	// View is the color attachment. A nil View skips the context.
	View hal.TextureView

	Format gputypes.TextureFormat

	// Width and Height are in physical pixels.
	Width, Height uint32

	// HDR selects the floating point pipeline variant.
	HDR bool

	// LoadOp and ClearColor apply to image targets; windows always load
	// so the GUI composites over the scene.
	LoadOp     gputypes.LoadOp
	ClearColor gputypes.Color
}

// IsDegenerate reports whether the target is less than one pixel on either axis.
func (t Target) IsDegenerate() bool { return t.Width < 1 || t.Height < 1 }

// Bounds returns the full target rectangle.
func (t Target) Bounds() URect { return URect{X: 0, Y: 0, W: t.Width, H: t.Height} }

// loadOp returns the load operation for the context's render pass.
func (t Target) loadOp() gputypes.LoadOp {
	if t.Kind == TargetImage && t.LoadOp != 0 {
		return t.LoadOp
	}
	if t.Kind == TargetImage {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// URect is a rectangle in physical pixels.
type URect struct {
	X, Y, W, H uint32
}

// IsEmpty reports whether the rectangle covers no pixel.
func (r URect) IsEmpty() bool { return r.W == 0 || r.H == 0 }

// Intersect returns the overlap of r and o. The result is empty when they do
// not overlap.
func (r URect) Intersect(o URect) URect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return URect{X: x0, Y: y0}
	}
	return URect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// PhysicalRect converts a logical rectangle to physical pixels by scaling
// with pixelsPerPoint and rounding each edge. Negative edges saturate to 0.
func PhysicalRect(r paint.Rect, pixelsPerPoint float32) URect {
	x0 := toPixel(r.Min.X * pixelsPerPoint)
	y0 := toPixel(r.Min.Y * pixelsPerPoint)
	x1 := toPixel(r.Max.X * pixelsPerPoint)
	y1 := toPixel(r.Max.Y * pixelsPerPoint)
	if x1 <= x0 || y1 <= y0 {
		return URect{X: x0, Y: y0}
	}
	return URect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// toPixel rounds v to the nearest pixel and saturates into the uint32 range.
func toPixel(v float32) uint32 {
	v = math32.Round(v)
	switch {
	case math32.IsNaN(v) || v <= 0:
		return 0
	case v >= math32.MaxUint32:
		return math32.MaxUint32
	default:
		return uint32(v)
	}
}
