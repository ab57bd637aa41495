// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/uibridge/paint"
)

// DrawPrimitive is the payload of a DrawCommand: *MeshDraw or *CallbackDraw.
type DrawPrimitive interface {
	drawPrimitive()
}

// MeshDraw draws IndexCount indices from the context's index buffer with the
// texture identified by Texture.
type MeshDraw struct {
	IndexCount uint32
	Texture    TextureKey
}

// CallbackDraw invokes a paint callback.
type CallbackDraw struct {
	Callback *PaintCallback

	// Rect is the callback's own rectangle, not its clip rectangle.
	Rect paint.Rect

	// ClipRect is the logical clip rectangle the GUI library assigned.
	ClipRect paint.Rect
}

func (*MeshDraw) drawPrimitive()     {}
func (*CallbackDraw) drawPrimitive() {}

// DrawCommand is one normalized paint job. ClipRect is in physical pixels
// and already intersected with the target bounds. It is never empty for
// meshes; a callback whose clip rectangle lies off-target keeps its command
// with an empty ClipRect and is not invoked.
type DrawCommand struct {
	ClipRect  URect
	Primitive DrawPrimitive
}

// DrawList is the per-context, per-frame output of BuildDrawList: ordered
// commands plus the flattened vertex and index bytes they refer to.
//
// Indices are biased so that all meshes can share one vertex buffer: the
// indices of a mesh are offset by the number of vertices appended before it.
type DrawList struct {
	Commands []DrawCommand
	Vertices []byte
	Indices  []byte

	vertexCount uint32
	indexCount  uint32
}

// Reset empties the list, keeping allocated capacity.
func (l *DrawList) Reset() {
	l.Commands = l.Commands[:0]
	l.Vertices = l.Vertices[:0]
	l.Indices = l.Indices[:0]
	l.vertexCount = 0
	l.indexCount = 0
}

// VertexCount returns the number of vertices appended.
func (l *DrawList) VertexCount() uint32 { return l.vertexCount }

// IndexCount returns the number of indices appended.
func (l *DrawList) IndexCount() uint32 { return l.indexCount }

// Callbacks returns the callback commands in draw order.
func (l *DrawList) Callbacks() []*CallbackDraw {
	var out []*CallbackDraw
	for i := range l.Commands {
		if cb, ok := l.Commands[i].Primitive.(*CallbackDraw); ok {
			out = append(out, cb)
		}
	}
	return out
}

// DrawListInput is what BuildDrawList needs for one context.
type DrawListInput struct {
	Owner          ContextID
	Primitives     []paint.ClippedPrimitive
	PixelsPerPoint float32

	// Width and Height are the target size in physical pixels.
	Width, Height uint32
}

// BuildDrawList resets l and fills it from in.Primitives in order.
//
// A mesh whose clip rectangle, converted to physical pixels and intersected
// with the target, is empty is dropped and contributes nothing, not even
// index offsets. Every resolvable callback yields exactly one command.
// Callback payloads are resolved through registry; a payload it rejects is
// logged and skipped.
func BuildDrawList(l *DrawList, in DrawListInput, registry *CallbackRegistry) {
	l.Reset()
	bounds := URect{W: in.Width, H: in.Height}

	for i := range in.Primitives {
		prim := &in.Primitives[i]
		clip := PhysicalRect(prim.ClipRect, in.PixelsPerPoint).Intersect(bounds)

		switch {
		case prim.Callback != nil:
			pc, ok := registry.Resolve(prim.Callback.Callback)
			if !ok {
				slogger().Error("skipping paint callback",
					"context", in.Owner, "err", ErrUnknownCallback,
					"payload", typeName(prim.Callback.Callback))
				continue
			}
			l.Commands = append(l.Commands, DrawCommand{
				ClipRect: clip,
				Primitive: &CallbackDraw{
					Callback: pc,
					Rect:     prim.Callback.Rect,
					ClipRect: prim.ClipRect,
				},
			})

		case prim.Mesh != nil:
			if clip.IsEmpty() || prim.Mesh.IsEmpty() {
				continue
			}
			l.appendMesh(prim.Mesh)
			l.Commands = append(l.Commands, DrawCommand{
				ClipRect: clip,
				Primitive: &MeshDraw{
					IndexCount: uint32(len(prim.Mesh.Indices)), //nolint:gosec // mesh sizes fit in uint32
					Texture:    KeyFor(in.Owner, prim.Mesh.TextureID),
				},
			})
		}
	}
}

// appendMesh appends the mesh's vertices verbatim and its indices biased by
// the running vertex count.
func (l *DrawList) appendMesh(m *paint.Mesh) {
	base := l.vertexCount

	off := len(l.Vertices)
	l.Vertices = grow(l.Vertices, len(m.Vertices)*paint.VertexSize)
	for i := range m.Vertices {
		writeVertex(l.Vertices[off:], &m.Vertices[i])
		off += paint.VertexSize
	}

	off = len(l.Indices)
	l.Indices = grow(l.Indices, len(m.Indices)*4)
	for _, idx := range m.Indices {
		binary.LittleEndian.PutUint32(l.Indices[off:], idx+base)
		off += 4
	}

	l.vertexCount += uint32(len(m.Vertices)) //nolint:gosec // mesh sizes fit in uint32
	l.indexCount += uint32(len(m.Indices))   //nolint:gosec // mesh sizes fit in uint32
}

// writeVertex packs v into the 20-byte GPU layout.
func writeVertex(buf []byte, v *paint.Vertex) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(v.Pos.X))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(v.Pos.Y))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(v.UV.X))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(v.UV.Y))
	copy(buf[16:20], v.Color[:])
}

// grow extends b by n bytes, reallocating only when capacity is short.
func grow(b []byte, n int) []byte {
	need := len(b) + n
	if cap(b) < need {
		nb := make([]byte, len(b), max(need, 2*cap(b)))
		copy(nb, b)
		b = nb
	}
	return b[:need]
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
