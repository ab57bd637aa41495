// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/internal/shader"
)

// defaultUniformAlignment is used when the device reports no alignment.
const defaultUniformAlignment = 256

// Transform maps logical points to clip space: clip = pos*Scale + Translation.
type Transform struct {
	Scale       [2]float32
	Translation [2]float32
}

// TransformFor returns the transform of a width×height pixel target drawn at
// pixelsPerPoint. The origin is the top-left corner and y points down.
func TransformFor(width, height uint32, pixelsPerPoint float32) Transform {
	if pixelsPerPoint <= 0 {
		pixelsPerPoint = 1
	}
	w := float32(width) / pixelsPerPoint
	h := float32(height) / pixelsPerPoint
	return Transform{
		Scale:       [2]float32{2 / w, -2 / h},
		Translation: [2]float32{-1, 1},
	}
}

// TransformTable is the uniform slab holding every context's Transform.
// Each entry sits at a multiple of the device's uniform offset alignment and
// is selected with a dynamic offset on bind group 0.
type TransformTable struct {
	device hal.Device
	retire *Retirer
	layout hal.BindGroupLayout
	stride uint64

	buffer  *GeometryBuffer
	offsets map[ContextID]uint32
	data    []byte

	group    hal.BindGroup
	groupGen uint64
}

// NewTransformTable returns an empty table. alignment is the device's
// minimum uniform buffer offset alignment.
func NewTransformTable(device hal.Device, retire *Retirer, layout hal.BindGroupLayout, alignment uint32) *TransformTable {
	stride := uint64(alignment)
	if stride < shader.TransformByteSize {
		stride = defaultUniformAlignment
	}
	return &TransformTable{
		device:  device,
		retire:  retire,
		layout:  layout,
		stride:  stride,
		buffer:  NewGeometryBuffer(device, retire, "gui_transforms", gputypes.BufferUsageUniform),
		offsets: make(map[ContextID]uint32),
	}
}

// Rebuild writes transforms into the slab in ascending ContextID order and
// replaces the offset table.
func (t *TransformTable) Rebuild(queue hal.Queue, transforms map[ContextID]Transform) error {
	ids := make([]ContextID, 0, len(transforms))
	for id := range transforms {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	size := int(t.stride) * len(ids) //nolint:gosec // stride is a small alignment
	t.data = slices.Grow(t.data[:0], size)[:size]
	clear(t.data)

	offsets := make(map[ContextID]uint32, len(ids))
	for i, id := range ids {
		off := uint64(i) * t.stride //nolint:gosec // i is non-negative
		tr := transforms[id]
		binary.LittleEndian.PutUint32(t.data[off:], math.Float32bits(tr.Scale[0]))
		binary.LittleEndian.PutUint32(t.data[off+4:], math.Float32bits(tr.Scale[1]))
		binary.LittleEndian.PutUint32(t.data[off+8:], math.Float32bits(tr.Translation[0]))
		binary.LittleEndian.PutUint32(t.data[off+12:], math.Float32bits(tr.Translation[1]))
		offsets[id] = uint32(off) //nolint:gosec // slab stays far below 4 GiB
	}

	if err := t.buffer.Upload(queue, t.data); err != nil {
		return err
	}
	if err := t.ensureGroup(); err != nil {
		return err
	}
	t.offsets = offsets
	return nil
}

// ensureGroup recreates the bind group after the slab was reallocated.
func (t *TransformTable) ensureGroup() error {
	buf := t.buffer.Buffer()
	if buf == nil || (t.group != nil && t.groupGen == t.buffer.Generation()) {
		return nil
	}
	group, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "gui_transform_group",
		Layout: t.layout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: shader.TransformBinding,
				Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(),
					Size:   shader.TransformByteSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create transform bind group: %w", err)
	}
	t.releaseGroup()
	t.group = group
	t.groupGen = t.buffer.Generation()
	return nil
}

// Offset returns the dynamic offset of id's entry.
func (t *TransformTable) Offset(id ContextID) (uint32, bool) {
	off, ok := t.offsets[id]
	return off, ok
}

// BindGroup returns the bind group over the slab, nil before the first
// non-empty Rebuild.
func (t *TransformTable) BindGroup() hal.BindGroup { return t.group }

// Stride returns the distance in bytes between entries.
func (t *TransformTable) Stride() uint64 { return t.stride }

// Len returns the number of contexts in the table.
func (t *TransformTable) Len() int { return len(t.offsets) }

// Destroy releases the bind group and the slab.
func (t *TransformTable) Destroy() {
	t.releaseGroup()
	t.group = nil
	t.buffer.Destroy()
	clear(t.offsets)
}

func (t *TransformTable) releaseGroup() {
	if g := t.group; g != nil {
		t.retire.Release(func() { t.device.DestroyBindGroup(g) })
	}
}
