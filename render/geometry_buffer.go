// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// GeometryBuffer is a growable GPU buffer whose contents are rewritten in
// full every frame.
//
// Capacity only grows. When a write needs more room the buffer is replaced
// by a new one sized to the next power of two, so the identity returned by
// Buffer changes; callers must re-fetch it after EnsureCapacity or Upload.
//
// Replaced and destroyed buffers go through the retirer, so a submission
// still reading them keeps them alive.
//
// GeometryBuffer is not safe for concurrent use. Each context owns its own
// pair and mutates them only from the render world's update phase.
type GeometryBuffer struct {
	device hal.Device
	retire *Retirer
	label  string
	usage  gputypes.BufferUsage

	buffer   hal.Buffer
	capacity uint64

	// generation increments on every reallocation.
	generation uint64
	destroyed  bool
}

// NewGeometryBuffer returns an empty buffer. No GPU memory is allocated until
// the first EnsureCapacity. CopyDst is always added to usage. A nil retire
// destroys replaced buffers immediately.
func NewGeometryBuffer(device hal.Device, retire *Retirer, label string, usage gputypes.BufferUsage) *GeometryBuffer {
	return &GeometryBuffer{
		device: device,
		retire: retire,
		label:  label,
		usage:  usage | gputypes.BufferUsageCopyDst,
	}
}

// EnsureCapacity makes sure the buffer holds at least required bytes and
// returns the current buffer. It reallocates only when required exceeds the
// current capacity; the new capacity is the next power of two not below
// required.
func (b *GeometryBuffer) EnsureCapacity(required uint64) (hal.Buffer, error) {
	if b.destroyed {
		return nil, ErrBufferDestroyed
	}
	if required <= b.capacity {
		return b.buffer, nil
	}

	size := nextPowerOfTwo(required)
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label,
		Size:  size,
		Usage: b.usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer (%d bytes): %w", b.label, size, err)
	}

	b.release(b.buffer)
	slogger().Debug("geometry buffer grown",
		"label", b.label, "from", b.capacity, "to", size)

	b.buffer = buf
	b.capacity = size
	b.generation++
	return buf, nil
}

// Upload writes data at offset 0 through the queue, growing the buffer first
// if needed. Empty data is a no-op and allocates nothing.
func (b *GeometryBuffer) Upload(queue hal.Queue, data []byte) error {
	if len(data) == 0 {
		if b.destroyed {
			return ErrBufferDestroyed
		}
		return nil
	}
	buf, err := b.EnsureCapacity(uint64(len(data)))
	if err != nil {
		return err
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		return fmt.Errorf("write %s buffer: %w", b.label, err)
	}
	return nil
}

// Buffer returns the current GPU buffer, or nil before the first allocation.
func (b *GeometryBuffer) Buffer() hal.Buffer { return b.buffer }

// Capacity returns the current capacity in bytes.
func (b *GeometryBuffer) Capacity() uint64 { return b.capacity }

// Generation returns how many times the buffer has been (re)allocated.
func (b *GeometryBuffer) Generation() uint64 { return b.generation }

// Destroy releases the GPU buffer. Safe to call multiple times.
func (b *GeometryBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.release(b.buffer)
	b.buffer = nil
	b.capacity = 0
}

func (b *GeometryBuffer) release(buf hal.Buffer) {
	if buf == nil {
		return
	}
	b.retire.Release(func() { b.device.DestroyBuffer(buf) })
}

// nextPowerOfTwo returns the smallest power of two >= n (n itself when it is
// already a power of two).
func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}
