// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/wgpu/hal"

// Retirer defers the release of GPU objects until the submissions that may
// still reference them have completed.
//
// Objects handed to Release are tagged with the index of the latest
// submission recorded with Submitted. Collect releases every object whose
// submission the queue reports as completed. A nil *Retirer releases
// immediately.
//
// Retirer is not safe for concurrent use.
type Retirer struct {
	device hal.Device
	queue  hal.Queue

	last    uint64
	pending []retired
}

type retired struct {
	after   uint64
	release func()
}

// NewRetirer returns a retirer polling queue for completed submissions.
func NewRetirer(device hal.Device, queue hal.Queue) *Retirer {
	return &Retirer{device: device, queue: queue}
}

// Submitted records a submission index returned by hal.Queue.Submit. Every
// object alive at this point may be referenced by that submission.
func (r *Retirer) Submitted(index uint64) {
	if r != nil && index > r.last {
		r.last = index
	}
}

// Release schedules fn for when the latest recorded submission has
// completed.
func (r *Retirer) Release(fn func()) {
	if r == nil {
		fn()
		return
	}
	r.pending = append(r.pending, retired{after: r.last, release: fn})
}

// Collect runs the releases whose submission completed and returns how many
// ran.
func (r *Retirer) Collect() int {
	if r == nil || len(r.pending) == 0 {
		return 0
	}
	done := r.queue.PollCompleted()
	kept := r.pending[:0]
	ran := 0
	for _, obj := range r.pending {
		if obj.after <= done {
			obj.release()
			ran++
			continue
		}
		kept = append(kept, obj)
	}
	clear(r.pending[len(kept):])
	r.pending = kept
	return ran
}

// Flush waits for the device to finish outstanding work and runs every
// pending release.
func (r *Retirer) Flush() {
	if r == nil {
		return
	}
	if r.queue.PollCompleted() < r.last {
		if err := r.device.WaitIdle(); err != nil {
			slogger().Warn("gpu wait idle failed, releasing anyway", "err", err)
		}
	}
	for _, obj := range r.pending {
		obj.release()
	}
	r.pending = nil
}

// Pending returns the number of releases still waiting for the GPU.
func (r *Retirer) Pending() int {
	if r == nil {
		return 0
	}
	return len(r.pending)
}
