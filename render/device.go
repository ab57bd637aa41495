// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The bridge RECEIVES the device from the host, it does NOT create one. The
// GUI is drawn with the same device and queue as the rest of the frame, so
// textures and targets can be shared freely.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// halProvider is implemented by hosts that expose HAL objects through
// dedicated accessors instead of Device/Queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HALFromProvider extracts the HAL device and queue behind a DeviceHandle.
//
// Device() and Queue() are tried first; providers implementing
// HalDevice() any and HalQueue() any are accepted as well.
func HALFromProvider(provider DeviceHandle) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, ErrNoDevice
	}
	var dev, queue any = provider.Device(), provider.Queue()
	if hp, ok := provider.(halProvider); ok {
		if _, isHAL := dev.(hal.Device); !isHAL {
			dev = hp.HalDevice()
		}
		if _, isHAL := queue.(hal.Queue); !isHAL {
			queue = hp.HalQueue()
		}
	}
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: device is %T", ErrNoDevice, dev)
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, nil, fmt.Errorf("%w: queue is %T", ErrNoDevice, queue)
	}
	return device, q, nil
}

// StaticDevice is a DeviceHandle over an already opened HAL device.
// Headless tools and tests use it with the noop backend.
type StaticDevice struct {
	HAL    hal.Device
	Q      hal.Queue
	Format gputypes.TextureFormat
}

// Device returns the HAL device.
func (d StaticDevice) Device() gpucontext.Device { return d.HAL }

// Queue returns the HAL queue.
func (d StaticDevice) Queue() gpucontext.Queue { return d.Q }

// SurfaceFormat returns the configured format.
func (d StaticDevice) SurfaceFormat() gputypes.TextureFormat { return d.Format }

// Adapter returns nil; StaticDevice does not expose the adapter.
func (StaticDevice) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns an empty AdapterInfo.
func (StaticDevice) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

var _ DeviceHandle = StaticDevice{}

// BindlessChunkSize returns how many textures one bindless bind group can
// hold on a device with the given limits, capped at requested. Each texture
// needs one sampled-texture slot, one sampler slot and two bindings.
// Zero means the bindless path is unavailable.
func BindlessChunkSize(limits gputypes.Limits, requested uint32) uint32 {
	n := requested
	n = min(n, limits.MaxSampledTexturesPerShaderStage)
	n = min(n, limits.MaxSamplersPerShaderStage)
	n = min(n, limits.MaxBindingsPerBindGroup/2)
	if n < 2 {
		return 0
	}
	return n
}
