package textures

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// fakeView has a stable identity, unlike zero-sized noop resources.
type fakeView struct{ id int }

func (*fakeView) Destroy()                {}
func (v *fakeView) NativeHandle() uintptr { return uintptr(v.id) }

type fakeSampler struct {
	id   int
	desc hal.SamplerDescriptor
}

func (*fakeSampler) Destroy()                {}
func (s *fakeSampler) NativeHandle() uintptr { return uintptr(s.id) }

// countingDevice wraps the noop device and counts texture churn.
type countingDevice struct {
	hal.Device

	textures       []hal.TextureDescriptor
	destroyed      int
	views          int
	destroyedViews int
	samplers       []*fakeSampler
	failTextures   bool
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.failTextures {
		return nil, errInjected
	}
	d.textures = append(d.textures, *desc)
	return d.Device.CreateTexture(desc)
}

func (d *countingDevice) DestroyTexture(hal.Texture) { d.destroyed++ }

func (d *countingDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.views++
	return &fakeView{id: d.views}, nil
}

func (d *countingDevice) DestroyTextureView(hal.TextureView) { d.destroyedViews++ }

func (d *countingDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	s := &fakeSampler{id: len(d.samplers) + 1, desc: *desc}
	d.samplers = append(d.samplers, s)
	return s, nil
}

type textureWrite struct {
	data   []byte
	layout hal.ImageDataLayout
	size   hal.Extent3D
}

// recordingQueue records texture writes. With lagging set, PollCompleted
// reports completed instead of the noop queue's synchronous index.
type recordingQueue struct {
	hal.Queue
	writes []textureWrite

	lagging   bool
	completed uint64
}

func (q *recordingQueue) PollCompleted() uint64 {
	if q.lagging {
		return q.completed
	}
	return q.Queue.PollCompleted()
}

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.writes = append(q.writes, textureWrite{data: append([]byte(nil), data...), layout: *layout, size: *size})
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func newTestDevice(t *testing.T) (*countingDevice, *recordingQueue) {
	t.Helper()

	instance, err := noop.API{}.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	require.NoError(t, err)

	return &countingDevice{Device: openDev.Device}, &recordingQueue{Queue: openDev.Queue}
}
