package textures

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

func rgba(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	return img
}

func TestGPUStoreUpload(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)
	key := render.KeyFor(1, paint.FontTexture)

	require.NoError(t, s.Upload(key, rgba(4, 2), paint.TextureLinear))
	require.Len(t, dev.textures, 1)
	desc := dev.textures[0]
	assert.Equal(t, TextureFormat, desc.Format)
	assert.Equal(t, hal.Extent3D{Width: 4, Height: 2, DepthOrArrayLayers: 1}, desc.Size)
	assert.Equal(t, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, desc.Usage)

	require.Len(t, queue.writes, 1)
	w := queue.writes[0]
	assert.Equal(t, uint32(16), w.layout.BytesPerRow)
	assert.Len(t, w.data, 32)

	require.NoError(t, s.Upload(key, rgba(4, 2), paint.TextureNearest))
	assert.Len(t, dev.textures, 1, "same size reuses the texture")

	require.NoError(t, s.Upload(key, rgba(8, 8), paint.TextureNearest))
	assert.Len(t, dev.textures, 2)
	assert.Equal(t, 1, dev.destroyed)
	assert.Equal(t, 1, dev.destroyedViews)
	assert.Equal(t, 1, s.Len())
}

func TestGPUStoreUploadSubImage(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)

	sub := rgba(4, 4).SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	require.NoError(t, s.Upload(render.KeyFor(1, paint.Managed(2)), sub, paint.TextureLinear))

	require.Len(t, queue.writes, 1)
	assert.Equal(t, append(sub.Pix[0:8:8], sub.Pix[sub.Stride:sub.Stride+8]...), queue.writes[0].data,
		"rows are packed without padding")
}

func TestGPUStoreUploadErrors(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)

	err := s.Upload(render.KeyFor(1, paint.FontTexture), image.NewRGBA(image.Rect(0, 0, 0, 4)), paint.TextureLinear)
	assert.ErrorIs(t, err, ErrEmptyImage)

	dev.failTextures = true
	err = s.Upload(render.KeyFor(1, paint.FontTexture), rgba(1, 1), paint.TextureLinear)
	assert.ErrorIs(t, err, errInjected)
	assert.Zero(t, s.Len())
}

func TestGPUStoreSync(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)
	m := NewManaged()

	require.NoError(t, m.Apply(1, paint.TexturesDelta{Set: []paint.TextureSet{
		wholeSet(0, solid(2, 2, color.NRGBA{A: 255})),
		wholeSet(1, solid(1, 1, color.NRGBA{A: 255})),
	}}))
	require.NoError(t, s.Sync(m))
	assert.Equal(t, 2, s.Len())
	assert.Len(t, queue.writes, 2)

	require.NoError(t, s.Sync(m))
	assert.Len(t, queue.writes, 2, "clean textures are not uploaded again")

	s.Free(m.Free(1, []paint.TextureID{paint.Managed(1)})...)
	assert.Equal(t, 1, s.Len())
}

func TestGPUStoreSyncReportsFailures(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)
	m := NewManaged()

	require.NoError(t, m.Apply(1, paint.TexturesDelta{Set: []paint.TextureSet{
		wholeSet(0, solid(2, 2, color.NRGBA{A: 255})),
		wholeSet(1, solid(1, 1, color.NRGBA{A: 255})),
	}}))
	dev.failTextures = true
	err := s.Sync(m)
	assert.ErrorIs(t, err, errInjected)
	assert.Zero(t, s.Len())
	assert.Empty(t, queue.writes)
	assert.Equal(t, 2, m.Len(), "images stay managed")
}

func TestGPUStoreSamplerCache(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)

	a, err := s.Sampler(paint.TextureLinear)
	require.NoError(t, err)
	b, err := s.Sampler(paint.TextureLinear)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = s.Sampler(paint.TextureOptions{Magnification: paint.FilterNearest, WrapMode: paint.WrapMirroredRepeat})
	require.NoError(t, err)
	require.Len(t, dev.samplers, 2)

	desc := dev.samplers[1].desc
	assert.Equal(t, gputypes.FilterModeNearest, desc.MagFilter)
	assert.Equal(t, gputypes.FilterModeLinear, desc.MinFilter)
	assert.Equal(t, gputypes.AddressModeMirrorRepeat, desc.AddressModeU)
	assert.Equal(t, gputypes.AddressModeMirrorRepeat, desc.AddressModeV)
}

func TestGPUStoreResolvedTextures(t *testing.T) {
	dev, queue := newTestDevice(t)
	users := NewUserTextures()
	ready := &fakeView{id: 100}
	resolver := ImageResolverFunc(func(h Handle) (hal.TextureView, bool) {
		if h == "loaded" {
			return ready, true
		}
		return nil, false
	})
	s := NewGPUStore(dev, queue, nil, users, resolver)

	managedKey := render.KeyFor(3, paint.FontTexture)
	require.NoError(t, s.Upload(managedKey, rgba(2, 2), paint.TextureLinear))
	loaded := users.Add("loaded", paint.TextureNearest)
	users.Add("pending", paint.TextureLinear)

	got := s.ResolvedTextures()
	require.Len(t, got, 2)

	byKey := make(map[render.TextureKey]render.BoundTexture)
	for _, bt := range got {
		byKey[bt.Key] = bt
		assert.NotNil(t, bt.Sampler)
	}
	assert.Contains(t, byKey, managedKey)
	user, ok := byKey[render.KeyFor(0, paint.User(loaded))]
	require.True(t, ok)
	assert.Same(t, ready, user.View)
}

func TestGPUStoreDestroy(t *testing.T) {
	dev, queue := newTestDevice(t)
	s := NewGPUStore(dev, queue, nil, nil, nil)
	require.NoError(t, s.Upload(render.KeyFor(1, paint.FontTexture), rgba(1, 1), paint.TextureLinear))
	require.NoError(t, s.Upload(render.KeyFor(2, paint.FontTexture), rgba(1, 1), paint.TextureLinear))

	s.Destroy()
	assert.Zero(t, s.Len())
	assert.Equal(t, 2, dev.destroyed)
	assert.Empty(t, s.ResolvedTextures())
}

func TestGPUStoreReleasesAfterSubmissionCompletes(t *testing.T) {
	dev, queue := newTestDevice(t)
	queue.lagging = true
	retire := render.NewRetirer(dev, queue)
	s := NewGPUStore(dev, queue, retire, nil, nil)

	resized := render.KeyFor(1, paint.FontTexture)
	freed := render.KeyFor(1, paint.Managed(1))
	require.NoError(t, s.Upload(resized, rgba(2, 2), paint.TextureLinear))
	require.NoError(t, s.Upload(freed, rgba(2, 2), paint.TextureLinear))
	retire.Submitted(1)

	require.NoError(t, s.Upload(resized, rgba(4, 4), paint.TextureLinear))
	s.Free(freed)
	assert.Zero(t, retire.Collect())
	assert.Zero(t, dev.destroyed, "submission 1 may still sample both textures")
	assert.Zero(t, dev.destroyedViews)
	assert.Equal(t, 2, retire.Pending())

	queue.completed = 1
	assert.Equal(t, 2, retire.Collect())
	assert.Equal(t, 2, dev.destroyed)
	assert.Equal(t, 2, dev.destroyedViews)
	assert.Equal(t, 1, s.Len())
}
