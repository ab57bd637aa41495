package textures

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

// TextureFormat is the format of every managed GPU texture.
const TextureFormat = gputypes.TextureFormatRGBA8UnormSrgb

type gpuTexture struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
	options paint.TextureOptions
}

// GPUStore owns the GPU copies of managed textures and resolves user
// textures through the host. It implements render.TextureResolver.
//
// Replaced and freed textures are released through the retirer once the
// submissions sampling them completed.
type GPUStore struct {
	device   hal.Device
	queue    hal.Queue
	retire   *render.Retirer
	users    *UserTextures
	resolver ImageResolver

	textures map[render.TextureKey]*gpuTexture
	samplers map[paint.TextureOptions]hal.Sampler
}

var _ render.TextureResolver = (*GPUStore)(nil)

// NewGPUStore creates a store. users and resolver may be nil, in which case
// no user textures resolve. A nil retire destroys textures immediately.
func NewGPUStore(device hal.Device, queue hal.Queue, retire *render.Retirer, users *UserTextures, resolver ImageResolver) *GPUStore {
	return &GPUStore{
		device:   device,
		queue:    queue,
		retire:   retire,
		users:    users,
		resolver: resolver,
		textures: make(map[render.TextureKey]*gpuTexture),
		samplers: make(map[paint.TextureOptions]hal.Sampler),
	}
}

// Sync uploads every texture m changed since the last Sync. A failed upload
// does not stop the others.
func (s *GPUStore) Sync(m *Managed) error {
	var errs []error
	for _, key := range m.TakeDirty() {
		img, ok := m.Image(key)
		if !ok {
			continue
		}
		if err := s.Upload(key, img.Image, img.Options); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Upload writes img into the texture stored under key, recreating it when
// the size changed.
func (s *GPUStore) Upload(key render.TextureKey, img *image.RGBA, opts paint.TextureOptions) error {
	w, h := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())
	if w == 0 || h == 0 {
		return fmt.Errorf("upload %s: %w", key, ErrEmptyImage)
	}

	tex, ok := s.textures[key]
	if !ok || tex.width != w || tex.height != h {
		created, err := s.createTexture(key, w, h)
		if err != nil {
			return err
		}
		if ok {
			s.destroyTexture(tex)
			slogger().Debug("uibridge: texture resized", "texture", key, "width", w, "height", h)
		}
		s.textures[key] = created
		tex = created
	}
	tex.options = opts

	dst := &hal.ImageCopyTexture{
		Texture:  tex.texture,
		MipLevel: 0,
		Origin:   hal.Origin3D{},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  4 * w,
		RowsPerImage: h,
	}
	size := &hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	if err := s.queue.WriteTexture(dst, packedPixels(img), layout, size); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *GPUStore) createTexture(key render.TextureKey, w, h uint32) (*gpuTexture, error) {
	texture, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gui_texture_" + key.String(),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", key, err)
	}
	view, err := s.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:     "gui_texture_view_" + key.String(),
		Format:    TextureFormat,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		s.device.DestroyTexture(texture)
		return nil, fmt.Errorf("create texture view %s: %w", key, err)
	}
	return &gpuTexture{texture: texture, view: view, width: w, height: h}, nil
}

// packedPixels returns img's pixels without row padding.
func packedPixels(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	row := 4 * w
	if img.Stride == row && len(img.Pix) == row*h {
		return img.Pix
	}
	out := make([]byte, 0, row*h)
	for y := range h {
		start := y * img.Stride
		out = append(out, img.Pix[start:start+row]...)
	}
	return out
}

// Free destroys the textures under keys.
func (s *GPUStore) Free(keys ...render.TextureKey) {
	for _, key := range keys {
		if tex, ok := s.textures[key]; ok {
			s.destroyTexture(tex)
			delete(s.textures, key)
		}
	}
}

// Sampler returns the cached sampler for opts, creating it on first use.
func (s *GPUStore) Sampler(opts paint.TextureOptions) (hal.Sampler, error) {
	if sampler, ok := s.samplers[opts]; ok {
		return sampler, nil
	}
	address := addressMode(opts.WrapMode)
	sampler, err := s.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("gui_sampler_%d_%d_%d", opts.Magnification, opts.Minification, opts.WrapMode),
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filterMode(opts.Magnification),
		MinFilter:    filterMode(opts.Minification),
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	s.samplers[opts] = sampler
	return sampler, nil
}

func addressMode(m paint.TextureWrapMode) gputypes.AddressMode {
	switch m {
	case paint.WrapRepeat:
		return gputypes.AddressModeRepeat
	case paint.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func filterMode(f paint.TextureFilter) gputypes.FilterMode {
	if f == paint.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// ResolvedTextures lists every managed texture on the GPU and every user
// texture the host can resolve now.
func (s *GPUStore) ResolvedTextures() []render.BoundTexture {
	out := make([]render.BoundTexture, 0, len(s.textures))
	for key, tex := range s.textures {
		sampler, err := s.Sampler(tex.options)
		if err != nil {
			slogger().Warn("uibridge: texture has no sampler", "texture", key, "error", err)
			continue
		}
		out = append(out, render.BoundTexture{Key: key, View: tex.view, Sampler: sampler})
	}

	if s.users == nil || s.resolver == nil {
		return out
	}
	for _, user := range s.users.Handles() {
		key := render.KeyFor(0, paint.User(user.ID))
		view, ok := s.resolver.ResolveImage(user.Handle)
		if !ok || view == nil {
			slogger().Debug("uibridge: user texture not ready", "texture", key)
			continue
		}
		sampler, err := s.Sampler(user.Options)
		if err != nil {
			slogger().Warn("uibridge: texture has no sampler", "texture", key, "error", err)
			continue
		}
		out = append(out, render.BoundTexture{Key: key, View: view, Sampler: sampler})
	}
	return out
}

// Len returns the number of managed textures on the GPU.
func (s *GPUStore) Len() int { return len(s.textures) }

// Destroy releases every texture and sampler.
func (s *GPUStore) Destroy() {
	for key, tex := range s.textures {
		s.destroyTexture(tex)
		delete(s.textures, key)
	}
	for opts, sampler := range s.samplers {
		s.retire.Release(func() { s.device.DestroySampler(sampler) })
		delete(s.samplers, opts)
	}
}

func (s *GPUStore) destroyTexture(tex *gpuTexture) {
	s.retire.Release(func() {
		s.device.DestroyTextureView(tex.view)
		s.device.DestroyTexture(tex.texture)
	})
}
