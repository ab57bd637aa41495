package textures

import (
	"errors"
	"fmt"
	"image"
	"slices"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/uibridge/paint"
	"github.com/gogpu/uibridge/render"
)

// Managed keeps the CPU copies of the textures GUI contexts create through
// TexturesDelta. Images are premultiplied RGBA8.
//
// Keys are scoped by the owning context, so two contexts may both use
// paint.FontTexture without clashing. Managed is not safe for concurrent
// use; the bridge applies deltas from one goroutine.
type Managed struct {
	images map[render.TextureKey]*ManagedImage
	dirty  map[render.TextureKey]struct{}
}

// ManagedImage is one managed texture.
type ManagedImage struct {
	Image   *image.RGBA
	Options paint.TextureOptions
}

// NewManaged creates an empty store.
func NewManaged() *Managed {
	return &Managed{
		images: make(map[render.TextureKey]*ManagedImage),
		dirty:  make(map[render.TextureKey]struct{}),
	}
}

// Apply applies the Set entries of delta for owner. Entries that fail are
// skipped; the returned error joins all failures.
func (m *Managed) Apply(owner render.ContextID, delta paint.TexturesDelta) error {
	var errs []error
	for _, set := range delta.Set {
		if err := m.set(owner, set); err != nil {
			slogger().Warn("uibridge: texture update skipped",
				"texture", render.KeyFor(owner, set.ID), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", set.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Managed) set(owner render.ContextID, set paint.TextureSet) error {
	if set.ID.Kind != paint.TextureManaged {
		return ErrNotManaged
	}
	src := set.Delta.Image
	if src == nil {
		return ErrNoImage
	}
	key := render.KeyFor(owner, set.ID)

	if set.Delta.IsWhole() {
		m.images[key] = &ManagedImage{Image: toRGBA(src), Options: set.Delta.Options}
		m.dirty[key] = struct{}{}
		return nil
	}

	existing, ok := m.images[key]
	if !ok {
		return ErrUnknownTexture
	}
	pos := *set.Delta.Pos
	patch := image.Rectangle{Min: pos, Max: pos.Add(src.Bounds().Size())}
	if !patch.In(existing.Image.Bounds()) {
		return fmt.Errorf("%w: %v in %v", ErrPatchOutOfBounds, patch, existing.Image.Bounds())
	}
	xdraw.Copy(existing.Image, pos, src, src.Bounds(), xdraw.Src, nil)
	existing.Options = set.Delta.Options
	m.dirty[key] = struct{}{}
	return nil
}

// Free drops owner's textures named by ids. Unknown ids are ignored.
func (m *Managed) Free(owner render.ContextID, ids []paint.TextureID) []render.TextureKey {
	var freed []render.TextureKey
	for _, id := range ids {
		key := render.KeyFor(owner, id)
		if _, ok := m.images[key]; !ok {
			continue
		}
		delete(m.images, key)
		delete(m.dirty, key)
		freed = append(freed, key)
	}
	return freed
}

// RemoveOwner drops every texture of a context.
func (m *Managed) RemoveOwner(owner render.ContextID) []render.TextureKey {
	var freed []render.TextureKey
	for key := range m.images {
		if key.Owner == owner {
			freed = append(freed, key)
		}
	}
	for _, key := range freed {
		delete(m.images, key)
		delete(m.dirty, key)
	}
	slices.SortFunc(freed, render.TextureKey.Compare)
	return freed
}

// Image returns the texture stored under key.
func (m *Managed) Image(key render.TextureKey) (*ManagedImage, bool) {
	img, ok := m.images[key]
	return img, ok
}

// TakeDirty returns the keys changed since the previous call, in key order.
func (m *Managed) TakeDirty() []render.TextureKey {
	if len(m.dirty) == 0 {
		return nil
	}
	keys := make([]render.TextureKey, 0, len(m.dirty))
	for key := range m.dirty {
		keys = append(keys, key)
	}
	clear(m.dirty)
	slices.SortFunc(keys, render.TextureKey.Compare)
	return keys
}

// Len returns the number of stored textures.
func (m *Managed) Len() int { return len(m.images) }

// toRGBA copies src into a new premultiplied RGBA image anchored at the origin.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, src, b, xdraw.Src, nil)
	return dst
}
