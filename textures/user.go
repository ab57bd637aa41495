package textures

import (
	"cmp"
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/paint"
)

// Handle is a host-side image handle, for example an asset id. It must be
// comparable.
type Handle any

// ImageResolver resolves host handles to GPU views. It returns false while
// the image is not loaded yet.
type ImageResolver interface {
	ResolveImage(h Handle) (hal.TextureView, bool)
}

// ImageResolverFunc adapts a function to ImageResolver.
type ImageResolverFunc func(h Handle) (hal.TextureView, bool)

// ResolveImage calls f(h).
func (f ImageResolverFunc) ResolveImage(h Handle) (hal.TextureView, bool) { return f(h) }

// UserTexture is one registered host image.
type UserTexture struct {
	ID      uint64
	Handle  Handle
	Options paint.TextureOptions
}

// UserTextures assigns paint.User ids to host handles. Ids of removed
// handles are reused. It is safe for concurrent use.
type UserTextures struct {
	mu      sync.Mutex
	next    uint64
	free    []uint64
	ids     map[Handle]uint64
	entries map[uint64]UserTexture
}

// NewUserTextures creates an empty registry.
func NewUserTextures() *UserTextures {
	return &UserTextures{
		ids:     make(map[Handle]uint64),
		entries: make(map[uint64]UserTexture),
	}
}

// Add registers h and returns its id. A handle that is already registered
// keeps its id and gets the new options.
func (u *UserTextures) Add(h Handle, opts paint.TextureOptions) uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	if id, ok := u.ids[h]; ok {
		u.entries[id] = UserTexture{ID: id, Handle: h, Options: opts}
		return id
	}

	var id uint64
	if n := len(u.free); n > 0 {
		id = u.free[n-1]
		u.free = u.free[:n-1]
	} else {
		id = u.next
		u.next++
	}
	u.ids[h] = id
	u.entries[id] = UserTexture{ID: id, Handle: h, Options: opts}
	return id
}

// Remove unregisters h and returns the id it had.
func (u *UserTextures) Remove(h Handle) (uint64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, ok := u.ids[h]
	if !ok {
		return 0, false
	}
	delete(u.ids, h)
	delete(u.entries, id)
	u.free = append(u.free, id)
	return id, true
}

// ID returns the id of h.
func (u *UserTextures) ID(h Handle) (uint64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id, ok := u.ids[h]
	return id, ok
}

// Handles returns a snapshot of the registry ordered by id.
func (u *UserTextures) Handles() []UserTexture {
	u.mu.Lock()
	out := make([]UserTexture, 0, len(u.entries))
	for _, e := range u.entries {
		out = append(out, e)
	}
	u.mu.Unlock()

	slices.SortFunc(out, func(a, b UserTexture) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of registered handles.
func (u *UserTextures) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.entries)
}
