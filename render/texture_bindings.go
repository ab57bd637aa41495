// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uibridge/internal/shader"
	"github.com/gogpu/uibridge/paint"
)

// TextureKey is the render-side identity of a texture. Managed textures are
// scoped by the owning context because every GUI context numbers its own
// textures from zero; user textures are global and carry a zero Owner.
type TextureKey struct {
	Kind  paint.TextureKind
	Owner ContextID
	ID    uint64
}

// KeyFor scopes a GUI texture id to the context that referenced it.
func KeyFor(owner ContextID, id paint.TextureID) TextureKey {
	if id.Kind == paint.TextureUser {
		owner = 0
	}
	return TextureKey{Kind: id.Kind, Owner: owner, ID: id.ID}
}

// String returns e.g. "Managed(ctx=2, 0)" or "User(7)".
func (k TextureKey) String() string {
	if k.Kind == paint.TextureUser {
		return fmt.Sprintf("User(%d)", k.ID)
	}
	return fmt.Sprintf("Managed(ctx=%d, %d)", k.Owner, k.ID)
}

// Compare orders keys by kind, owner and id.
func (k TextureKey) Compare(o TextureKey) int {
	if c := cmp.Compare(k.Kind, o.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Owner, o.Owner); c != 0 {
		return c
	}
	return cmp.Compare(k.ID, o.ID)
}

// BoundTexture is a texture whose GPU view and sampler are available.
type BoundTexture struct {
	Key     TextureKey
	View    hal.TextureView
	Sampler hal.Sampler
}

// TextureResolver lists the textures that are resolvable this frame.
// Textures still loading are simply absent.
type TextureResolver interface {
	ResolvedTextures() []BoundTexture
}

// TextureBinding locates a texture at draw time. Index is the slot within
// a bindless bind group and is always 0 for per-texture groups.
type TextureBinding struct {
	Group hal.BindGroup
	Index uint32
}

// TextureBindingTable maps texture keys to bind groups for group 1 of the
// GUI pipeline.
//
// With chunk == 0 every texture gets its own bind group. Otherwise textures
// are sorted by key and packed chunk at a time into bindless groups; a
// texture resolves to its group and slot.
//
// The table is rebuilt from scratch every frame. Rebuild installs the new
// groups and hands the previous ones to the retirer.
type TextureBindingTable struct {
	device hal.Device
	retire *Retirer
	layout hal.BindGroupLayout
	chunk  uint32

	entries map[TextureKey]TextureBinding
	groups  []hal.BindGroup
}

// NewTextureBindingTable returns an empty table creating groups with layout.
func NewTextureBindingTable(device hal.Device, retire *Retirer, layout hal.BindGroupLayout, chunk uint32) *TextureBindingTable {
	return &TextureBindingTable{
		device:  device,
		retire:  retire,
		layout:  layout,
		chunk:   chunk,
		entries: make(map[TextureKey]TextureBinding),
	}
}

// Rebuild replaces the table with bind groups for textures. Entries missing
// a view or sampler are left out. On error the previous table stays
// installed.
func (t *TextureBindingTable) Rebuild(textures []BoundTexture) error {
	live := make([]BoundTexture, 0, len(textures))
	for _, tex := range textures {
		if tex.View != nil && tex.Sampler != nil {
			live = append(live, tex)
		}
	}
	slices.SortFunc(live, func(a, b BoundTexture) int { return a.Key.Compare(b.Key) })
	live = slices.CompactFunc(live, func(a, b BoundTexture) bool { return a.Key == b.Key })

	entries := make(map[TextureKey]TextureBinding, len(live))
	var groups []hal.BindGroup
	var err error
	if t.chunk == 0 {
		groups, err = t.buildPerTexture(live, entries)
	} else {
		groups, err = t.buildChunked(live, entries)
	}
	if err != nil {
		// Never submitted.
		for _, g := range groups {
			t.device.DestroyBindGroup(g)
		}
		return err
	}

	t.release(t.groups)
	t.entries = entries
	t.groups = groups
	return nil
}

func (t *TextureBindingTable) release(groups []hal.BindGroup) {
	if len(groups) == 0 {
		return
	}
	t.retire.Release(func() {
		for _, g := range groups {
			t.device.DestroyBindGroup(g)
		}
	})
}

func (t *TextureBindingTable) buildPerTexture(live []BoundTexture, entries map[TextureKey]TextureBinding) ([]hal.BindGroup, error) {
	groups := make([]hal.BindGroup, 0, len(live))
	for _, tex := range live {
		group, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "gui_texture_" + tex.Key.String(),
			Layout:  t.layout,
			Entries: slotEntries(0, tex),
		})
		if err != nil {
			return groups, fmt.Errorf("create bind group for %s: %w", tex.Key, err)
		}
		groups = append(groups, group)
		entries[tex.Key] = TextureBinding{Group: group}
	}
	return groups, nil
}

func (t *TextureBindingTable) buildChunked(live []BoundTexture, entries map[TextureKey]TextureBinding) ([]hal.BindGroup, error) {
	var groups []hal.BindGroup
	for start := 0; start < len(live); start += int(t.chunk) {
		batch := live[start:min(start+int(t.chunk), len(live))]

		desc := make([]gputypes.BindGroupEntry, 0, 2*t.chunk)
		for i := uint32(0); i < t.chunk; i++ {
			// The layout declares every slot; a short last chunk repeats
			// its first texture in the unused ones.
			tex := batch[0]
			if int(i) < len(batch) {
				tex = batch[i]
			}
			desc = append(desc, slotEntries(i, tex)...)
		}

		group, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("gui_bindless_%d", len(groups)),
			Layout:  t.layout,
			Entries: desc,
		})
		if err != nil {
			return groups, fmt.Errorf("create bindless bind group %d: %w", len(groups), err)
		}
		groups = append(groups, group)
		for i, tex := range batch {
			entries[tex.Key] = TextureBinding{Group: group, Index: uint32(i)} //nolint:gosec // i < chunk
		}
	}
	return groups, nil
}

func slotEntries(slot uint32, tex BoundTexture) []gputypes.BindGroupEntry {
	texBinding, samplerBinding := shader.SlotBindings(slot)
	return []gputypes.BindGroupEntry{
		{Binding: texBinding, Resource: gputypes.TextureViewBinding{TextureView: tex.View.NativeHandle()}},
		{Binding: samplerBinding, Resource: gputypes.SamplerBinding{Sampler: tex.Sampler.NativeHandle()}},
	}
}

// Resolve returns the binding for key.
func (t *TextureBindingTable) Resolve(key TextureKey) (TextureBinding, bool) {
	b, ok := t.entries[key]
	return b, ok
}

// Len returns the number of resolvable textures.
func (t *TextureBindingTable) Len() int { return len(t.entries) }

// Groups returns the number of bind groups currently installed.
func (t *TextureBindingTable) Groups() int { return len(t.groups) }

// Destroy releases all bind groups.
func (t *TextureBindingTable) Destroy() {
	t.release(t.groups)
	t.groups = nil
	clear(t.entries)
}
