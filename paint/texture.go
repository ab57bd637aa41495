package paint

import (
	"fmt"
	"image"
)

// TextureKind tells who owns a texture identity.
type TextureKind uint8

const (
	// TextureManaged textures are created and freed by the GUI library
	// through TexturesDelta. Their ids are only unique within one context.
	TextureManaged TextureKind = iota

	// TextureUser textures are registered by the host application.
	// Their ids are global to the session.
	TextureUser
)

// String returns the kind name.
func (k TextureKind) String() string {
	switch k {
	case TextureManaged:
		return "Managed"
	case TextureUser:
		return "User"
	default:
		return fmt.Sprintf("TextureKind(%d)", int(k))
	}
}

// TextureID identifies a texture referenced by a Mesh.
type TextureID struct {
	Kind TextureKind
	ID   uint64
}

// Managed returns the id of a library-managed texture.
func Managed(id uint64) TextureID { return TextureID{Kind: TextureManaged, ID: id} }

// User returns the id of a host-registered texture.
func User(id uint64) TextureID { return TextureID{Kind: TextureUser, ID: id} }

// FontTexture is the managed texture the GUI library uses for its font atlas.
var FontTexture = Managed(0)

// String returns e.g. "Managed(3)".
func (t TextureID) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.ID)
}

// TextureFilter selects texel filtering.
type TextureFilter uint8

const (
	FilterLinear TextureFilter = iota
	FilterNearest
)

// TextureWrapMode selects addressing outside [0, 1].
type TextureWrapMode uint8

const (
	WrapClampToEdge TextureWrapMode = iota
	WrapRepeat
	WrapMirroredRepeat
)

// TextureOptions controls how a texture is sampled.
type TextureOptions struct {
	Magnification TextureFilter
	Minification  TextureFilter
	WrapMode      TextureWrapMode
}

// Predefined sampling options.
var (
	TextureLinear  = TextureOptions{Magnification: FilterLinear, Minification: FilterLinear}
	TextureNearest = TextureOptions{Magnification: FilterNearest, Minification: FilterNearest}
)

// ImageDelta is a full or partial texture update.
//
// When Pos is nil, Image replaces the whole texture and defines its size.
// Otherwise Image is written at Pos into the existing texture.
type ImageDelta struct {
	Image   image.Image
	Pos     *image.Point
	Options TextureOptions
}

// IsWhole reports whether the delta replaces the whole texture.
func (d ImageDelta) IsWhole() bool { return d.Pos == nil }

// TextureSet pairs a managed texture with its update.
type TextureSet struct {
	ID    TextureID
	Delta ImageDelta
}

// TexturesDelta lists texture changes produced by one GUI pass.
// Set entries are applied before the frame's primitives are drawn; Free
// entries are applied after.
type TexturesDelta struct {
	Set  []TextureSet
	Free []TextureID
}

// IsEmpty reports whether the delta has no changes.
func (d TexturesDelta) IsEmpty() bool { return len(d.Set) == 0 && len(d.Free) == 0 }

// Append adds other's changes after d's.
func (d *TexturesDelta) Append(other TexturesDelta) {
	d.Set = append(d.Set, other.Set...)
	d.Free = append(d.Free, other.Free...)
}

// Clear drops all changes while keeping capacity.
func (d *TexturesDelta) Clear() {
	d.Set = d.Set[:0]
	d.Free = d.Free[:0]
}
