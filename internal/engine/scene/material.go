package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/texture"
)

// TextureSlot identifies one of the PBR texture inputs of a material.
type TextureSlot int

// Texture slots in material-record order.
const (
	SlotAlbedo TextureSlot = iota
	SlotNormal
	SlotMetallic
	SlotRoughness
	SlotMetallicRoughness
	SlotAO
	SlotEmissive

	SlotCount = 7
)

var slotNames = [SlotCount]string{"albedo", "normal", "metallic", "roughness", "metallic_roughness", "ao", "emissive"}

func (s TextureSlot) String() string {
	if s < 0 || int(s) >= SlotCount {
		return "unknown"
	}
	return slotNames[s]
}

// SlotSet is a bitset over texture slots.
type SlotSet uint8

// Has reports whether slot s is in the set.
func (ss SlotSet) Has(s TextureSlot) bool {
	return ss&(1<<uint(s)) != 0
}

// With returns the set with slot s added or removed.
func (ss SlotSet) With(s TextureSlot, on bool) SlotSet {
	if on {
		return ss | 1<<uint(s)
	}
	return ss &^ (1 << uint(s))
}

// Material is a PBR material, either texture-backed, scalar-backed or a mix.
//
// HasTexture records which slots received a texture at load time and does not
// change afterwards except through SetTexture. UsesTexture is the runtime toggle
// that lets the scalar factors override a loaded texture. A slot is sampled only
// when both are set.
type Material struct {
	ID   uint32
	Name string

	Albedo    mgl32.Vec3
	Emissive  mgl32.Vec3
	Metallic  float32
	Roughness float32

	Textures    [SlotCount]*texture.Texture
	HasTexture  SlotSet
	UsesTexture SlotSet

	// Imported marks materials produced by an external model importer.
	Imported bool
}

// NewMaterial returns a scalar-backed material with neutral defaults.
func NewMaterial(name string) *Material {
	return &Material{
		Name:      name,
		Albedo:    mgl32.Vec3{1, 1, 1},
		Metallic:  0,
		Roughness: 0.5,
	}
}

// SetTexture installs tex in slot s. A nil texture clears the slot. The
// previous texture, if any, is returned so the caller can release its handle.
func (m *Material) SetTexture(s TextureSlot, tex *texture.Texture) *texture.Texture {
	prev := m.Textures[s]
	m.Textures[s] = tex
	m.HasTexture = m.HasTexture.With(s, tex != nil)
	m.UsesTexture = m.UsesTexture.With(s, tex != nil)
	return prev
}

// SetUseTexture toggles sampling of slot s. It has no effect on HasTexture.
func (m *Material) SetUseTexture(s TextureSlot, use bool) {
	m.UsesTexture = m.UsesTexture.With(s, use)
}

// Samples reports whether the shader should read slot s.
func (m *Material) Samples(s TextureSlot) bool {
	return m.HasTexture.Has(s) && m.UsesTexture.Has(s) && m.Textures[s] != nil
}
