package viewer

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/radiance/internal/config"
	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/texture"
)

// textureFile is one configured texture and the material slot it feeds.
type textureFile struct {
	Path string
	Slot scene.TextureSlot
}

// groundTextureFiles lists the configured ground textures in slot order.
func groundTextureFiles(cfg config.SceneConfig) []textureFile {
	var files []textureFile
	for _, f := range []textureFile{
		{cfg.GroundAlbedo, scene.SlotAlbedo},
		{cfg.GroundNormal, scene.SlotNormal},
		{cfg.GroundRoughness, scene.SlotRoughness},
		{cfg.GroundAO, scene.SlotAO},
	} {
		if f.Path != "" {
			files = append(files, f)
		}
	}
	return files
}

// srgbSlot reports whether a slot holds color data.
func srgbSlot(s scene.TextureSlot) bool {
	return s == scene.SlotAlbedo || s == scene.SlotEmissive
}

// loadGroundTextures decodes the configured ground textures in parallel and
// uploads them on the GL thread. Files that fail are logged and skipped. It
// reports whether any texture was installed.
func (v *Viewer) loadGroundTextures() bool {
	files := groundTextureFiles(v.cfg.Scene)
	if len(files) == 0 {
		return false
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	imgs, err := texture.DecodeFiles(paths)
	for _, e := range multierr.Errors(err) {
		v.log.Warn("ground texture unavailable", zap.Error(e))
	}

	loaded := false
	ground := v.scene.Materials[matGround]
	for i, img := range imgs {
		if img == nil {
			continue
		}
		tex := texture.Upload(img, srgbSlot(files[i].Slot))
		tex.Path = files[i].Path
		if prev := ground.SetTexture(files[i].Slot, tex); prev != nil {
			prev.Destroy()
		}
		v.textures = append(v.textures, tex)
		loaded = true
		v.log.Debug("ground texture loaded",
			zap.String("path", tex.Path),
			zap.Stringer("slot", files[i].Slot),
			zap.Int32("width", tex.Width),
			zap.Int32("height", tex.Height))
	}
	return loaded
}

// toggleTextures flips sampling of every slot that holds a texture: if any
// is off they all turn on, otherwise they all turn off. It reports whether
// the material has any texture to toggle.
func toggleTextures(m *scene.Material) bool {
	on := false
	found := false
	for s := scene.TextureSlot(0); s < scene.SlotCount; s++ {
		if !m.HasTexture.Has(s) {
			continue
		}
		found = true
		if !m.UsesTexture.Has(s) {
			on = true
		}
	}
	for s := scene.TextureSlot(0); s < scene.SlotCount; s++ {
		if m.HasTexture.Has(s) {
			m.SetUseTexture(s, on)
		}
	}
	return found
}
