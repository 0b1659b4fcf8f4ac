package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/multierr"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is a GPU texture object.
type Texture struct {
	ID     uint32
	Target uint32
	Width  int32
	Height int32
	Path   string
}

// Decode decodes an LDR image file into RGBA. TGA goes through the built-in
// decoder; everything else through the registered image codecs.
func Decode(data []byte, path string) (*image.RGBA, error) {
	var img image.Image
	var err error
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// DecodeFile reads and decodes an LDR image. A missing file is an error; there
// is no placeholder fallback at this layer.
func DecodeFile(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture %s: %w", path, err)
	}
	img, err := Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	return img, nil
}

// DecodeFiles decodes several images concurrently. Decoding is CPU-only; the
// caller uploads the results on the GL thread. All failures are reported.
func DecodeFiles(paths []string) ([]*image.RGBA, error) {
	out := make([]*image.RGBA, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, p := range paths {
		if p == "" {
			continue
		}
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			out[i], errs[i] = DecodeFile(p)
		}(i, p)
	}
	wg.Wait()

	return out, multierr.Combine(errs...)
}

// Upload creates a mipmapped RGBA8 2D texture. Color data (albedo, emissive)
// should pass srgb=true.
func Upload(img *image.RGBA, srgb bool) *Texture {
	internal := int32(gl.RGBA8)
	if srgb {
		internal = gl.SRGB8_ALPHA8
	}
	w, h := int32(img.Rect.Dx()), int32(img.Rect.Dy())

	t := &Texture{Target: gl.TEXTURE_2D, Width: w, Height: h}
	gl.GenTextures(1, &t.ID)
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

// Load decodes and uploads an LDR texture file.
func Load(path string, srgb bool) (*Texture, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	t := Upload(img, srgb)
	t.Path = path
	return t, nil
}

// UploadHDR creates an RGB16F 2D texture from a linear HDR image, flipping it
// so that v=0 is the bottom row.
func UploadHDR(img *HDRImage) *Texture {
	img.FlipVertical()
	w, h := int32(img.Width), int32(img.Height)

	t := &Texture{Target: gl.TEXTURE_2D, Width: w, Height: h}
	gl.GenTextures(1, &t.ID)
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB16F, w, h, 0, gl.RGB, gl.FLOAT, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

// LoadEquirect loads a Radiance panorama and uploads it.
func LoadEquirect(path string) (*Texture, error) {
	img, err := LoadHDR(path)
	if err != nil {
		return nil, err
	}
	t := UploadHDR(img)
	t.Path = path
	return t, nil
}

// Destroy deletes the GL texture. Any bindless handle obtained for it must
// already have been released through the Registry.
func (t *Texture) Destroy() {
	if t != nil && t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}
