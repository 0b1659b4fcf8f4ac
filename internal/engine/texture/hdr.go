package texture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
)

// ErrNotRadiance is returned when data does not start with a Radiance header.
var ErrNotRadiance = errors.New("not a Radiance HDR file")

// ErrHDRTooLarge is returned when the declared resolution exceeds MaxHDRPixels
// or more pixels than the payload could encode.
var ErrHDRTooLarge = errors.New("HDR resolution too large")

// MaxHDRPixels caps the panoramas DecodeHDR accepts (16k x 8k).
const MaxHDRPixels = 16384 * 8192

// HDRImage is a linear floating-point RGB image. Rows are stored top to bottom.
type HDRImage struct {
	Width  int
	Height int
	Pix    []float32 // RGB triplets, len = Width*Height*3
}

// At returns the RGB value at (x, y).
func (img *HDRImage) At(x, y int) [3]float32 {
	i := (y*img.Width + x) * 3
	return [3]float32{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// FlipVertical reverses the row order in place.
func (img *HDRImage) FlipVertical() {
	row := img.Width * 3
	tmp := make([]float32, row)
	for y := 0; y < img.Height/2; y++ {
		top := img.Pix[y*row : (y+1)*row]
		bottom := img.Pix[(img.Height-1-y)*row : (img.Height-y)*row]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// LoadHDR reads a Radiance RGBE (.hdr) file. A missing or unreadable file is an error.
func LoadHDR(path string) (*HDRImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	img, err := DecodeHDR(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeHDR decodes Radiance RGBE data, flat or run-length encoded. The
// header is checked against the payload size before any pixel storage is
// allocated.
func DecodeHDR(data []byte) (*HDRImage, error) {
	h, err := readHDRHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.checkPayload(len(data) - h.offset); err != nil {
		return nil, err
	}

	m, err := rgbe.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("RGBE decode: %w", err)
	}
	src, ok := m.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("RGBE decode: unexpected image type %T", m)
	}

	bounds := src.Bounds()
	img := &HDRImage{Width: bounds.Dx(), Height: bounds.Dy()}
	img.Pix = make([]float32, img.Width*img.Height*3)
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Width*3:]
		for x := 0; x < img.Width; x++ {
			r, g, b, _ := src.HDRAt(bounds.Min.X+x, bounds.Min.Y+y).HDRRGBA()
			row[x*3], row[x*3+1], row[x*3+2] = float32(r), float32(g), float32(b)
		}
	}
	return img, nil
}

// hdrHeader is the parsed Radiance header. offset is the byte position of
// the first scanline.
type hdrHeader struct {
	width, height int
	offset        int
}

func readHDRHeader(data []byte) (hdrHeader, error) {
	var h hdrHeader
	r := bufio.NewReader(bytes.NewReader(data))

	magic, err := r.ReadString('\n')
	if err != nil || !(strings.HasPrefix(magic, "#?RADIANCE") || strings.HasPrefix(magic, "#?RGBE")) {
		return h, ErrNotRadiance
	}
	h.offset = len(magic)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return h, fmt.Errorf("HDR header truncated: %w", err)
		}
		h.offset += len(line)
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "FORMAT=") && line != "FORMAT=32-bit_rle_rgbe" {
			return h, fmt.Errorf("unsupported HDR format %q", strings.TrimPrefix(line, "FORMAT="))
		}
	}

	resLine, err := r.ReadString('\n')
	if err != nil {
		return h, fmt.Errorf("HDR resolution line missing: %w", err)
	}
	h.offset += len(resLine)
	fields := strings.Fields(resLine)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return h, fmt.Errorf("unsupported HDR orientation %q", strings.TrimSpace(resLine))
	}
	height, err1 := strconv.Atoi(fields[1])
	width, err2 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return h, fmt.Errorf("invalid HDR resolution %q", strings.TrimSpace(resLine))
	}
	h.width, h.height = width, height
	return h, nil
}

// checkPayload rejects resolutions above MaxHDRPixels and payloads too short
// to hold them. The tightest encoding spends at least one byte per channel
// for every 128-pixel run.
func (h hdrHeader) checkPayload(payload int) error {
	if h.width > MaxHDRPixels/h.height {
		return fmt.Errorf("%dx%d: %w", h.width, h.height, ErrHDRTooLarge)
	}
	runs := (h.width + 127) / 128
	if need := h.height * runs * 4; payload < need {
		return fmt.Errorf("%dx%d needs at least %d payload bytes, have %d: %w",
			h.width, h.height, need, payload, ErrHDRTooLarge)
	}
	return nil
}
