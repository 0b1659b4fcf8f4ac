// Package texture decodes LDR and HDR images and owns GPU texture objects,
// including bindless handle residency.
package texture

import (
	"errors"
	"fmt"
	"image"
)

var errTGATruncated = errors.New("TGA data truncated")

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// images at 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != 2 && imageType != 10 {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}
	if 18+idLength > len(data) {
		return nil, errTGATruncated
	}

	src := data[18+idLength:]
	stride := bpp / 8
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// put writes the n-th pixel in file order, honoring the origin bit.
	put := func(n int, px []byte) {
		x, y := n%width, n/width
		if !topToBottom {
			y = height - 1 - y
		}
		o := img.PixOffset(x, y)
		img.Pix[o], img.Pix[o+1], img.Pix[o+2] = px[2], px[1], px[0]
		img.Pix[o+3] = 255
		if stride == 4 {
			img.Pix[o+3] = px[3]
		}
	}

	total := width * height
	if imageType == 2 {
		if len(src) < total*stride {
			return nil, errTGATruncated
		}
		for n := 0; n < total; n++ {
			put(n, src[n*stride:])
		}
		return img, nil
	}

	pos := 0
	for n := 0; n < total; {
		if pos >= len(src) {
			return nil, errTGATruncated
		}
		header := src[pos]
		pos++
		count := int(header&0x7f) + 1
		if n+count > total {
			count = total - n
		}
		if header&0x80 != 0 {
			if pos+stride > len(src) {
				return nil, errTGATruncated
			}
			px := src[pos : pos+stride]
			pos += stride
			for i := 0; i < count; i++ {
				put(n+i, px)
			}
		} else {
			if pos+count*stride > len(src) {
				return nil, errTGATruncated
			}
			for i := 0; i < count; i++ {
				put(n+i, src[pos+i*stride:])
			}
			pos += count * stride
		}
		n += count
	}
	return img, nil
}
