// Package compose holds the raster geometry shared by the cover page and the
// social posts: aspect-preserving crop boxes, fill-cropping, and alpha
// flattening.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CropBox returns the largest centered rectangle of a srcW x srcH image whose
// aspect ratio matches dstW:dstH. Wider sources lose width symmetrically;
// taller sources lose height symmetrically.
func CropBox(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}

	targetAspect := float64(dstW) / float64(dstH)
	sourceAspect := float64(srcW) / float64(srcH)

	if sourceAspect > targetAspect {
		w := int(float64(srcH) * targetAspect)
		if w < 1 {
			w = 1
		}
		left := (srcW - w) / 2
		return image.Rect(left, 0, left+w, srcH)
	}

	h := int(float64(srcW) / targetAspect)
	if h < 1 {
		h = 1
	}
	top := (srcH - h) / 2
	return image.Rect(0, top, srcW, top+h)
}

// FitCrop crops img to the target aspect ratio and scales it to exactly w x h.
func FitCrop(img image.Image, w, h int) (*image.NRGBA, error) {
	b := img.Bounds()
	box := CropBox(b.Dx(), b.Dy(), w, h)
	if box.Empty() {
		return nil, fmt.Errorf("cannot crop %dx%d image to %dx%d", b.Dx(), b.Dy(), w, h)
	}
	cropped := imaging.Crop(img, box.Add(b.Min))
	return imaging.Resize(cropped, w, h, imaging.Lanczos), nil
}

// Flatten composites img over an opaque white background of the same size.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// Decode reads any registered image format without applying EXIF rotation so
// that pixel dimensions are preserved.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeConfig reports the pixel size without decoding the whole image.
func DecodeConfig(data []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(data))
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseHexColor parses "#rrggbb" or a small set of named colors.
func ParseHexColor(s string) (color.NRGBA, error) {
	switch s {
	case "white":
		return color.NRGBA{255, 255, 255, 255}, nil
	case "black":
		return color.NRGBA{0, 0, 0, 255}, nil
	}
	var c color.NRGBA
	c.A = 255
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
