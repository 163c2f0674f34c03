// Package fixtures builds small in-memory documents for tests.
package fixtures

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// PDF returns a letter-size document with one labelled page per label.
func PDF(labels ...string) []byte {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 18)
	for _, label := range labels {
		pdf.AddPage()
		pdf.Text(72, 72, label)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(fmt.Sprintf("fixtures: pdf: %v", err))
	}
	return buf.Bytes()
}

// Corrupt returns bytes that start like a PDF but cannot be parsed.
func Corrupt() []byte {
	return []byte("%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 9 0 R >>\ngarbage\n%%EOF")
}

// Photo returns a w x h gradient image.
func Photo(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{0x40, 0x60, 0x80, 0xff})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / w), uint8(y * 255 / h), 0x80, 0xff})
		}
	}
	return img
}

func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Photo(w, h), imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		panic(fmt.Sprintf("fixtures: jpeg: %v", err))
	}
	return buf.Bytes()
}

// PNG returns a w x h image filled with c, alpha included.
func PNG(w, h int, c color.NRGBA) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, c), imaging.PNG); err != nil {
		panic(fmt.Sprintf("fixtures: png: %v", err))
	}
	return buf.Bytes()
}

// ZIP packs the given name -> content entries in order.
func ZIP(entries ...Entry) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			panic(fmt.Sprintf("fixtures: zip: %v", err))
		}
		if _, err := w.Write(e.Data); err != nil {
			panic(fmt.Sprintf("fixtures: zip: %v", err))
		}
	}
	if err := zw.Close(); err != nil {
		panic(fmt.Sprintf("fixtures: zip: %v", err))
	}
	return buf.Bytes()
}

type Entry struct {
	Name string
	Data []byte
}
