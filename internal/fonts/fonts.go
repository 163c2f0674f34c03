// Package fonts picks the first usable font from an ordered candidate list.
package fonts

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var ErrNoFont = errors.New("no usable font candidate")

// Candidate is one entry of a ranked font list. Path is empty for fonts that
// need no file, such as PDF core fonts or the built-in Go face.
type Candidate struct {
	Name string
	Path string
}

func (c Candidate) Builtin() bool {
	return c.Path == ""
}

// Select returns the first candidate for which load succeeds.
func Select(candidates []Candidate, load func(Candidate) error) (Candidate, error) {
	var errs []error
	for _, c := range candidates {
		if err := load(c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		return c, nil
	}
	return Candidate{}, errors.Join(append([]error{ErrNoFont}, errs...)...)
}

// ReadSFNT reads a TTF/OTF file, or the first face of a TTC collection, and
// returns the parsed font.
func ReadSFNT(path string) (*opentype.Font, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := ParseSFNT(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, data, nil
}

func ParseSFNT(data []byte) (*opentype.Font, error) {
	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if coll.NumFonts() == 0 {
		return nil, errors.New("empty font collection")
	}
	return coll.Font(0)
}

// GoRegular is the last-resort face compiled into the binary.
func GoRegular() *opentype.Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	return f
}

// Face opens a face at a pixel size with 72 DPI so that points equal pixels.
func Face(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Faces resolves a ranked list of font files to faces at the given sizes,
// falling back to Go Regular. The chosen candidate is returned alongside.
func Faces(paths []string, sizes ...float64) (Candidate, []font.Face, error) {
	var candidates []Candidate
	for _, p := range paths {
		candidates = append(candidates, Candidate{Name: p, Path: p})
	}
	candidates = append(candidates, Candidate{Name: "Go Regular"})

	var faces []font.Face
	chosen, err := Select(candidates, func(c Candidate) error {
		f := GoRegular()
		if !c.Builtin() {
			parsed, _, err := ReadSFNT(c.Path)
			if err != nil {
				return err
			}
			f = parsed
		}
		opened := make([]font.Face, 0, len(sizes))
		for _, size := range sizes {
			face, err := Face(f, size)
			if err != nil {
				return err
			}
			opened = append(opened, face)
		}
		faces = opened
		return nil
	})
	return chosen, faces, err
}

// ReadTTF reads a single-face TrueType/OpenType file. Collections are
// rejected because PDF embedding needs a standalone face.
func ReadTTF(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := opentype.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, nil
}
