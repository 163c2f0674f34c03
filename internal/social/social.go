// Package social renders the three branded listing graphics (New Listing,
// Under Contract, Sold) as PNG images.
package social

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/kpauljoseph/listingpacket/internal/address"
	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/fonts"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

const (
	CanvasWidth  = 1080
	CanvasHeight = 1350
	PhotoWidth   = 1080
	PhotoHeight  = 1085

	StreetSize = 59
	CitySize   = 40
	CityOffset = 100
)

var (
	ErrUnavailable     = errors.New("social post generation is unavailable")
	ErrTemplateMissing = errors.New("template not found")
)

type Alignment int

const (
	AlignCentered Alignment = iota
	AlignCenteredOffset
	AlignAbsolute
)

// Spec places the address text on one post type. Y is the top of the street
// line in canvas pixels.
type Spec struct {
	Type     models.PostType
	Template string
	Align    Alignment
	X, Y     int
	Color    color.NRGBA
}

type Post struct {
	Type     models.PostType
	Filename string
	PNG      []byte
}

var (
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	navy  = color.NRGBA{0x17, 0x33, 0x48, 0xff}
)

// DefaultSpecs returns the three posts in output order with template paths
// resolved against the config. Unparseable colors fall back to the brand colors.
func DefaultSpecs(cfg *config.Config) []Spec {
	colors := cfg.Social.TextColors
	return []Spec{
		{Type: models.NewListing, Template: cfg.Asset(cfg.Social.NewListing), Align: AlignCenteredOffset, X: 100, Y: 1206, Color: textColor(colors.NewListing, white)},
		{Type: models.UnderContract, Template: cfg.Asset(cfg.Social.UnderContract), Align: AlignCenteredOffset, X: 100, Y: 1206, Color: textColor(colors.UnderContract, navy)},
		{Type: models.Sold, Template: cfg.Asset(cfg.Social.Sold), Align: AlignCenteredOffset, X: 100, Y: 1206, Color: textColor(colors.Sold, navy)},
	}
}

func textColor(s string, fallback color.NRGBA) color.NRGBA {
	c, err := compose.ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// TextX returns the left edge of a text run of width textW.
func TextX(align Alignment, canvasW, textW, x int) int {
	switch align {
	case AlignCentered:
		return (canvasW - textW) / 2
	case AlignCenteredOffset:
		return canvasW/2 - textW/2 + x
	default:
		return x
	}
}

type Renderer struct {
	specs     []Spec
	fontPaths []string
	caps      capability.Set
	logger    *logger.Logger
}

func NewRenderer(cfg *config.Config, caps capability.Set, log *logger.Logger) *Renderer {
	return &Renderer{
		specs:     DefaultSpecs(cfg),
		fontPaths: cfg.Social.Fonts,
		caps:      caps,
		logger:    log,
	}
}

// WithSpecs replaces the post specs, mostly for tests.
func (r *Renderer) WithSpecs(specs []Spec) *Renderer {
	r.specs = specs
	return r
}

// Render produces one post per spec. Posts that fail are reported in the
// error slice and never prevent the others from being produced.
func (r *Renderer) Render(photo []byte, street, cityState string) ([]Post, []error) {
	if !r.caps.ImageEncoding {
		return nil, []error{ErrUnavailable}
	}

	var errs []error

	var photoImg image.Image
	if len(photo) > 0 {
		img, err := compose.Decode(photo)
		if err != nil {
			r.logger.Warn("Social posts: property photo unusable: %v", err)
			errs = append(errs, fmt.Errorf("failed to decode property photo: %w", err))
		} else {
			fitted, err := compose.FitCrop(compose.Flatten(img), PhotoWidth, PhotoHeight)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to fit property photo: %w", err))
			} else {
				photoImg = fitted
			}
		}
	}

	var text *textLayer
	if street != "" {
		chosen, faces, err := fonts.Faces(r.fontPaths, StreetSize, CitySize)
		if err != nil {
			r.logger.Warn("Social posts: no font available, text omitted: %v", err)
			errs = append(errs, err)
		} else {
			r.logger.Debug("Social posts: using font %s", chosen.Name)
			defer faces[0].Close()
			defer faces[1].Close()
			text = &textLayer{
				street:    strings.ToUpper(street),
				cityState: strings.ToUpper(cityState),
				large:     faces[0],
				small:     faces[1],
			}
		}
	}

	var posts []Post
	for _, spec := range r.specs {
		data, err := r.renderOne(spec, photoImg, text)
		if err != nil {
			r.logger.Warn("Could not create %s post: %v", spec.Type, err)
			errs = append(errs, fmt.Errorf("%s: %w", spec.Type, err))
			continue
		}
		posts = append(posts, Post{
			Type:     spec.Type,
			Filename: address.SocialFilename(street, spec.Type.Label()),
			PNG:      data,
		})
		r.logger.Debug("Created %s post (%d bytes)", spec.Type, len(data))
	}
	return posts, errs
}

func (r *Renderer) renderOne(spec Spec, photo image.Image, text *textLayer) ([]byte, error) {
	if ok, known := r.caps.PostTemplates[spec.Type]; known && !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, spec.Template)
	}
	raw, err := os.ReadFile(spec.Template)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, spec.Template)
		}
		return nil, err
	}
	tpl, err := compose.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}

	canvas := imaging.New(CanvasWidth, CanvasHeight, white)
	canvas = imaging.Overlay(canvas, imaging.Resize(tpl, CanvasWidth, CanvasHeight, imaging.Lanczos), image.Pt(0, 0), 1.0)

	if photo != nil {
		canvas = imaging.Paste(canvas, photo, image.Pt((CanvasWidth-PhotoWidth)/2, 0))
	}

	if text != nil {
		text.draw(canvas, spec)
	}

	return compose.EncodePNG(canvas)
}

type textLayer struct {
	street    string
	cityState string
	large     font.Face
	small     font.Face
}

func (t *textLayer) draw(dst *image.NRGBA, spec Spec) {
	drawLine(dst, t.large, t.street, spec, spec.Y)
	if t.cityState != "" {
		drawLine(dst, t.small, t.cityState, spec, spec.Y+CityOffset)
	}
}

// drawLine draws s with its top edge at top.
func drawLine(dst *image.NRGBA, face font.Face, s string, spec Spec, top int) {
	width := font.MeasureString(face, s).Ceil()
	x := TextX(spec.Align, dst.Bounds().Dx(), width, spec.X)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(spec.Color),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}
