// Package cover draws the branded letter-size cover page that opens a packet.
package cover

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/fonts"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
)

// Page geometry in inches.
const (
	PageWidth  = 8.5
	PageHeight = 11.0

	PhotoBandHeight = 7.12
	PhotoDPI        = 150

	LogoWidth     = 8.625
	LogoCenterTop = 1.0

	StreetFontSize   = 36.0
	StreetBaseline   = 3.21
	CityFontSize     = 24.0
	CityBaseline     = 2.58
	FallbackFontName = "Times"
)

var ErrUnavailable = errors.New("cover page generation is unavailable")

// Result is the generated page plus what went into it.
type Result struct {
	PDF     []byte
	Font    string
	Drawn   []string
	Skipped []string
}

type Renderer struct {
	backgroundPath string
	logoPath       string
	fontCandidates []fonts.Candidate
	caps           capability.Set
	logger         *logger.Logger
}

func NewRenderer(cfg *config.Config, caps capability.Set, log *logger.Logger) *Renderer {
	var candidates []fonts.Candidate
	for _, name := range cfg.Cover.Fonts {
		candidates = append(candidates, fonts.Candidate{
			Name: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
			Path: cfg.Font(name),
		})
	}
	candidates = append(candidates, fonts.Candidate{Name: FallbackFontName})

	return &Renderer{
		backgroundPath: cfg.Asset(cfg.Cover.Background),
		logoPath:       cfg.Asset(cfg.Cover.Logo),
		fontCandidates: candidates,
		caps:           caps,
		logger:         log,
	}
}

// Render produces a one-page PDF. Each layer that cannot be drawn is logged
// and left out; only failing to emit the document is an error.
func (r *Renderer) Render(photo []byte, street, cityState string) (*Result, error) {
	if !r.caps.Cover() {
		return nil, ErrUnavailable
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	res := &Result{}
	d := &drawer{pdf: pdf, logger: r.logger, result: res}

	if r.caps.CoverBackground {
		d.layer("background", func() error { return r.drawBackground(pdf) })
	} else {
		d.skip("background", "template not found: "+r.backgroundPath)
	}

	if len(photo) > 0 {
		d.layer("photo", func() error { return drawPhoto(pdf, photo) })
	}

	if r.caps.CoverLogo {
		d.layer("logo", func() error { return r.drawLogo(pdf) })
	} else {
		d.skip("logo", "logo not found: "+r.logoPath)
	}

	if street != "" || cityState != "" {
		font, tr := r.selectFont(pdf)
		res.Font = font
		pdf.SetTextColor(255, 255, 255)
		if street != "" {
			d.layer("street", func() error {
				return centeredText(pdf, font, tr, StreetFontSize, PageHeight-StreetBaseline, strings.ToUpper(street))
			})
		}
		if cityState != "" {
			d.layer("city", func() error {
				return centeredText(pdf, font, tr, CityFontSize, PageHeight-CityBaseline, strings.ToUpper(cityState))
			})
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write cover page: %w", err)
	}
	res.PDF = buf.Bytes()

	r.logger.Debug("Cover page drawn: layers=%v skipped=%v font=%q", res.Drawn, res.Skipped, res.Font)
	return res, nil
}

func (r *Renderer) drawBackground(pdf *fpdf.Fpdf) error {
	data, err := os.ReadFile(r.backgroundPath)
	if err != nil {
		return err
	}
	img, err := compose.Decode(data)
	if err != nil {
		return err
	}
	png, err := compose.EncodePNG(img)
	if err != nil {
		return err
	}
	return placeImage(pdf, "background", "PNG", png, 0, 0, PageWidth, PageHeight)
}

func drawPhoto(pdf *fpdf.Fpdf, photo []byte) error {
	img, err := compose.Decode(photo)
	if err != nil {
		return err
	}
	w := int(PageWidth * PhotoDPI)
	h := int(PhotoBandHeight * PhotoDPI)
	fitted, err := compose.FitCrop(compose.Flatten(img), w, h)
	if err != nil {
		return err
	}
	jpg, err := compose.EncodeJPEG(fitted, 90)
	if err != nil {
		return err
	}
	return placeImage(pdf, "photo", "JPG", jpg, 0, 0, PageWidth, PhotoBandHeight)
}

func (r *Renderer) drawLogo(pdf *fpdf.Fpdf) error {
	data, err := os.ReadFile(r.logoPath)
	if err != nil {
		return err
	}
	img, err := compose.Decode(data)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() == 0 {
		return errors.New("logo has zero width")
	}
	height := float64(b.Dy()) * LogoWidth / float64(b.Dx())
	png, err := compose.EncodePNG(img)
	if err != nil {
		return err
	}
	x := (PageWidth - LogoWidth) / 2
	y := LogoCenterTop - height/2
	return placeImage(pdf, "logo", "PNG", png, x, y, LogoWidth, height)
}

// selectFont registers the first loadable TTF candidate, ending with the
// core Times face which always loads.
func (r *Renderer) selectFont(pdf *fpdf.Fpdf) (string, func(string) string) {
	chosen, err := fonts.Select(r.fontCandidates, func(c fonts.Candidate) error {
		if c.Builtin() {
			return nil
		}
		data, err := fonts.ReadTTF(c.Path)
		if err != nil {
			return err
		}
		pdf.AddUTF8FontFromBytes(c.Name, "", data)
		if err := pdf.Error(); err != nil {
			pdf.ClearError()
			return err
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("No cover font candidate loaded, using %s: %v", FallbackFontName, err)
		chosen = fonts.Candidate{Name: FallbackFontName}
	}
	if chosen.Builtin() {
		return chosen.Name, pdf.UnicodeTranslatorFromDescriptor("")
	}
	return chosen.Name, func(s string) string { return s }
}

func centeredText(pdf *fpdf.Fpdf, font string, tr func(string) string, size, baseline float64, text string) error {
	pdf.SetFont(font, "", size)
	text = tr(text)
	width := pdf.GetStringWidth(text)
	pdf.Text((PageWidth-width)/2, baseline, text)
	return pdf.Error()
}

func placeImage(pdf *fpdf.Fpdf, name, kind string, data []byte, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: kind, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return err
	}
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return pdf.Error()
}

type drawer struct {
	pdf    *fpdf.Fpdf
	logger *logger.Logger
	result *Result
}

func (d *drawer) layer(name string, draw func() error) {
	if err := draw(); err != nil {
		d.pdf.ClearError()
		d.skip(name, err.Error())
		return
	}
	d.result.Drawn = append(d.result.Drawn, name)
}

func (d *drawer) skip(name, reason string) {
	d.logger.Warn("Cover page: skipping %s: %s", name, reason)
	d.result.Skipped = append(d.result.Skipped, name)
}
