// Package capability probes, once at start-up, which optional features the
// running process can serve. The resulting Set is handed to the renderers.
package capability

import (
	"bytes"
	"image"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

type Set struct {
	PDFGeneration bool
	ImageEncoding bool

	CoverBackground bool
	CoverLogo       bool
	PostTemplates   map[models.PostType]bool
}

// Cover reports whether a cover page can be generated at all. Missing
// template or logo files only remove layers, they do not disable the page.
func (s Set) Cover() bool {
	return s.PDFGeneration && s.ImageEncoding
}

// Social reports whether at least one social post can be generated.
func (s Set) Social() bool {
	if !s.ImageEncoding {
		return false
	}
	for _, ok := range s.PostTemplates {
		if ok {
			return true
		}
	}
	return false
}

// ImageConversion reports whether JPG intake can be turned into PDF pages.
func (s Set) ImageConversion() bool {
	return s.PDFGeneration && s.ImageEncoding
}

// All is a fully enabled set for callers that skip probing.
func All() Set {
	return Set{
		PDFGeneration:   true,
		ImageEncoding:   true,
		CoverBackground: true,
		CoverLogo:       true,
		PostTemplates: map[models.PostType]bool{
			models.NewListing:    true,
			models.UnderContract: true,
			models.Sold:          true,
		},
	}
}

func Detect(cfg *config.Config, log *logger.Logger) Set {
	s := Set{
		PDFGeneration:   probePDF(),
		ImageEncoding:   probeImage(),
		CoverBackground: exists(cfg.Asset(cfg.Cover.Background)),
		CoverLogo:       exists(cfg.Asset(cfg.Cover.Logo)),
		PostTemplates: map[models.PostType]bool{
			models.NewListing:    exists(cfg.Asset(cfg.Social.NewListing)),
			models.UnderContract: exists(cfg.Asset(cfg.Social.UnderContract)),
			models.Sold:          exists(cfg.Asset(cfg.Social.Sold)),
		},
	}

	log.Debug("Capabilities: pdf=%t image=%t cover-background=%t cover-logo=%t",
		s.PDFGeneration, s.ImageEncoding, s.CoverBackground, s.CoverLogo)
	for _, t := range []models.PostType{models.NewListing, models.UnderContract, models.Sold} {
		if !s.PostTemplates[t] {
			log.Debug("Social template for %s not found", t)
		}
	}
	return s
}

func probePDF() bool {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	var buf bytes.Buffer
	return pdf.Output(&buf) == nil && buf.Len() > 0
}

func probeImage() bool {
	data, err := compose.EncodePNG(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	if err != nil {
		return false
	}
	_, err = compose.Decode(data)
	return err == nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
