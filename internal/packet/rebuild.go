package packet

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/go-pdf/fpdf"

	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

const RebuildDPI = 150.0

// RasterRebuilder renders every page with MuPDF and redraws it as an image
// on a page of the same size. Text stops being selectable, but documents
// with structure pdfcpu cannot merge still make it into the packet.
type RasterRebuilder struct {
	dpi    float64
	encode func(image.Image) ([]byte, error)
	logger *logger.Logger
}

func NewRasterRebuilder(dpi float64, log *logger.Logger) *RasterRebuilder {
	return &RasterRebuilder{dpi: dpi, encode: encodePage, logger: log}
}

func encodePage(img image.Image) ([]byte, error) {
	return compose.EncodeJPEG(img, 90)
}

func (r *RasterRebuilder) Rebuild(ctx context.Context, docs []models.Document) ([]byte, []Skip, error) {
	out := fpdf.New("P", "pt", "Letter", "")
	out.SetMargins(0, 0, 0)
	out.SetAutoPageBreak(false, 0)

	var skipped []Skip
	pages := 0
	for i, doc := range docs {
		n, err := r.appendDocument(ctx, out, i, doc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			out.ClearError()
			r.logger.Warn("Could not rebuild %s: %v", doc.Name, err)
			skipped = append(skipped, Skip{Name: doc.Name, Reason: err.Error()})
			continue
		}
		pages += n
	}

	if pages == 0 {
		return nil, skipped, ErrNoDocuments
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return nil, skipped, fmt.Errorf("failed to write rebuilt packet: %w", err)
	}
	return buf.Bytes(), skipped, nil
}

// appendDocument rasterizes and registers every page image before adding any
// page, so a failing document leaves no partial pages behind.
func (r *RasterRebuilder) appendDocument(ctx context.Context, out *fpdf.Fpdf, index int, doc models.Document) (int, error) {
	src, err := fitz.NewFromMemory(doc.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer src.Close()

	type page struct {
		w, h float64
		jpg  []byte
	}
	var pages []page

	//Page numbers are zero indexed in the fitz package.
	for pageNum := 0; pageNum < src.NumPage(); pageNum++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		bounds, err := src.Bound(pageNum)
		if err != nil {
			return 0, fmt.Errorf("failed to get bounds for page %d: %w", pageNum, err)
		}
		img, err := src.ImageDPI(pageNum, r.dpi)
		if err != nil {
			return 0, fmt.Errorf("failed to render page %d: %w", pageNum, err)
		}
		jpg, err := r.encode(img)
		if err != nil {
			return 0, fmt.Errorf("failed to encode page %d: %w", pageNum, err)
		}
		pages = append(pages, page{w: float64(bounds.Dx()), h: float64(bounds.Dy()), jpg: jpg})
		r.logger.Trace("Rasterized %s page %d: %.0f x %.0f pt", doc.Name, pageNum, float64(bounds.Dx()), float64(bounds.Dy()))
	}

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	names := make([]string, len(pages))
	for pageNum, p := range pages {
		names[pageNum] = fmt.Sprintf("doc%d_page%d", index, pageNum)
		out.RegisterImageOptionsReader(names[pageNum], opts, bytes.NewReader(p.jpg))
		if err := out.Error(); err != nil {
			return 0, fmt.Errorf("failed to add page %d: %w", pageNum, err)
		}
	}

	for pageNum, p := range pages {
		out.AddPageFormat("P", fpdf.SizeType{Wd: p.w, Ht: p.h})
		out.ImageOptions(names[pageNum], 0, 0, p.w, p.h, false, opts, 0, "")
	}
	return len(pages), out.Error()
}
