// Package intake turns the user's selected files into the ordered list of PDF
// documents that make up a packet.
package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

var ErrNoUsableFiles = errors.New("no valid PDF files found to process")

// DefaultMaxMemberBytes bounds a single decompressed archive member.
const DefaultMaxMemberBytes int64 = 200 << 20

// Batch is the outcome of classifying one selection.
type Batch struct {
	Documents []models.Document
	Report    []models.IntakeEntry
}

// Skipped returns the report entries that produced no document.
func (b *Batch) Skipped() []models.IntakeEntry {
	var out []models.IntakeEntry
	for _, e := range b.Report {
		if e.Status == models.StatusSkipped {
			out = append(out, e)
		}
	}
	return out
}

type Classifier struct {
	caps      capability.Set
	maxMember int64
	logger    *logger.Logger
}

type Option func(*Classifier)

// WithMaxMemberBytes caps the decompressed size of each archive member.
// Non-positive values keep the default.
func WithMaxMemberBytes(n int64) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxMember = n
		}
	}
}

func NewClassifier(caps capability.Set, log *logger.Logger, options ...Option) *Classifier {
	c := &Classifier{caps: caps, maxMember: DefaultMaxMemberBytes, logger: log}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Classify keeps selection order: each file contributes zero or more
// documents in place.
func (c *Classifier) Classify(ctx context.Context, files []models.SourceFile) (*Batch, error) {
	batch := &Batch{}

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		kind := models.KindOf(f.Name)
		entry := models.IntakeEntry{Name: f.Name, Kind: kind}

		switch kind {
		case models.KindPDF:
			batch.Documents = append(batch.Documents, models.Document{Name: f.Name, Data: f.Data})
			entry.Status = models.StatusAccepted

		case models.KindZIP:
			docs, err := ExtractPDFs(f.Name, f.Data, c.maxMember)
			switch {
			case err != nil:
				entry.Status, entry.Detail = models.StatusSkipped, err.Error()
			case len(docs) == 0:
				entry.Status, entry.Detail = models.StatusSkipped, "archive contains no PDF files"
			default:
				batch.Documents = append(batch.Documents, docs...)
				entry.Status = models.StatusExtracted
				entry.Detail = fmt.Sprintf("extracted %d PDFs", len(docs))
			}

		case models.KindJPEG:
			if !c.caps.ImageConversion() {
				entry.Status, entry.Detail = models.StatusSkipped, "image conversion unavailable"
				break
			}
			data, err := ImageToPDF(f.Data)
			if err != nil {
				entry.Status, entry.Detail = models.StatusSkipped, err.Error()
				break
			}
			batch.Documents = append(batch.Documents, models.Document{Name: PDFName(f.Name), Data: data, Origin: f.Name})
			entry.Status = models.StatusConverted
			entry.Detail = "converted to PDF"

		default:
			entry.Status, entry.Detail = models.StatusSkipped, "unsupported file type"
		}

		if entry.Status == models.StatusSkipped {
			c.logger.Warn("Skipping %s: %s", f.Name, entry.Detail)
		} else {
			c.logger.Debug("%s %s", f.Name, entry.Status)
		}
		batch.Report = append(batch.Report, entry)
	}

	if len(batch.Documents) == 0 {
		return batch, ErrNoUsableFiles
	}
	return batch, nil
}

// ExtractPDFs reads every PDF member of an in-memory archive in archive
// order. Directories, macOS resource forks and hidden files are ignored.
// A member larger than limit bytes once decompressed fails the archive.
func ExtractPDFs(archive string, data []byte, limit int64) ([]models.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	var docs []models.Document
	for _, zf := range zr.File {
		if !wantMember(zf) {
			continue
		}
		body, err := readMember(zf, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", zf.Name, err)
		}
		docs = append(docs, models.Document{Name: path.Base(zf.Name), Data: body, Origin: archive})
	}
	return docs, nil
}

func wantMember(zf *zip.File) bool {
	name := zf.Name
	if zf.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasPrefix(name, "__MACOSX/") || strings.Contains(name, "/__MACOSX/") {
		return false
	}
	if strings.HasPrefix(path.Base(name), ".") {
		return false
	}
	return models.KindOf(name) == models.KindPDF
}

func readMember(zf *zip.File, limit int64) ([]byte, error) {
	if zf.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("member is %d bytes, over the %d byte limit", zf.UncompressedSize64, limit)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// The header size is not trusted for the read itself.
	body, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("member exceeds the %d byte limit", limit)
	}
	return body, nil
}

// ImageToPDF wraps a raster image in a one-page PDF whose page size in
// points equals the image size in pixels. Transparency is flattened onto
// white.
func ImageToPDF(data []byte) ([]byte, error) {
	img, err := compose.Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("image has no pixels")
	}
	jpg, err := compose.EncodeJPEG(compose.Flatten(img), 95)
	if err != nil {
		return nil, err
	}

	w, h := float64(b.Dx()), float64(b.Dy())
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(jpg))
	pdf.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to convert image to PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFName swaps a .jpg/.jpeg extension for .pdf.
func PDFName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + ".pdf"
}
