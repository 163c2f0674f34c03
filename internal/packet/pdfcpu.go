package packet

import (
	"bytes"
	"context"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/kpauljoseph/listingpacket/pkg/models"
)

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PDFCPU validates and merges documents with pdfcpu.
type PDFCPU struct{}

func NewPDFCPU() *PDFCPU {
	return &PDFCPU{}
}

func (PDFCPU) Validate(doc models.Document) error {
	return api.Validate(bytes.NewReader(doc.Data), relaxedConfig())
}

func (PDFCPU) Merge(ctx context.Context, docs []models.Document, w io.Writer) error {
	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, doc := range docs {
		readers = append(readers, bytes.NewReader(doc.Data))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return api.MergeRaw(readers, w, false, relaxedConfig())
}

// Optimizer rewrites a document with object and xref streams, dropping
// duplicate and unused objects.
type Optimizer struct{}

func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

func (o *Optimizer) Optimize(data []byte) ([]byte, error) {
	conf := relaxedConfig()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), relaxedConfig())
}

// PageDims returns the media box size of every page in points.
func PageDims(data []byte) ([]types.Dim, error) {
	return api.PageDims(bytes.NewReader(data), relaxedConfig())
}
