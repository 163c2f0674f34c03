// Package packet concatenates intake documents into a single PDF packet.
package packet

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

var ErrNoDocuments = errors.New("no documents could be combined")

type Options struct {
	Compress bool
}

// Skip records a document left out of the packet.
type Skip struct {
	Name   string
	Reason string
}

type Result struct {
	PDF        []byte
	Combined   int
	Pages      int
	Skipped    []Skip
	Compressed bool
	Rebuilt    bool
}

type Assembler struct {
	validator Validator
	merger    Merger
	rebuilder Rebuilder
	optimizer *Optimizer
	logger    *logger.Logger
}

type Option func(*Assembler)

func WithMerger(m Merger) Option {
	return func(a *Assembler) { a.merger = m }
}

func WithRebuilder(r Rebuilder) Option {
	return func(a *Assembler) { a.rebuilder = r }
}

func WithValidator(v Validator) Option {
	return func(a *Assembler) { a.validator = v }
}

func NewAssembler(log *logger.Logger, options ...Option) *Assembler {
	a := &Assembler{
		validator: NewPDFCPU(),
		merger:    NewPDFCPU(),
		rebuilder: NewRasterRebuilder(RebuildDPI, log),
		optimizer: NewOptimizer(),
		logger:    log,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Assemble validates each document, merges the survivors in order and
// optionally recompresses the result. Documents that fail validation are
// reported in Result.Skipped rather than failing the batch.
func (a *Assembler) Assemble(ctx context.Context, docs []models.Document, opts Options) (*Result, error) {
	res := &Result{}

	var valid []models.Document
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := a.validator.Validate(doc); err != nil {
			a.logger.Warn("Could not process %s: %v", doc.Name, err)
			res.Skipped = append(res.Skipped, Skip{Name: doc.Name, Reason: err.Error()})
			continue
		}
		a.logger.Trace("Validated %s (%d bytes)", doc.Name, len(doc.Data))
		valid = append(valid, doc)
	}

	if len(valid) == 0 {
		return res, ErrNoDocuments
	}

	var buf bytes.Buffer
	err := a.merger.Merge(ctx, valid, &buf)
	switch {
	case err == nil:
		res.PDF = buf.Bytes()
		res.Combined = len(valid)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		a.logger.Warn("Merge failed, appending documents one at a time: %v", err)
		if aerr := a.appendEach(ctx, valid, res); aerr != nil {
			return nil, aerr
		}
		if res.Combined > 0 {
			break
		}

		a.logger.Warn("No document could be appended, rebuilding page by page")
		data, skipped, rerr := a.rebuilder.Rebuild(ctx, valid)
		if rerr != nil {
			return nil, fmt.Errorf("failed to assemble packet: merge: %v: rebuild: %w", err, rerr)
		}
		res.PDF = data
		res.Rebuilt = true
		res.Skipped = append(res.Skipped, skipped...)
		res.Combined = len(valid) - len(skipped)
	}

	if res.Combined == 0 {
		return res, ErrNoDocuments
	}

	if opts.Compress {
		optimized, err := a.optimizer.Optimize(res.PDF)
		if err != nil {
			a.logger.Warn("Compression failed, keeping uncompressed packet: %v", err)
		} else {
			a.logger.Debug("Compressed packet %d -> %d bytes", len(res.PDF), len(optimized))
			res.PDF = optimized
			res.Compressed = true
		}
	}

	pages, err := PageCount(res.PDF)
	if err != nil {
		a.logger.Debug("Could not count packet pages: %v", err)
	}
	res.Pages = pages

	a.logger.Info("Combined %d documents into %d pages", res.Combined, res.Pages)
	return res, nil
}

// appendEach grows the packet one document at a time. A document that will
// not append is rasterized on its own and appended again; only if that fails
// too is it skipped. When nothing appends, res is left untouched.
func (a *Assembler) appendEach(ctx context.Context, docs []models.Document, res *Result) error {
	var (
		packet  []byte
		skipped []Skip
		rebuilt bool
		count   int
	)
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		merged, err := a.appendTo(ctx, packet, doc)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Debug("Could not append %s, rebuilding it: %v", doc.Name, err)
			merged, err = a.appendRebuilt(ctx, packet, doc)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("Could not add %s: %v", doc.Name, err)
				skipped = append(skipped, Skip{Name: doc.Name, Reason: err.Error()})
				continue
			}
			rebuilt = true
		}
		packet = merged
		count++
	}

	if count == 0 {
		return nil
	}
	res.PDF = packet
	res.Combined = count
	res.Rebuilt = rebuilt
	res.Skipped = append(res.Skipped, skipped...)
	return nil
}

func (a *Assembler) appendRebuilt(ctx context.Context, packet []byte, doc models.Document) ([]byte, error) {
	data, _, err := a.rebuilder.Rebuild(ctx, []models.Document{doc})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild: %w", err)
	}
	return a.appendTo(ctx, packet, models.Document{Name: doc.Name, Data: data, Origin: doc.Origin})
}

func (a *Assembler) appendTo(ctx context.Context, packet []byte, doc models.Document) ([]byte, error) {
	docs := []models.Document{doc}
	if packet != nil {
		docs = []models.Document{{Name: "packet", Data: packet}, doc}
	}
	var buf bytes.Buffer
	if err := a.merger.Merge(ctx, docs, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
