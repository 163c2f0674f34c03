// Package workflow is the export operation shared by every front end.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/listingpacket/internal/address"
	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/cover"
	"github.com/kpauljoseph/listingpacket/internal/intake"
	"github.com/kpauljoseph/listingpacket/internal/packet"
	"github.com/kpauljoseph/listingpacket/internal/social"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

const coverName = "Cover Page.pdf"

var (
	ErrAddressRequired = errors.New("please enter both street address and city/state for cover page and social posts")
	ErrPhotoRequired   = errors.New("a property photo is required for social posts")
	ErrNoPosts         = errors.New("no social posts could be created")
)

type Request struct {
	Files        []models.SourceFile
	Photo        []byte
	Street       string
	CityState    string
	IncludeCover bool
	CreatePosts  bool
	Compress     bool
}

type SocialRequest struct {
	Photo     []byte
	Street    string
	CityState string
}

type Result struct {
	PacketName    string
	Packet        *packet.Result
	Intake        []models.IntakeEntry
	CoverIncluded bool
	FilesCombined int
	Posts         []social.Post
	PostErrors    []error
	Street        string
	CityState     string
	Summary       string
}

// Exporter is everything a front end needs.
type Exporter interface {
	Export(ctx context.Context, req Request) (*Result, error)
	SocialOnly(ctx context.Context, req SocialRequest) (*Result, error)
	Save(dir string, res *Result) ([]string, error)
}

var _ Exporter = (*Service)(nil)

type Service struct {
	caps       capability.Set
	classifier *intake.Classifier
	cover      *cover.Renderer
	assembler  *packet.Assembler
	social     *social.Renderer
	logger     *logger.Logger
}

func NewService(cfg *config.Config, caps capability.Set, log *logger.Logger) *Service {
	return &Service{
		caps:       caps,
		classifier: intake.NewClassifier(caps, log, intake.WithMaxMemberBytes(cfg.Intake.MaxMemberMB<<20)),
		cover:      cover.NewRenderer(cfg, caps, log),
		assembler:  packet.NewAssembler(log),
		social:     social.NewRenderer(cfg, caps, log),
		logger:     log,
	}
}

// Capabilities reports what the service was built with, for front ends that
// disable unavailable options.
func (s *Service) Capabilities() capability.Set {
	return s.caps
}

func Validate(req Request) error {
	if (req.IncludeCover || req.CreatePosts) && len(req.Photo) > 0 {
		if strings.TrimSpace(req.Street) == "" || strings.TrimSpace(req.CityState) == "" {
			return ErrAddressRequired
		}
	}
	return nil
}

func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	batch, err := s.classifier.Classify(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	res := &Result{
		PacketName: address.PacketFilename(req.Street),
		Intake:     batch.Report,
		Street:     req.Street,
		CityState:  req.CityState,
	}

	docs := batch.Documents
	coverAdded := false
	if req.IncludeCover && len(req.Photo) > 0 {
		if !s.caps.Cover() {
			s.logger.Warn("Cover page requested but unavailable")
		} else if page, err := s.cover.Render(req.Photo, req.Street, req.CityState); err != nil {
			s.logger.Warn("Could not create cover page: %v", err)
		} else {
			docs = append([]models.Document{{Name: coverName, Data: page.PDF}}, docs...)
			coverAdded = true
		}
	}

	assembled, err := s.assembler.Assemble(ctx, docs, packet.Options{Compress: req.Compress})
	if err != nil {
		return nil, fmt.Errorf("failed to create packet: %w", err)
	}
	res.Packet = assembled
	res.CoverIncluded = coverAdded && !skipped(assembled.Skipped, coverName)
	res.FilesCombined = assembled.Combined
	if res.CoverIncluded {
		res.FilesCombined--
	}
	if res.FilesCombined == 0 {
		return nil, fmt.Errorf("failed to create packet: %w", packet.ErrNoDocuments)
	}

	if req.CreatePosts && len(req.Photo) > 0 && req.Street != "" && req.CityState != "" {
		res.Posts, res.PostErrors = s.social.Render(req.Photo, req.Street, req.CityState)
	}

	res.Summary = PacketSummary(res)
	s.logger.Info("Packet %q ready: %d files, cover=%t, posts=%d", res.PacketName, res.FilesCombined, res.CoverIncluded, len(res.Posts))
	return res, nil
}

func (s *Service) SocialOnly(ctx context.Context, req SocialRequest) (*Result, error) {
	if len(req.Photo) == 0 {
		return nil, ErrPhotoRequired
	}
	if strings.TrimSpace(req.Street) == "" || strings.TrimSpace(req.CityState) == "" {
		return nil, ErrAddressRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts, errs := s.social.Render(req.Photo, req.Street, req.CityState)
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoPosts, errors.Join(errs...))
	}

	res := &Result{
		Posts:      posts,
		PostErrors: errs,
		Street:     req.Street,
		CityState:  req.CityState,
	}
	res.Summary = SocialSummary(res)
	return res, nil
}

// Save writes the packet and posts into dir and returns the written paths.
func (s *Service) Save(dir string, res *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
		s.logger.Debug("Wrote %s (%d bytes)", path, len(data))
		return nil
	}

	if res.Packet != nil && len(res.Packet.PDF) > 0 {
		if err := write(res.PacketName, res.Packet.PDF); err != nil {
			return written, err
		}
	}
	for _, p := range res.Posts {
		if err := write(p.Filename, p.PNG); err != nil {
			return written, err
		}
	}
	return written, nil
}

func skipped(skips []packet.Skip, name string) bool {
	for _, s := range skips {
		if s.Name == name {
			return true
		}
	}
	return false
}
