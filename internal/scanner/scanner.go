package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		logger: logger,
	}
}

// FindSources walks dir in lexical order and reads every PDF, JPG and ZIP
// file it finds. Hidden files and directories are ignored.
func (s *DirectoryScanner) FindSources(ctx context.Context, dir string) ([]models.SourceFile, error) {
	var paths []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		hidden := path != dir && strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			s.logger.Debug("Scanning directory: %s", path)
			return nil
		}

		if hidden || models.KindOf(path) == models.KindUnsupported {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF, JPG or ZIP files found in %s or its subdirectories", dir)
	}

	return s.ReadFiles(ctx, paths)
}

// ReadFiles loads the given paths in order.
func (s *DirectoryScanner) ReadFiles(ctx context.Context, paths []string) ([]models.SourceFile, error) {
	files := make([]models.SourceFile, 0, len(paths))
	for i, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		s.logger.Debug("Source (%d): %s (%.1f KB)", i+1, path, float64(len(data))/1024)
		files = append(files, models.SourceFile{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}
