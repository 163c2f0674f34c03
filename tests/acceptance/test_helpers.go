package acceptance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/kpauljoseph/listingpacket/pkg/models"
	"github.com/kpauljoseph/listingpacket/pkg/utils"
)

// HashDPI keeps page renders small; identical content still renders identically.
const HashDPI = 36

// PageHashes renders every page of a PDF and returns one hash per page.
func PageHashes(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	hashes := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, HashDPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		hashes = append(hashes, utils.GenerateImageHash(img))
	}
	return hashes, nil
}

// ConcatHashes hashes each document in order and joins the results.
func ConcatHashes(docs ...[]byte) ([]string, error) {
	var all []string
	for i, d := range docs {
		hashes, err := PageHashes(d)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		all = append(all, hashes...)
	}
	return all, nil
}

// WriteSources lays the files out in dir the way a user's listing folder would look.
func WriteSources(dir string, files ...models.SourceFile) error {
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
