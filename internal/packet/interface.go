package packet

import (
	"context"
	"io"

	"github.com/kpauljoseph/listingpacket/pkg/models"
)

// Merger concatenates already validated documents into w.
type Merger interface {
	Merge(ctx context.Context, docs []models.Document, w io.Writer) error
}

// Rebuilder recreates a packet page by page when merging fails.
type Rebuilder interface {
	Rebuild(ctx context.Context, docs []models.Document) ([]byte, []Skip, error)
}

// Validator decides whether a document can take part in a merge.
type Validator interface {
	Validate(doc models.Document) error
}
