package models

import (
	"path/filepath"
	"strings"
)

type FileKind int

const (
	KindUnsupported FileKind = iota
	KindPDF
	KindJPEG
	KindZIP
)

func (k FileKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindJPEG:
		return "jpg"
	case KindZIP:
		return "zip"
	default:
		return "unsupported"
	}
}

// KindOf classifies a file name by its extension, ignoring case.
func KindOf(name string) FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".jpg", ".jpeg":
		return KindJPEG
	case ".zip":
		return KindZIP
	default:
		return KindUnsupported
	}
}

// SourceFile is one selected or uploaded file.
type SourceFile struct {
	Name string
	Data []byte
}

// Document is a PDF byte stream queued for the packet.
type Document struct {
	Name   string
	Data   []byte
	Origin string
}

type IntakeStatus string

const (
	StatusAccepted  IntakeStatus = "accepted"
	StatusConverted IntakeStatus = "converted"
	StatusExtracted IntakeStatus = "extracted"
	StatusSkipped   IntakeStatus = "skipped"
)

// IntakeEntry is one line of the per-file report shown to the user.
type IntakeEntry struct {
	Name   string
	Kind   FileKind
	Status IntakeStatus
	Detail string
}

type PostType int

const (
	NewListing PostType = iota
	UnderContract
	Sold
)

func (p PostType) Label() string {
	switch p {
	case NewListing:
		return "New Listing"
	case UnderContract:
		return "Under Contract"
	case Sold:
		return "Sold"
	default:
		return "Unknown"
	}
}

func (p PostType) String() string {
	return p.Label()
}

// Slug is the URL-safe form used for download routes.
func (p PostType) Slug() string {
	return strings.ReplaceAll(strings.ToLower(p.Label()), " ", "-")
}
