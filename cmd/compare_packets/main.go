package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/kpauljoseph/listingpacket/internal/compose"
	"github.com/kpauljoseph/listingpacket/pkg/utils"
)

func main() {
	saveDir := flag.String("save", "", "directory to save rendered pages for manual inspection")
	dpi := flag.Float64("dpi", 72, "render resolution")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Println("Usage: compare_packets [-save dir] [-dpi 72] file1.pdf file2.pdf")
		os.Exit(1)
	}

	doc1, err := fitz.New(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error opening first PDF: %v\n", err)
		os.Exit(1)
	}
	defer doc1.Close()

	doc2, err := fitz.New(flag.Arg(1))
	if err != nil {
		fmt.Printf("Error opening second PDF: %v\n", err)
		os.Exit(1)
	}
	defer doc2.Close()

	fmt.Printf("\nBasic Properties:\n")
	fmt.Printf("PDF 1 pages: %d\n", doc1.NumPage())
	fmt.Printf("PDF 2 pages: %d\n", doc2.NumPage())

	if *saveDir != "" {
		if err := os.MkdirAll(*saveDir, 0755); err != nil {
			fmt.Printf("Error creating save dir: %v\n", err)
			os.Exit(1)
		}
	}

	maxPages := min(doc1.NumPage(), doc2.NumPage())
	identical := doc1.NumPage() == doc2.NumPage()

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		fmt.Printf("\nAnalyzing Page %d:\n", pageNum+1)

		bounds1, _ := doc1.Bound(pageNum)
		bounds2, _ := doc2.Bound(pageNum)
		fmt.Printf("PDF 1 dimensions: %.2f x %.2f\n", float64(bounds1.Dx()), float64(bounds1.Dy()))
		fmt.Printf("PDF 2 dimensions: %.2f x %.2f\n", float64(bounds2.Dx()), float64(bounds2.Dy()))

		img1, err := doc1.ImageDPI(pageNum, *dpi)
		if err != nil {
			fmt.Printf("Error rendering page from PDF 1: %v\n", err)
			identical = false
			continue
		}
		img2, err := doc2.ImageDPI(pageNum, *dpi)
		if err != nil {
			fmt.Printf("Error rendering page from PDF 2: %v\n", err)
			identical = false
			continue
		}

		hash1 := utils.GenerateImageHash(img1)
		hash2 := utils.GenerateImageHash(img2)
		fmt.Printf("PDF 1 hash: %s\n", hash1)
		fmt.Printf("PDF 2 hash: %s\n", hash2)
		fmt.Printf("Hashes match: %v\n", hash1 == hash2)
		identical = identical && hash1 == hash2

		if *saveDir != "" {
			savePage(*saveDir, pageNum, 1, img1)
			savePage(*saveDir, pageNum, 2, img2)
		}
	}

	fmt.Printf("\nDocuments render identically: %v\n", identical)
	if !identical {
		os.Exit(2)
	}
}

func savePage(dir string, pageNum, doc int, img image.Image) {
	data, err := compose.EncodePNG(img)
	if err != nil {
		fmt.Printf("Error encoding page %d of PDF %d: %v\n", pageNum+1, doc, err)
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("page%d_pdf%d.png", pageNum+1, doc))
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Printf("Error saving %s: %v\n", path, err)
		return
	}
	fmt.Printf("Saved PDF %d page to: %s\n", doc, path)
}
