package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kpauljoseph/listingpacket/internal/packet"
	"github.com/kpauljoseph/listingpacket/pkg/models"
)

const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

func main() {
	pdfPath := flag.String("file", "", "Path to PDF file")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Println("Please provide a PDF file path using -file flag")
		os.Exit(1)
	}

	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		fmt.Printf("Error reading PDF: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing PDF: %s (%.1f KB)\n", *pdfPath, float64(len(data))/1024)

	if err := packet.NewPDFCPU().Validate(models.Document{Name: *pdfPath, Data: data}); err != nil {
		fmt.Printf("Validation (relaxed): FAILED: %v\n", err)
	} else {
		fmt.Println("Validation (relaxed): ok")
	}

	dims, err := packet.PageDims(data)
	if err != nil {
		fmt.Printf("Error getting page dimensions: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pages: %d\n", len(dims))

	for i, dim := range dims {
		fmt.Printf("\nPage %d:\n", i+1)
		fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points (%.2f x %.2f in)\n",
			dim.Width, dim.Height, dim.Width/72, dim.Height/72)
		if dim.Width == letterWidth && dim.Height == letterHeight {
			fmt.Println("US Letter")
		}
	}
}
