package preview

import (
    "fmt"
    "image"

    "github.com/gen2brain/go-fitz"
)

// Document is one open paginated source.
type Document interface {
    NumPages() int
    // RenderPage rasterizes the page at index (0-based).
    RenderPage(index int) (image.Image, error)
    Close() error
}

// Renderer opens paginated documents for rasterization.
type Renderer interface {
    Open(path string) (Document, error)
}

// FitzRenderer rasterizes PDF pages through MuPDF at a fixed DPI.
type FitzRenderer struct {
    dpi float64
}

func NewFitzRenderer(dpi int) *FitzRenderer {
    return &FitzRenderer{dpi: float64(dpi)}
}

func (r *FitzRenderer) Open(path string) (Document, error) {
    doc, err := fitz.New(path)
    if err != nil {
        return nil, fmt.Errorf("failed to open document: %w", err)
    }
    return &fitzDocument{doc: doc, dpi: r.dpi}, nil
}

type fitzDocument struct {
    doc *fitz.Document
    dpi float64
}

func (d *fitzDocument) NumPages() int {
    return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(index int) (image.Image, error) {
    img, err := d.doc.ImageDPI(index, d.dpi)
    if err != nil {
        return nil, fmt.Errorf("failed to rasterize page %d: %w", index, err)
    }
    return img, nil
}

func (d *fitzDocument) Close() error {
    return d.doc.Close()
}
