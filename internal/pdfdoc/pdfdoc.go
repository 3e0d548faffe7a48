// Package pdfdoc wraps MuPDF (go-fitz) for the two things group schedules
// need: per-page text in reading order and page rasterization.
package pdfdoc

import (
	"fmt"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

// Zoom is the rasterization scale relative to the 72 DPI page space.
const Zoom = 2.0

// RenderDPI is the resolution used for fallback images.
const RenderDPI = 72 * Zoom

// Document is an opened PDF.
type Document interface {
	NumPage() int
	Text(page int) (string, error)
	RenderPNG(page int, dpi float64) ([]byte, error)
	Close() error
}

// fitzDocument serializes access; MuPDF contexts are not goroutine safe.
type fitzDocument struct {
	mu  sync.Mutex
	doc *fitz.Document
}

// Open parses a PDF held in memory.
func Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPage() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *fitzDocument) Text(page int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extract text of page %d: %w", page+1, err)
	}
	return text, nil
}

func (d *fitzDocument) RenderPNG(page int, dpi float64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, err := d.doc.ImagePNG(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}

// PageTokens extracts the line tokens of every page.
func PageTokens(doc Document) ([][]string, error) {
	n := doc.NumPage()
	pages := make([][]string, 0, n)
	for i := range n {
		text, err := doc.Text(i)
		if err != nil {
			return nil, err
		}
		pages = append(pages, timetable.Tokenize(text))
	}
	return pages, nil
}
