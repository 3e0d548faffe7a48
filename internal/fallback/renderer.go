// Package fallback renders schedule PDF pages to images when their text
// layout cannot be reconstructed, and maps every date printed on a page to
// that page's image.
package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/pdfdoc"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

// Renderer rasterizes document pages into an ImageStore.
type Renderer struct {
	store ImageStore
	dpi   float64
	log   *logger.Logger
}

// NewRenderer creates a renderer using the standard fallback resolution.
func NewRenderer(store ImageStore, log *logger.Logger) *Renderer {
	return &Renderer{store: store, dpi: pdfdoc.RenderDPI, log: log.WithModule("fallback")}
}

// KeyFor derives a stable image key prefix from a document URL.
func KeyFor(docURL string) string {
	sum := sha256.Sum256([]byte(docURL))
	return hex.EncodeToString(sum[:8])
}

// Render maps each date found on a page to the stored image of that page.
// Dates are discovered independently of lesson parsing. Pages without a
// readable date are skipped.
func (r *Renderer) Render(ctx context.Context, doc pdfdoc.Document, key string) (map[string]string, error) {
	images := make(map[string]string)
	for page := range doc.NumPage() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(page)
		if err != nil {
			return nil, err
		}
		dates, err := timetable.FindDates(timetable.Tokenize(text))
		if err != nil {
			r.log.WithError(err).WithField("page", page+1).Warn("Skipping page without dates")
			continue
		}
		if len(dates) == 0 {
			continue
		}

		png, err := doc.RenderPNG(page, r.dpi)
		if err != nil {
			return nil, err
		}
		ref, err := r.store.Put(ctx, fmt.Sprintf("%s-p%d.png", key, page+1), png)
		if err != nil {
			return nil, fmt.Errorf("store page %d: %w", page+1, err)
		}
		for _, d := range dates {
			images[d] = ref
		}
	}
	return images, nil
}
