package pdfdoc

import (
	"errors"
	"slices"
	"testing"
)

type stubDoc struct {
	pages []string
	fail  int
}

func (s *stubDoc) NumPage() int { return len(s.pages) }

func (s *stubDoc) Text(page int) (string, error) {
	if page == s.fail {
		return "", errors.New("broken page")
	}
	return s.pages[page], nil
}

func (s *stubDoc) RenderPNG(int, float64) ([]byte, error) { return nil, nil }
func (s *stubDoc) Close() error                           { return nil }

func TestPageTokens(t *testing.T) {
	t.Parallel()
	doc := &stubDoc{pages: []string{"понедельник\n06.09.21", "вторник 07.09.21\r\n"}, fail: -1}
	pages, err := PageTokens(doc)
	if err != nil {
		t.Fatalf("PageTokens failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if !slices.Equal(pages[0], []string{"понедельник", "06.09.21"}) {
		t.Errorf("page 1 = %q", pages[0])
	}
	if pages[1][0] != "вторник 07.09.21" {
		t.Errorf("page 2 first token = %q", pages[1][0])
	}
}

func TestPageTokens_PropagatesErrors(t *testing.T) {
	t.Parallel()
	if _, err := PageTokens(&stubDoc{pages: []string{"a", "b"}, fail: 1}); err == nil {
		t.Error("Expected error from broken page")
	}
}

func TestOpen_RejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := Open([]byte("definitely not a pdf")); err == nil {
		t.Error("Expected error for non-PDF input")
	}
}

func TestRenderDPI(t *testing.T) {
	t.Parallel()
	if RenderDPI != 144 {
		t.Errorf("RenderDPI = %v, want 144", RenderDPI)
	}
}
