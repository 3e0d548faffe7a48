// Package schedule answers "what lessons does this group or instructor have
// on this date" by chaining name resolution, period lookup, document
// extraction and the page image fallback.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/fallback"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/pdfdoc"
	"github.com/garyellow/vyatsu-schedule/internal/period"
	"github.com/garyellow/vyatsu-schedule/internal/resolver"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

// Source provides the current directory snapshot. *directory.Directory
// implements it.
type Source interface {
	Snapshot() (*directory.Snapshot, error)
}

// Fetcher downloads documents. *scraper.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Response, error)
}

// Imager renders unreadable PDFs page by page. *fallback.Renderer
// implements it.
type Imager interface {
	Render(ctx context.Context, doc pdfdoc.Document, key string) (map[string]string, error)
}

// Opener parses raw PDF bytes.
type Opener func(data []byte) (pdfdoc.Document, error)

// Recorder receives query observations. *metrics.Metrics implements it.
type Recorder interface {
	RecordQuery(op, outcome string, duration time.Duration)
	RecordPeriodOverlap(kind string)
	RecordFallback(status string)
}

// Options configures a Service. Fetcher is required. Without an Imager,
// structural PDF failures are returned as errors.
type Options struct {
	Fetcher  Fetcher
	Imager   Imager
	Open     Opener
	Recorder Recorder
	Logger   *logger.Logger
}

// Service runs schedule queries. It is safe for concurrent use.
type Service struct {
	dir      Source
	resolver *resolver.Resolver
	fetcher  Fetcher
	imager   Imager
	open     Opener
	recorder Recorder
	log      *logger.Logger
}

// NewService creates a query service.
func NewService(dir Source, res *resolver.Resolver, opts Options) *Service {
	if opts.Open == nil {
		opts.Open = pdfdoc.Open
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("info")
	}
	return &Service{
		dir:      dir,
		resolver: res,
		fetcher:  opts.Fetcher,
		imager:   opts.Imager,
		open:     opts.Open,
		recorder: opts.Recorder,
		log:      opts.Logger.WithModule("schedule"),
	}
}

// document is a fetched schedule in one of its forms: a department table
// read block by block, a parsed PDF grid, or PDF page images.
type document struct {
	page   *goquery.Document
	grid   timetable.Grid
	images map[string]string // date key -> image reference; set only after fallback
}

// imageFor returns the page image of date. A date the rendered pages do not
// show is only a free day when it lies between the first and the last date
// they do show; otherwise the document could not be read for that date.
func (d *document) imageFor(date time.Time) (string, bool, error) {
	key := timetable.Key(date)
	if ref, ok := d.images[key]; ok {
		return ref, true, nil
	}
	keys := lo.Keys(d.images)
	if len(keys) == 0 {
		return "", false, fmt.Errorf("%w: no page of the document shows a date", domerrors.ErrDateNotFound)
	}
	timetable.SortDates(keys)
	first, _ := timetable.ParseKey(keys[0])
	last, _ := timetable.ParseKey(keys[len(keys)-1])
	day, _ := timetable.ParseKey(key)
	if day.Before(first) || day.After(last) {
		return "", false, fmt.Errorf("%w: %s is outside the pages shown (%s - %s)",
			domerrors.ErrDateNotFound, key, keys[0], keys[len(keys)-1])
	}
	return "", false, nil
}

// Get returns the lessons of the entity named by query on date.
// Unknown names yield ErrInvalidName and ambiguous instructor names
// *errors.AmbiguousMatchError. A missing document or an empty day is a
// result kind, not an error.
func (s *Service) Get(ctx context.Context, query string, date time.Time) (res *Result, err error) {
	start := time.Now()
	defer func() { s.observe("day", res, err, start) }()

	snap, entity, err := s.lookup(query)
	if err != nil {
		return nil, err
	}
	return s.day(ctx, snap, entity, date)
}

// SelectInstructor runs Get for an instructor picked from the candidates of
// an ambiguous match.
func (s *Service) SelectInstructor(ctx context.Context, c domerrors.Candidate, date time.Time) (res *Result, err error) {
	start := time.Now()
	defer func() { s.observe("select", res, err, start) }()

	snap, err := s.dir.Snapshot()
	if err != nil {
		return nil, err
	}
	in, err := s.resolver.Instructor(snap, c)
	if err != nil {
		return nil, err
	}
	return s.day(ctx, snap, in, date)
}

// Week returns every date of the document covering date.
func (s *Service) Week(ctx context.Context, query string, date time.Time) (*WeekResult, error) {
	start := time.Now()
	snap, entity, err := s.lookup(query)
	if err != nil {
		s.observeOutcome("week", outcomeOf(err), start)
		return nil, err
	}

	out := &WeekResult{Entity: refOf(entity)}
	p, diags, ok := s.period(snap, entity, date)
	out.Diagnostics = diags
	if !ok {
		out.Kind = KindNoDocument
		s.observeOutcome("week", string(out.Kind), start)
		return out, nil
	}
	out.Link, out.Start, out.End = p.URL, p.Start.Format(DisplayLayout), p.End.Format(DisplayLayout)

	doc, err := s.load(ctx, p.URL)
	if err != nil {
		s.observeOutcome("week", outcomeOf(err), start)
		return nil, err
	}

	switch {
	case doc.images != nil:
		if len(doc.images) == 0 {
			err := extractError(p.URL, fmt.Errorf("%w: no page of the document shows a date", domerrors.ErrDateNotFound))
			s.observeOutcome("week", outcomeOf(err), start)
			return nil, err
		}
		out.Kind = KindImage
		out.Diagnostics = append(out.Diagnostics, DiagImageFallback)
		keys := lo.Keys(doc.images)
		timetable.SortDates(keys)
		out.Days = lo.Map(keys, func(key string, _ int) Day {
			return Day{Date: displayKey(key), Kind: KindImage, ImageRef: doc.images[key]}
		})
	default:
		grid := doc.grid
		if doc.page != nil {
			var malformed []string
			grid, malformed, err = timetable.ParseTableGrid(doc.page, entity.DisplayName())
			if err != nil {
				err = extractError(p.URL, err)
				s.observeOutcome("week", outcomeOf(err), start)
				return nil, err
			}
			if len(malformed) > 0 {
				s.log.WithField("url", p.URL).WithField("dates", malformed).Warn("Skipping malformed day blocks")
				out.Diagnostics = append(out.Diagnostics, DiagMalformedDays)
			}
		}
		out.Kind = KindEntries
		out.Days = lo.Map(grid.Dates(), func(key string, _ int) Day {
			day := Day{Date: displayKey(key), Kind: KindNoLessons}
			if entries := grid[key].Entries(); len(entries) > 0 {
				day.Kind, day.Entries = KindEntries, entries
			}
			return day
		})
	}
	s.observeOutcome("week", string(out.Kind), start)
	return out, nil
}

// Link returns the document covering date without downloading it.
func (s *Service) Link(_ context.Context, query string, date time.Time) (*LinkResult, error) {
	snap, entity, err := s.lookup(query)
	if err != nil {
		return nil, err
	}
	out := &LinkResult{Entity: refOf(entity)}
	p, diags, ok := s.period(snap, entity, date)
	out.Diagnostics = diags
	if ok {
		out.Found = true
		out.Link, out.Start, out.End = p.URL, p.Start.Format(DisplayLayout), p.End.Format(DisplayLayout)
	}
	return out, nil
}

func (s *Service) lookup(query string) (*directory.Snapshot, directory.Entity, error) {
	snap, err := s.dir.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	entity, err := s.resolver.Resolve(snap, query)
	if err != nil {
		return nil, nil, err
	}
	return snap, entity, nil
}

func (s *Service) day(ctx context.Context, snap *directory.Snapshot, entity directory.Entity, date time.Time) (*Result, error) {
	out := &Result{Entity: refOf(entity), Date: date.Format(DisplayLayout)}
	p, diags, ok := s.period(snap, entity, date)
	out.Diagnostics = diags
	if !ok {
		out.Kind = KindNoDocument
		return out, nil
	}
	out.Link = p.URL

	doc, err := s.load(ctx, p.URL)
	if err != nil {
		return nil, err
	}

	switch {
	case doc.images != nil:
		ref, ok, err := doc.imageFor(date)
		if err != nil {
			return nil, extractError(p.URL, err)
		}
		out.Diagnostics = append(out.Diagnostics, DiagImageFallback)
		if ok {
			out.Kind, out.ImageRef = KindImage, ref
		} else {
			out.Kind = KindNoLessons
		}
		return out, nil
	case doc.page != nil:
		entries, err := timetable.ParseTable(doc.page, entity.DisplayName(), date)
		if err != nil {
			return nil, extractError(p.URL, err)
		}
		if len(entries) == 0 {
			out.Kind = KindNoLessons
		} else {
			out.Kind, out.Entries = KindEntries, entries
		}
		return out, nil
	}

	day, ok := doc.grid.Day(date)
	if !ok || day.IsEmpty() {
		out.Kind = KindNoLessons
		return out, nil
	}
	out.Kind, out.Entries = KindEntries, day.Entries()
	return out, nil
}

// period picks the document for date. ok is false when no period covers it.
func (s *Service) period(snap *directory.Snapshot, entity directory.Entity, date time.Time) (directory.Period, []string, bool) {
	res, err := period.Resolve(snap.Periods(entity), date)
	if err != nil {
		return directory.Period{}, nil, false
	}
	if !res.Ambiguous() {
		return res.Period, nil, true
	}
	s.log.WithFields(map[string]any{
		"scope":   entity.ScopeKey(),
		"date":    date.Format(DisplayLayout),
		"matches": res.Matches,
		"chosen":  res.Period.URL,
	}).Warn("Multiple periods cover date")
	if s.recorder != nil {
		s.recorder.RecordPeriodOverlap(string(entity.Kind()))
	}
	return res.Period, []string{DiagMultiplePeriods}, true
}

// load fetches the document at url. Tables are kept as parsed HTML so each
// operation reads only the blocks it needs; PDFs are parsed here.
func (s *Service) load(ctx context.Context, url string) (*document, error) {
	resp, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if !resp.IsPDF() {
		page, err := scraper.ParseHTML(resp)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", url, err)
		}
		return &document{page: page}, nil
	}

	pdf, err := s.open(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	defer func() { _ = pdf.Close() }()

	grid, parseErr := parsePDF(pdf)
	if parseErr == nil {
		return &document{grid: grid}, nil
	}
	if !domerrors.IsStructural(parseErr) || s.imager == nil {
		return nil, extractError(url, parseErr)
	}

	s.log.WithError(parseErr).WithField("url", url).Warn("Falling back to page images")
	images, err := s.imager.Render(ctx, pdf, fallback.KeyFor(url))
	if err != nil {
		s.recordFallback("error")
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	s.recordFallback("success")
	return &document{images: images}, nil
}

var extractFailure = domerrors.NewWrapper("schedule", "extract")

// extractError keeps the cause for logs and status mapping and points the
// user at the document that could not be read.
func extractError(url string, err error) error {
	return extractFailure.Wrapf(fmt.Errorf("extract %s: %w", url, err),
		"Не удалось разобрать документ расписания, он доступен по ссылке: %s", url)
}

func parsePDF(pdf pdfdoc.Document) (timetable.Grid, error) {
	pages, err := pdfdoc.PageTokens(pdf)
	if err != nil {
		return nil, err
	}
	return timetable.ParsePages(pages)
}

func (s *Service) recordFallback(status string) {
	if s.recorder != nil {
		s.recorder.RecordFallback(status)
	}
}

func (s *Service) observe(op string, res *Result, err error, start time.Time) {
	outcome := outcomeOf(err)
	if err == nil && res != nil {
		outcome = string(res.Kind)
	}
	s.observeOutcome(op, outcome, start)
}

func (s *Service) observeOutcome(op, outcome string, start time.Time) {
	if s.recorder != nil {
		s.recorder.RecordQuery(op, outcome, time.Since(start))
	}
}

// outcomeOf maps an error to a metric label.
func outcomeOf(err error) string {
	var ambiguous *domerrors.AmbiguousMatchError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ambiguous):
		return "ambiguous"
	case errors.Is(err, domerrors.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, domerrors.ErrDirectoryUnavailable):
		return "directory_unavailable"
	case errors.Is(err, domerrors.ErrNetworkFailure):
		return "network_error"
	case errors.Is(err, domerrors.ErrEntityColumnNotFound):
		return "column_not_found"
	case domerrors.IsStructural(err):
		return "structural"
	default:
		return "error"
	}
}

// displayKey converts a grid key (dd.mm.yy) to DisplayLayout.
func displayKey(key string) string {
	t, err := timetable.ParseKey(key)
	if err != nil {
		return key
	}
	return t.Format(DisplayLayout)
}
