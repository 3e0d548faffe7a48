package vyatsu

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

// Loader builds directory snapshots from the two index pages and the
// current department tables.
type Loader struct {
	client     *scraper.Client
	base       *url.URL
	teacherURL string
	studentURL string
	workers    int
	now        func() time.Time
	log        *logger.Logger
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	BaseURL    string // https://www.vyatsu.ru
	TeacherURL string // instructor schedule index
	StudentURL string // student schedule index
	Workers    int    // concurrent department table fetches
	Now        func() time.Time
}

// NewLoader creates a loader.
func NewLoader(client *scraper.Client, cfg LoaderConfig, log *logger.Logger) (*Loader, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Loader{
		client:     client,
		base:       base,
		teacherURL: cfg.TeacherURL,
		studentURL: cfg.StudentURL,
		workers:    cfg.Workers,
		now:        cfg.Now,
		log:        log.WithModule("vyatsu"),
	}, nil
}

// Load implements directory.Loader. Any failure to read an index page fails
// the load. A department whose table is gone (4xx) is skipped with a warning;
// other fetch failures fail the load so the previous snapshot stays in use.
func (l *Loader) Load(ctx context.Context) (*directory.Snapshot, error) {
	var (
		deptPeriods  map[string][]directory.Period
		groups       []string
		groupPeriods map[string][]directory.Period
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := l.client.GetDocument(gctx, l.teacherURL)
		if err != nil {
			return fmt.Errorf("instructor index: %w", err)
		}
		deptPeriods = ParseDepartmentIndex(doc, l.base)
		return nil
	})
	g.Go(func() error {
		doc, err := l.client.GetDocument(gctx, l.studentURL)
		if err != nil {
			return fmt.Errorf("student index: %w", err)
		}
		groups, groupPeriods = ParseGroupIndex(doc, l.base)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	instructors, err := l.loadInstructors(ctx, deptPeriods)
	if err != nil {
		return nil, err
	}

	return directory.NewSnapshot(groups, instructors, groupPeriods, deptPeriods, l.now()), nil
}

func (l *Loader) loadInstructors(ctx context.Context, deptPeriods map[string][]directory.Period) ([]directory.Instructor, error) {
	now := l.now()
	var (
		mu          sync.Mutex
		instructors []directory.Instructor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for dept, periods := range deptPeriods {
		p, ok := pickPeriod(periods, now)
		if !ok {
			continue
		}
		g.Go(func() error {
			names, err := l.departmentHeader(gctx, p.URL)
			if isGone(err) {
				l.log.WithError(err).WithField("department", dept).Warn("Department table unavailable, skipping")
				return nil
			}
			if err != nil {
				return fmt.Errorf("department %q: %w", dept, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, name := range names {
				instructors = append(instructors, directory.Instructor{Name: name, Department: dept})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return instructors, nil
}

func (l *Loader) departmentHeader(ctx context.Context, link string) ([]string, error) {
	resp, err := l.client.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	if resp.IsPDF() {
		return nil, fmt.Errorf("%w: department document is not a table", domerrors.ErrStructuralParse)
	}
	doc, err := scraper.ParseHTML(resp)
	if err != nil {
		return nil, err
	}
	return timetable.ParseTableHeader(doc)
}

// isGone reports client errors and layouts that will not heal on retry.
func isGone(err error) bool {
	if err == nil {
		return false
	}
	var se *domerrors.ScraperError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != 429 {
		return true
	}
	return errors.Is(err, domerrors.ErrStructuralParse)
}
