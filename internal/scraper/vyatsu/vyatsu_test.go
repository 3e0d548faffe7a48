package vyatsu

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
)

const teacherIndex = `<html><body>
<div class="fak_name">Институт математики и информационных систем</div>
<div class="kafedra">
  <div class="kafPeriod">
	Кафедра электронных вычислительных машин (ОРУ)
  </div>
  <div class="listPeriod">
    <a href="/reports/schedule/prepod/evm_1_01092021_31122021.html">с 01 09 2021
    по 31 12 2021</a>
    <a href="/reports/schedule/prepod/evm_2_01012022_30062022.html">с 01 01 2022 по 30 06 2022</a>
    <a href="/reports/schedule/prepod/broken.html">без дат</a>
  </div>
</div>
<div class="kafedra">
  <div class="kafPeriod">Кафедра физики (ОРУ)</div>
  <div class="listPeriod">
    <a href="/reports/schedule/prepod/phys_1_01092021_31122021.html">с 01 09 2021 по 31 12 2021</a>
  </div>
</div>
<div class="kafedra">
  <div class="kafPeriod">Кафедра закрытая</div>
  <div class="listPeriod">
    <a href="/reports/schedule/prepod/gone.html">с 01 09 2021 по 31 12 2021</a>
  </div>
</div>
</body></html>`

const studentIndex = `<html><body>
<div class="fak">
  <div class="grpPeriod">ИВТб-4301-03-00</div>
  <div class="listPeriod">
    <a href="/reports/schedule/Group/12345_1_01092021_30092021.pdf">с 01 09 2021 по 30 09 2021</a>
    <a href="/reports/schedule/Group/12345_1_01102021_31102021.pdf">с 01 10 2021 по 31 10 2021</a>
  </div>
</div>
<div class="fak">
  <div class="grpPeriod">ПМб-3401-51-00</div>
  <div class="listPeriod">
    <a href="https://cdn.vyatsu.test/pmb.pdf">с 01 09 2021 по 31 12 2021</a>
  </div>
</div>
<p>Архив: ИВТб-2301-01-00</p>
</body></html>`

func departmentTable(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tr><td>Обновление: 30.08.21</td></tr><tr><td><span>День</span></td><td><span>Интервал</span></td>`)
	for _, n := range names {
		b.WriteString(`<td><span>` + n + `</span></td>`)
	}
	b.WriteString(`<td></td></tr></table></body></html>`)
	return b.String()
}

func newSite(t *testing.T, physStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, body)
		}
	}
	mux.HandleFunc("/teacher.html", serve(teacherIndex))
	mux.HandleFunc("/students.html", serve(studentIndex))
	mux.HandleFunc("/reports/schedule/prepod/evm_1_01092021_31122021.html",
		serve(departmentTable("Чистяков&nbsp;Г.А.", "Иванов И.И.")))
	mux.HandleFunc("/reports/schedule/prepod/phys_1_01092021_31122021.html", func(w http.ResponseWriter, r *http.Request) {
		if physStatus != http.StatusOK {
			w.WriteHeader(physStatus)
			return
		}
		serve(departmentTable("Петров П.П."))(w, r)
	})
	mux.HandleFunc("/reports/schedule/prepod/gone.html", http.NotFound)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newLoader(t *testing.T, srv *httptest.Server) *Loader {
	t.Helper()
	client := scraper.NewClient(scraper.Options{
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RetryInitial: time.Millisecond,
		Burst:        100,
	})
	l, err := NewLoader(client, LoaderConfig{
		BaseURL:    srv.URL,
		TeacherURL: srv.URL + "/teacher.html",
		StudentURL: srv.URL + "/students.html",
		Workers:    2,
		Now:        func() time.Time { return time.Date(2021, 10, 15, 12, 0, 0, 0, time.UTC) },
	}, logger.NewWithWriter("error", io.Discard))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseDepartmentIndex(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://www.vyatsu.ru")
	depts := ParseDepartmentIndex(mustDoc(t, teacherIndex), base)

	if len(depts) != 3 {
		t.Fatalf("Expected 3 departments, got %d: %v", len(depts), depts)
	}
	evm := depts["Кафедра электронных вычислительных машин (ОРУ)"]
	if len(evm) != 2 {
		t.Fatalf("Expected 2 periods (undated link skipped), got %v", evm)
	}
	if evm[0].URL != "https://www.vyatsu.ru/reports/schedule/prepod/evm_1_01092021_31122021.html" {
		t.Errorf("unexpected URL %s", evm[0].URL)
	}
	if !evm[0].Start.Equal(time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)) || !evm[0].End.Equal(time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected bounds %v - %v", evm[0].Start, evm[0].End)
	}
	if evm[0].Scope != "Кафедра электронных вычислительных машин (ОРУ)" {
		t.Errorf("unexpected scope %q", evm[0].Scope)
	}
}

func TestParseGroupIndex(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://www.vyatsu.ru")
	groups, periods := ParseGroupIndex(mustDoc(t, studentIndex), base)

	want := map[string]bool{"ИВТб-4301-03-00": true, "ПМб-3401-51-00": true, "ИВТб-2301-01-00": true}
	if len(groups) != len(want) {
		t.Fatalf("Expected %d groups, got %v", len(want), groups)
	}
	for _, g := range groups {
		if !want[g] {
			t.Errorf("unexpected group %q", g)
		}
	}
	if len(periods["ИВТб-4301-03-00"]) != 2 {
		t.Errorf("Expected 2 periods, got %v", periods["ИВТб-4301-03-00"])
	}
	if got := periods["ПМб-3401-51-00"][0].URL; got != "https://cdn.vyatsu.test/pmb.pdf" {
		t.Errorf("absolute href must be kept, got %s", got)
	}
	if _, ok := periods["ИВТб-2301-01-00"]; ok {
		t.Error("archived group has no periods")
	}
}

func TestPickPeriod(t *testing.T) {
	t.Parallel()
	d := func(m time.Month, day int) time.Time { return time.Date(2021, m, day, 0, 0, 0, 0, time.UTC) }
	sept := directory.Period{Start: d(9, 1), End: d(9, 30), URL: "sept"}
	nov := directory.Period{Start: d(11, 1), End: d(11, 30), URL: "nov"}
	dec := directory.Period{Start: d(12, 1), End: d(12, 31), URL: "dec"}

	tests := []struct {
		name string
		now  time.Time
		want string
		ok   bool
	}{
		{"covering", d(9, 15), "sept", true},
		{"nearest upcoming", d(10, 15), "nov", true},
		{"most recent", time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), "dec", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickPeriod([]directory.Period{dec, sept, nov}, tt.now)
			if ok != tt.ok || got.URL != tt.want {
				t.Errorf("pickPeriod() = %s, %v; want %s, %v", got.URL, ok, tt.want, tt.ok)
			}
		})
	}
	if _, ok := pickPeriod(nil, d(9, 1)); ok {
		t.Error("Expected no period for empty list")
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()
	srv := newSite(t, http.StatusOK)
	snap, err := newLoader(t, srv).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !snap.HasGroup("ИВТб-4301-03-00") || len(snap.Groups) != 3 {
		t.Errorf("unexpected groups %v", snap.Groups)
	}
	want := []directory.Instructor{
		{Name: "Иванов И.И.", Department: "Кафедра электронных вычислительных машин (ОРУ)"},
		{Name: "Петров П.П.", Department: "Кафедра физики (ОРУ)"},
		{Name: "Чистяков Г.А.", Department: "Кафедра электронных вычислительных машин (ОРУ)"},
	}
	if len(snap.Instructors) != len(want) {
		t.Fatalf("Expected %d instructors, got %v", len(want), snap.Instructors)
	}
	for i := range want {
		if snap.Instructors[i] != want[i] {
			t.Errorf("Instructors[%d] = %+v, want %+v", i, snap.Instructors[i], want[i])
		}
	}
	if len(snap.DepartmentPeriods) != 3 {
		t.Errorf("Expected periods for 3 departments, got %d", len(snap.DepartmentPeriods))
	}
}

func TestLoader_Load_FailsOnServerError(t *testing.T) {
	t.Parallel()
	srv := newSite(t, http.StatusServiceUnavailable)
	_, err := newLoader(t, srv).Load(context.Background())
	if !errors.Is(err, domerrors.ErrNetworkFailure) {
		t.Errorf("Expected ErrNetworkFailure, got %v", err)
	}
}

func TestIsGone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"404", domerrors.NewScraperError("u", 404, errors.New("x")), true},
		{"429", domerrors.NewScraperError("u", 429, errors.New("x")), false},
		{"503", domerrors.NewScraperError("u", 503, errors.New("x")), false},
		{"layout", domerrors.ErrStructuralParse, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGone(tt.err); got != tt.want {
				t.Errorf("isGone(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
