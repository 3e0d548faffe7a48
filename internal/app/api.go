package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/vyatsu-schedule/internal/config"
	"github.com/garyellow/vyatsu-schedule/internal/ctxutil"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/export"
	"github.com/garyellow/vyatsu-schedule/internal/resolver"
	"github.com/garyellow/vyatsu-schedule/internal/schedule"
	"github.com/garyellow/vyatsu-schedule/internal/sentiment"
	"github.com/garyellow/vyatsu-schedule/internal/sentry"
	"github.com/garyellow/vyatsu-schedule/internal/storage"
)

const maxFeedbackRunes = 2000

// scheduleResponse adds the chat-style rendering to a day result.
type scheduleResponse struct {
	*schedule.Result
	Text string `json:"text,omitempty"`
}

func newScheduleResponse(res *schedule.Result) scheduleResponse {
	return scheduleResponse{Result: res, Text: res.Text()}
}

func (a *Application) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady reports ready once the directory is loaded (or the warmup
// timeout passed) and the database answers.
func (a *Application) handleReady(c *gin.Context) {
	status := a.readinessState.Status()
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "readiness": status})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()
	if err := a.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "readiness": status})
}

func (a *Application) handleDirectoryStats(c *gin.Context) {
	snap, err := a.directory.Snapshot()
	if err != nil {
		a.writeError(c, err)
		return
	}
	groups, instructors, periods := snap.Stats()
	c.JSON(http.StatusOK, gin.H{
		"groups":      groups,
		"instructors": instructors,
		"periods":     periods,
		"departments": len(snap.Departments()),
		"loaded_at":   snap.LoadedAt,
	})
}

func (a *Application) handleCanonicalGroup(c *gin.Context) {
	q, ok := a.requireQuery(c, "q")
	if !ok {
		return
	}
	level := a.cfg.DefaultLevelRune()
	if l := c.Query("level"); l != "" {
		r, _ := utf8.DecodeRuneInString(l)
		level = r
	}

	snap, err := a.directory.Snapshot()
	if err != nil {
		a.writeError(c, err)
		return
	}
	group := resolver.Canonicalize(snap, q, level)
	if group == "" {
		a.writeError(c, fmt.Errorf("%w: %q", domerrors.ErrInvalidName, q))
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "group": group})
}

func (a *Application) handleFindInstructor(c *gin.Context) {
	q, ok := a.requireQuery(c, "q")
	if !ok {
		return
	}
	snap, err := a.directory.Snapshot()
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":       q,
		"instructors": resolver.FindInstructor(snap, q),
	})
}

func (a *Application) handleSchedule(c *gin.Context) {
	q, ok := a.requireQuery(c, "q")
	if !ok {
		return
	}
	date, ok := a.parseDate(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.QueryProcessing)
	defer cancel()

	res, err := a.schedule.Get(ctx, q, date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(res))
}

// handleSelectInstructor answers the follow-up to an ambiguous match.
func (a *Application) handleSelectInstructor(c *gin.Context) {
	name, ok := a.requireQuery(c, "name")
	if !ok {
		return
	}
	dept, ok := a.requireQuery(c, "department")
	if !ok {
		return
	}
	date, ok := a.parseDate(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.QueryProcessing)
	defer cancel()

	res, err := a.schedule.SelectInstructor(ctx, domerrors.Candidate{Name: name, Scope: dept}, date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(res))
}

// handleWeek returns every day of the covering document, as JSON or as an
// iCalendar file with format=ics.
func (a *Application) handleWeek(c *gin.Context) {
	q, ok := a.requireQuery(c, "q")
	if !ok {
		return
	}
	date, ok := a.parseDate(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.QueryProcessing)
	defer cancel()

	week, err := a.schedule.Week(ctx, q, date)
	if err != nil {
		a.writeError(c, err)
		return
	}

	if c.Query("format") != "ics" {
		c.JSON(http.StatusOK, week)
		return
	}
	var buf strings.Builder
	if err := export.WriteICS(&buf, week, a.cfg.Location(), a.now()); err != nil {
		a.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(buf.String()))
}

func (a *Application) handleLink(c *gin.Context) {
	q, ok := a.requireQuery(c, "q")
	if !ok {
		return
	}
	date, ok := a.parseDate(c)
	if !ok {
		return
	}
	link, err := a.schedule.Link(c.Request.Context(), q, date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

type saveGroupRequest struct {
	Group string `json:"group" binding:"required"`
}

// handleSaveUserGroup stores the canonical form of the requested group.
func (a *Application) handleSaveUserGroup(c *gin.Context) {
	var req saveGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, domerrors.NewValidationError("group", err.Error()))
		return
	}
	snap, err := a.directory.Snapshot()
	if err != nil {
		a.writeError(c, err)
		return
	}
	group := resolver.Canonicalize(snap, req.Group, a.cfg.DefaultLevelRune())
	if group == "" {
		a.writeError(c, fmt.Errorf("%w: %q", domerrors.ErrInvalidName, req.Group))
		return
	}

	userID := c.Param("id")
	if err := a.db.SaveUserGroup(c.Request.Context(), userID, group); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "group": group})
}

func (a *Application) handleUserSchedule(c *gin.Context) {
	date, ok := a.parseDate(c)
	if !ok {
		return
	}
	user, err := a.db.GetUserGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.QueryProcessing)
	defer cancel()

	res, err := a.schedule.Get(ctx, user.Group, date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(res))
}

func (a *Application) handleDeleteUser(c *gin.Context) {
	if err := a.db.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type feedbackRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// handleFeedback stores a message with its sentiment label. Classification
// failures store the message as unknown.
func (a *Application) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, domerrors.NewValidationError("body", err.Error()))
		return
	}
	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > maxFeedbackRunes {
		a.writeError(c, domerrors.NewValidationError("text", "too long"))
		return
	}
	if !a.feedbackLimiter.Allow(req.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "лимит отзывов на сегодня исчерпан"})
		return
	}

	ctx := ctxutil.WithUserID(c.Request.Context(), req.UserID)
	classifyCtx, cancel := context.WithTimeout(ctx, config.SentimentClassify)
	result, err := a.classifier.Classify(classifyCtx, text)
	cancel()
	if err != nil && !errors.Is(err, sentiment.ErrDisabled) {
		a.logger.WithError(err).Warn("Feedback classification failed, storing as unknown")
	}

	fb := &storage.Feedback{
		UserID:    req.UserID,
		Text:      text,
		Sentiment: string(result.Label),
		Provider:  string(result.Provider),
	}
	if _, err := a.db.SaveFeedback(ctx, fb); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (a *Application) handleDirectoryRefresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.DirectoryLoad)
	defer cancel()

	if err := a.directory.Refresh(ctx); err != nil {
		a.writeError(c, err)
		return
	}
	a.readinessState.MarkReady()
	a.handleDirectoryStats(c)
}

func (a *Application) handleFeedbackStats(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := a.db.CountFeedbackBySentiment(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	users, err := a.db.CountUsers(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentiment": counts, "users": users})
}

func (a *Application) handleFeedbackSearch(c *gin.Context) {
	var (
		items []storage.Feedback
		err   error
	)
	if q := c.Query("q"); q != "" {
		items, err = a.db.SearchFeedback(c.Request.Context(), q)
	} else {
		limit, _ := strconv.Atoi(c.Query("limit"))
		items, err = a.db.RecentFeedback(c.Request.Context(), limit)
	}
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items})
}

func (a *Application) requireQuery(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		a.writeError(c, domerrors.NewValidationError(name, "required"))
		return "", false
	}
	return v, true
}

// parseDate reads the date parameter in the configured timezone; empty
// means today.
func (a *Application) parseDate(c *gin.Context) (time.Time, bool) {
	date, err := schedule.ParseDate(c.Query("date"), a.now().In(a.cfg.Location()))
	if err != nil {
		a.writeError(c, err)
		return time.Time{}, false
	}
	return date, true
}

// writeError maps domain errors to HTTP statuses. Unexpected errors are
// reported to Sentry.
func (a *Application) writeError(c *gin.Context, err error) {
	status, errType := statusOf(err)
	a.metrics.RecordHTTPError(errType, c.FullPath())

	body := gin.H{"error": domerrors.GetUserMessage(err)}
	var ambiguous *domerrors.AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		body["candidates"] = ambiguous.Candidates
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			sentry.CaptureExceptionWithContext(c.Request.Context(), err, map[string]string{
				"route": c.FullPath(),
			})
		}
	}
	c.JSON(status, body)
}

func statusOf(err error) (int, string) {
	var ambiguous *domerrors.AmbiguousMatchError
	switch {
	case errors.As(err, &ambiguous):
		return http.StatusConflict, "ambiguous"
	case errors.Is(err, domerrors.ErrInvalidName):
		return http.StatusNotFound, "invalid_name"
	case errors.Is(err, domerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domerrors.ErrDirectoryUnavailable):
		return http.StatusServiceUnavailable, "directory_unavailable"
	case errors.Is(err, domerrors.ErrNetworkFailure):
		return http.StatusBadGateway, "network"
	case domerrors.IsStructural(err), errors.Is(err, domerrors.ErrEntityColumnNotFound):
		return http.StatusBadGateway, "parse"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}
