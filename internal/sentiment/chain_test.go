package sentiment

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClassifier struct {
	provider Provider
	replies  []error // consumed in order; nil means success
	label    Label

	mu    sync.Mutex
	calls int
}

func (m *mockClassifier) Classify(_ context.Context, _ string) (Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i < len(m.replies) && m.replies[i] != nil {
		return Unknown, m.replies[i]
	}
	return m.label, nil
}

func (m *mockClassifier) Provider() Provider { return m.provider }
func (m *mockClassifier) Close() error       { return nil }

func (m *mockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recorded struct{ provider, label string }

type mockRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *mockRecorder) RecordSentiment(provider, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recorded{provider, label})
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestChain_Disabled(t *testing.T) {
	t.Parallel()
	c := NewChain(nil, RetryConfig{}, nil)
	assert.False(t, c.Enabled())

	res, err := c.Classify(context.Background(), "спасибо")
	require.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, Unknown, res.Label)

	var nilChain *Chain
	assert.False(t, nilChain.Enabled())
	assert.NoError(t, nilChain.Close())
}

func TestChain_FirstProviderSucceeds(t *testing.T) {
	t.Parallel()
	gem := &mockClassifier{provider: ProviderGemini, label: Positive}
	oai := &mockClassifier{provider: ProviderOpenAI, label: Negative}
	rec := &mockRecorder{}

	res, err := NewChain([]Classifier{gem, oai}, fastRetry(), rec).Classify(context.Background(), "отличный бот")
	require.NoError(t, err)
	assert.Equal(t, Result{Label: Positive, Provider: ProviderGemini}, res)
	assert.Equal(t, 0, oai.Calls())
	assert.Equal(t, []recorded{{"gemini", "positive"}}, rec.seen)
}

func TestChain_RetriesTransientErrors(t *testing.T) {
	t.Parallel()
	transient := WrapError(errors.New("overloaded"), ProviderGemini, http.StatusServiceUnavailable)
	gem := &mockClassifier{provider: ProviderGemini, label: Neutral, replies: []error{transient, transient}}

	res, err := NewChain([]Classifier{gem}, fastRetry(), nil).Classify(context.Background(), "когда пары?")
	require.NoError(t, err)
	assert.Equal(t, Neutral, res.Label)
	assert.Equal(t, 3, gem.Calls())
}

func TestChain_FallsBackOnQuota(t *testing.T) {
	t.Parallel()
	gem := &mockClassifier{provider: ProviderGemini, replies: []error{errors.New("daily limit reached")}}
	oai := &mockClassifier{provider: ProviderOpenAI, label: Negative}
	rec := &mockRecorder{}

	res, err := NewChain([]Classifier{gem, oai}, fastRetry(), rec).Classify(context.Background(), "расписание неверное")
	require.NoError(t, err)
	assert.Equal(t, Result{Label: Negative, Provider: ProviderOpenAI}, res)
	assert.Equal(t, 1, gem.Calls(), "quota errors are not retried")
	assert.Equal(t, []recorded{{"gemini", "error"}, {"openai", "negative"}}, rec.seen)
}

func TestChain_StopsOnFatalError(t *testing.T) {
	t.Parallel()
	fatal := WrapError(errors.New("bad request"), ProviderGemini, http.StatusBadRequest)
	gem := &mockClassifier{provider: ProviderGemini, replies: []error{fatal}}
	oai := &mockClassifier{provider: ProviderOpenAI, label: Positive}

	res, err := NewChain([]Classifier{gem, oai}, fastRetry(), nil).Classify(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, Unknown, res.Label)
	assert.Equal(t, 0, oai.Calls())
}

func TestChain_AllProvidersFail(t *testing.T) {
	t.Parallel()
	gem := &mockClassifier{provider: ProviderGemini, replies: []error{ErrUnparseable}}
	oai := &mockClassifier{provider: ProviderOpenAI, replies: []error{ErrUnparseable}}

	res, err := NewChain([]Classifier{gem, oai}, fastRetry(), nil).Classify(context.Background(), "x")
	require.ErrorIs(t, err, ErrUnparseable)
	assert.Equal(t, Unknown, res.Label)
	assert.Equal(t, 1, gem.Calls())
	assert.Equal(t, 1, oai.Calls())
}

func TestChain_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gem := &mockClassifier{provider: ProviderGemini, label: Positive}

	_, err := NewChain([]Classifier{gem}, fastRetry(), nil).Classify(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, gem.Calls())
}

func TestCalculateBackoff(t *testing.T) {
	t.Parallel()
	assert.Zero(t, CalculateBackoff(0, time.Second, time.Minute))
	for attempt := 1; attempt <= 6; attempt++ {
		d := CalculateBackoff(attempt, 100*time.Millisecond, 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 400*time.Millisecond)
	}
}
