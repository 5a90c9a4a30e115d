package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

func newTestWorker(t *testing.T, f enricher.Fetcher, e enricher.Extractor, c enricher.Clock, cfg Config) (*Worker, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	w, err := New(f, e, c, cfg, zap.New(core))
	require.NoError(t, err)
	return w, logs
}

func TestWorker_ProcessSuccess(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{body: "<html>widgets</html>"}
	extractor := &stubExtractor{profile: enricher.Profile{"summary": "Widget maker"}}
	w, logs := newTestWorker(t, fetcher, extractor, &recordingClock{}, Config{})

	out := w.Process(context.Background(), 4, enricher.Company{ID: 1, Website: "a.com"})

	require.True(t, out.Succeeded)
	require.NoError(t, out.Err)
	require.Equal(t, 4, out.Index)
	require.Equal(t, int64(1), out.CompanyID)
	require.Equal(t, "a.com", out.CompanyName)
	require.Equal(t, "https://a.com", out.URL)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, "Widget maker", out.Profile["summary"])
	require.Equal(t, []string{"https://a.com"}, fetcher.calls())
	require.Equal(t, "https://a.com", extractor.gotURL)
	require.Equal(t, "<html>widgets</html>", extractor.gotBody)

	require.Equal(t, 1, logs.FilterMessage("processing company").Len())
	enriched := logs.FilterMessage("company enriched").All()
	require.Len(t, enriched, 1)
	require.Equal(t, int64(1), enriched[0].ContextMap()["company_id"])
	require.Equal(t, "https://a.com", enriched[0].ContextMap()["url"])
}

func TestWorker_FetchFailureNoRetries(t *testing.T) {
	t.Parallel()

	fetchErr := &enricher.FetchError{URL: "https://bad.invalid", Cause: errTransient}
	fetcher := &scriptedFetcher{errs: []error{fetchErr}}
	extractor := &stubExtractor{}
	clk := &recordingClock{}
	w, logs := newTestWorker(t, fetcher, extractor, clk, Config{})

	out := w.Process(context.Background(), 1, enricher.Company{ID: 2, Website: "bad.invalid"})

	require.False(t, out.Succeeded)
	require.Nil(t, out.Profile)
	require.Equal(t, 1, out.Attempts)
	var fe *enricher.FetchError
	require.ErrorAs(t, out.Err, &fe)
	require.Empty(t, extractor.gotURL, "extractor must not run after a fetch failure")
	require.Empty(t, clk.sleeps)
	require.Equal(t, 1, logs.FilterMessage("attempt failed").Len())
	skipped := logs.FilterMessage("skipping company after exhausted retries").All()
	require.Len(t, skipped, 1)
	require.Equal(t, OutcomeFetchError, skipped[0].ContextMap()["reason"])
}

func TestWorker_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{errs: []error{errTransient, errTransient}, body: "ok"}
	extractor := &stubExtractor{profile: enricher.Profile{"summary": "x"}}
	clk := &recordingClock{}
	w, logs := newTestWorker(t, fetcher, extractor, clk, Config{MaxRetries: 2, RetryDelay: 5 * time.Second})

	out := w.Process(context.Background(), 0, enricher.Company{ID: 9, Website: "https://retry.example"})

	require.True(t, out.Succeeded)
	require.Equal(t, 3, out.Attempts)
	require.Len(t, fetcher.calls(), 3)
	require.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clk.sleeps)
	require.Equal(t, 2, logs.FilterMessage("attempt failed").Len())
	require.Zero(t, logs.FilterMessage("skipping company after exhausted retries").Len())
}

func TestWorker_RetriesExhausted(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{body: "ok"}
	extractor := &stubExtractor{err: &enricher.ExtractionError{StatusCode: 503}}
	clk := &recordingClock{}
	w, _ := newTestWorker(t, fetcher, extractor, clk, Config{MaxRetries: 1})

	out := w.Process(context.Background(), 0, enricher.Company{ID: 3, Website: "c.com"})

	require.False(t, out.Succeeded)
	require.Equal(t, 2, out.Attempts)
	require.Equal(t, []time.Duration{DefaultRetryDelay}, clk.sleeps)
	var ee *enricher.ExtractionError
	require.ErrorAs(t, out.Err, &ee)
}

func TestWorker_CanceledDuringRetryDelay(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{errs: []error{errTransient, errTransient, errTransient}}
	clk := &recordingClock{err: context.Canceled}
	w, _ := newTestWorker(t, fetcher, &stubExtractor{}, clk, Config{MaxRetries: 2})

	out := w.Process(context.Background(), 0, enricher.Company{ID: 3, Website: "c.com"})

	require.False(t, out.Succeeded)
	require.Equal(t, 1, out.Attempts)
	require.Len(t, fetcher.calls(), 1)
}

func TestWorker_MissingWebsite(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{}
	w, _ := newTestWorker(t, fetcher, &stubExtractor{}, &recordingClock{}, Config{MaxRetries: 3})

	out := w.Process(context.Background(), 0, enricher.Company{ID: 5})

	require.False(t, out.Succeeded)
	require.ErrorIs(t, out.Err, ErrMissingWebsite)
	require.Empty(t, fetcher.calls())
}

func TestWorker_PanicBecomesFailedOutcome(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{panic: true}
	w, logs := newTestWorker(t, fetcher, &stubExtractor{}, &recordingClock{}, Config{})

	var out enricher.Outcome
	require.NotPanics(t, func() {
		out = w.Process(context.Background(), 2, enricher.Company{ID: 6, Website: "p.com"})
	})
	require.False(t, out.Succeeded)
	require.Equal(t, 2, out.Index)
	require.ErrorContains(t, out.Err, "worker panic: boom")
	require.Equal(t, 1, logs.FilterMessage("worker panicked").Len())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	f := &scriptedFetcher{}
	e := &stubExtractor{}
	c := &recordingClock{}

	_, err := New(nil, e, c, Config{}, nil)
	require.Error(t, err)
	_, err = New(f, nil, c, Config{}, nil)
	require.Error(t, err)
	_, err = New(f, e, nil, Config{}, nil)
	require.Error(t, err)
	_, err = New(f, e, c, Config{MaxRetries: -1}, nil)
	require.Error(t, err)

	w, err := New(f, e, c, Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultRetryDelay, w.cfg.RetryDelay)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{"fetch", context.Background(), &enricher.FetchError{StatusCode: 404}, OutcomeFetchError},
		{"extract", context.Background(), &enricher.ExtractionError{StatusCode: 500}, OutcomeExtractError},
		{"parse", context.Background(), &enricher.ParseError{Text: "nope"}, OutcomeParseError},
		{"other", context.Background(), errors.New("x"), OutcomeError},
		{"canceled", canceled, errTransient, OutcomeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, classify(tt.ctx, tt.err))
		})
	}
}
