package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	urls  []string
	errs  []error
	body  string
	panic bool
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	attempt := len(f.urls)
	f.urls = append(f.urls, url)
	if attempt < len(f.errs) && f.errs[attempt] != nil {
		return "", f.errs[attempt]
	}
	return f.body, nil
}

func (f *scriptedFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type stubExtractor struct {
	profile enricher.Profile
	err     error
	gotURL  string
	gotBody string
}

func (e *stubExtractor) Extract(_ context.Context, content, sourceURL string) (enricher.Profile, error) {
	e.gotBody = content
	e.gotURL = sourceURL
	if e.err != nil {
		return nil, e.err
	}
	return e.profile, nil
}

type recordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	err    error
}

func (c *recordingClock) Now() time.Time { return time.Unix(0, 0).UTC() }

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if c.err != nil {
		return c.err
	}
	return ctx.Err()
}

var errTransient = errors.New("connection reset")
