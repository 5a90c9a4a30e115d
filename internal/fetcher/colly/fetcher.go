// Package collyfetcher implements enricher.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/logging"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// DefaultTimeout bounds a fetch when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Fetcher implements enricher.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

var _ enricher.Fetcher = (*Fetcher)(nil)

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. Transport and timeout live on the shared collector
// backend, so they are configured once here rather than per clone.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logging.OrNop(logger).Named("fetcher"),
	}
}

type fetchResult struct {
	body string
	err  error
}

// Fetch executes a single HTTP GET and returns the body as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	var result fetchResult
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, url, &result)

	err := f.runCollector(ctx, collector, url)
	if err == nil {
		err = result.err
	}
	if err != nil {
		metrics.ObserveAttempt("fetch", "error", time.Since(start))
		f.logger.Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return "", err
	}
	metrics.ObserveAttempt("fetch", "success", time.Since(start))
	return result.body, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, url string, result *fetchResult) {
	hooks.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= http.StatusBadRequest {
			result.err = &enricher.FetchError{URL: url, StatusCode: r.StatusCode}
			return
		}
		result.body = string(r.Body)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		fetchErr := &enricher.FetchError{URL: url, Cause: err}
		if r != nil {
			fetchErr.StatusCode = r.StatusCode
		}
		result.err = fetchErr
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return &enricher.FetchError{URL: url, Cause: fmt.Errorf("colly fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if err != nil {
			return &enricher.FetchError{URL: url, Cause: fmt.Errorf("colly visit failed: %w", err)}
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
