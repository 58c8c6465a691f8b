// Package loader fetches fully rendered pages.
//
// Loader wraps a Renderer (normally the chromedp-backed Browser) with a
// RetryPolicy and bot-challenge detection. A page that still fails after the
// last attempt is returned as "" so the caller can skip it.
package loader

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

var (
	// ErrBotChallenge means the site served an anti-bot interstitial
	ErrBotChallenge = errors.New("bot challenge page")
	// ErrEmptyPage means rendering produced no markup
	ErrEmptyPage = errors.New("empty page")
)

// botMarkers are lowercase title fragments of anti-bot interstitials
var botMarkers = []string{"just a moment", "attention required", "captcha", "access denied"}

// IsBotChallenge reports whether a page title looks like an anti-bot page
func IsBotChallenge(title string) bool {
	t := strings.ToLower(title)
	for _, m := range botMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// Page is the result of one rendering pass
type Page struct {
	Title string
	HTML  string
}

// Renderer performs a single rendering pass of url
type Renderer interface {
	Render(ctx context.Context, url string, acceptConsent bool) (Page, error)
}

// Loader loads pages through a Renderer with retries
type Loader struct {
	renderer Renderer
	policy   RetryPolicy
	sleeper  Sleeper
	metrics  *logger.Metrics
}

// Option configures a Loader
type Option func(*Loader)

// WithRetryPolicy replaces DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithSleeper replaces the wall-clock sleeper
func WithSleeper(s Sleeper) Option {
	return func(l *Loader) { l.sleeper = s }
}

// WithMetrics records page load counters and timings
func WithMetrics(m *logger.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// New creates a loader around renderer
func New(renderer Renderer, opts ...Option) *Loader {
	l := &Loader{
		renderer: renderer,
		policy:   DefaultRetryPolicy(),
		sleeper:  RealSleeper{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the rendered markup of url, or "" once every attempt failed
func (l *Loader) Load(ctx context.Context, url string, acceptConsent bool) string {
	start := time.Now()
	var markup string

	err := l.policy.Do(ctx, l.sleeper, func(attempt int) error {
		page, err := l.renderer.Render(ctx, url, acceptConsent)
		if err != nil {
			logger.Warn("page load failed", logger.Fields{
				"url":     url,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return err
		}
		if IsBotChallenge(page.Title) {
			logger.Warn("bot challenge detected", logger.Fields{
				"url":     url,
				"attempt": attempt,
				"title":   page.Title,
			})
			return errors.Wrapf(ErrBotChallenge, "title %q", page.Title)
		}
		if strings.TrimSpace(page.HTML) == "" {
			return ErrEmptyPage
		}
		markup = page.HTML
		return nil
	})

	if l.metrics != nil {
		l.metrics.RecordTiming("page.load", time.Since(start))
	}
	if err != nil {
		logger.Error("giving up on page", logger.Fields{"url": url}, err)
		if l.metrics != nil {
			l.metrics.IncrCounter("pages.failed")
		}
		return ""
	}

	if l.metrics != nil {
		l.metrics.IncrCounter("pages.loaded")
	}
	logger.Debug("page loaded", logger.Fields{"url": url, "bytes": len(markup)})
	return markup
}
