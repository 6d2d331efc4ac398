// Package browser implements a bounded, reusable headless-browser pool:
// a fixed number of rod.Browser instances handed out via a buffered
// channel, generalized to sessions with typed navigation outcomes and
// context-aware acquisition.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/metrics"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// antiFingerprintPrelude is injected into every new page before
// navigation to hide the most common headless-automation tells.
const antiFingerprintPrelude = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
window.chrome = window.chrome || {runtime: {}};
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
`

// FetchResult is the outcome of rendering one page.
type FetchResult struct {
	RawHTML       []byte
	HTTPStatus    int
	FinalURL      string
	Elapsed       time.Duration
	RenderTimings time.Duration
}

// Session is one leased browser from the pool. Operations on a Session
// are strictly sequential; there is no ordering guarantee across
// sessions.
type Session struct {
	browser  *rod.Browser
	cfg      config.BrowserConfig
	poisoned bool
}

// Pool hands out Sessions up to PoolSize concurrently, in FIFO order,
// respecting the caller's context deadline while waiting.
type Pool struct {
	cfg      config.BrowserConfig
	logger   zerolog.Logger
	launcher *launcher.Launcher
	sessions chan *Session

	mu      sync.Mutex
	started bool
}

// New builds a Pool. Browsers are not launched until Start is called.
func New(cfg config.BrowserConfig, logger zerolog.Logger) *Pool {
	return &Pool{
		cfg:      cfg,
		logger:   logger.With().Str("component", "browser_pool").Logger(),
		sessions: make(chan *Session, cfg.PoolSize),
	}
}

// Start launches the underlying browser process and populates the pool
// with PoolSize sessions.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}

	l := launcher.New().
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	p.launcher = l

	poolSize := p.cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 3
	}
	for i := 0; i < poolSize; i++ {
		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			p.logger.Error().Err(err).Int("index", i).Msg("failed to connect browser instance")
			continue
		}
		p.sessions <- &Session{browser: b, cfg: p.cfg}
	}

	p.started = true
	p.logger.Info().Int("pool_size", poolSize).Msg("browser pool started")
	return nil
}

// Stop closes every session's browser and the shared launcher.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	close(p.sessions)
	for s := range p.sessions {
		_ = s.browser.Close()
	}
	if p.launcher != nil {
		p.launcher.Cleanup()
	}
	p.started = false
}

// Acquire blocks until a session is free, or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case s, ok := <-p.sessions:
		if !ok {
			return nil, errors.ErrServiceUnavailable
		}
		metrics.IncActiveBrowserSessions()
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool, or disposes and replaces it
// if it was marked poisoned during use.
func (p *Pool) Release(s *Session) {
	metrics.DecActiveBrowserSessions()
	if s.poisoned {
		if s.browser != nil {
			_ = s.browser.Close()
		}
		replacement, err := p.respawn()
		if err != nil {
			p.logger.Warn().Err(err).Msg("failed to respawn poisoned browser session")
			return
		}
		s = replacement
	}
	select {
	case p.sessions <- s:
	default:
		_ = s.browser.Close()
	}
}

func (p *Pool) respawn() (*Session, error) {
	if p.launcher == nil {
		return nil, errors.ErrServiceUnavailable
	}
	controlURL := p.launcher.MustLaunch()
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return &Session{browser: b, cfg: p.cfg}, nil
}

// Fetch renders url in this session and returns its final HTML,
// honoring ctx's deadline in addition to the configured navigation
// timeout. Navigation failures are classified into the typed
// FetchErrorKinds the scheduler's circuit breaker distinguishes.
func (s *Session) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	start := time.Now()

	timeout := time.Duration(s.cfg.NavigationTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browser := s.browser.Context(navCtx)
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.poisoned = true
		return nil, errors.NewFetchError(url, errors.FetchRenderFailure, 0, err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent()}); err != nil {
		s.poisoned = true
		return nil, errors.NewFetchError(url, errors.FetchRenderFailure, 0, err)
	}

	if _, err := page.EvalOnNewDocument(antiFingerprintPrelude); err != nil {
		s.poisoned = true
		return nil, errors.NewFetchError(url, errors.FetchRenderFailure, 0, err)
	}

	if err := blockResources(page, s.cfg.BlockedResourceTypes); err != nil {
		s.poisoned = true
		return nil, errors.NewFetchError(url, errors.FetchRenderFailure, 0, err)
	}

	var status int
	waitStatus := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = int(e.Response.Status)
			return true
		}
		return false
	})

	renderStart := time.Now()
	if err := page.Navigate(url); err != nil {
		return nil, errors.NewFetchError(url, classifyNavError(err), 0, err)
	}
	waitStatus()

	if err := page.WaitLoad(); err != nil {
		return nil, errors.NewFetchError(url, errors.FetchTimeout, status, err)
	}
	renderElapsed := time.Since(renderStart)

	if kind, isErr := classifyHTTPStatus(status); isErr {
		return nil, errors.NewFetchError(url, kind, status, fmt.Errorf("unexpected status code %d", status))
	}

	html, err := page.HTML()
	if err != nil {
		s.poisoned = true
		return nil, errors.NewFetchError(url, errors.FetchRenderFailure, status, err)
	}

	info := page.MustInfo()

	return &FetchResult{
		RawHTML:       []byte(html),
		HTTPStatus:    status,
		FinalURL:      info.URL,
		Elapsed:       time.Since(start),
		RenderTimings: renderElapsed,
	}, nil
}

// classifyHTTPStatus reports whether status is itself a fetch failure and,
// if so, which kind: 5xx and 408/429 are transient (retried by the
// scheduler), the rest of the 4xx range is permanent. A status of 0 means
// no top-level document response was observed and is treated as success,
// since some pages (e.g. about:blank redirects) never fire the event.
func classifyHTTPStatus(status int) (errors.FetchErrorKind, bool) {
	switch {
	case status == 0 || status < 400:
		return errors.FetchUnknown, false
	case status >= 500:
		return errors.FetchHTTPError, true
	case status == 408 || status == 429:
		return errors.FetchHTTPError, true
	default:
		return errors.FetchPermanentHTTP, true
	}
}

func (s *Session) userAgent() string {
	if len(s.cfg.UserAgents) == 0 {
		return "Mozilla/5.0 (compatible; SiteSentry/1.0)"
	}
	return s.cfg.UserAgents[rand.Intn(len(s.cfg.UserAgents))]
}

func blockResources(page *rod.Page, blockedTypes []string) error {
	if len(blockedTypes) == 0 {
		return nil
	}
	blocked := make(map[proto.NetworkResourceType]bool, len(blockedTypes))
	for _, t := range blockedTypes {
		switch t {
		case "image":
			blocked[proto.NetworkResourceTypeImage] = true
		case "media":
			blocked[proto.NetworkResourceTypeMedia] = true
		case "font":
			blocked[proto.NetworkResourceTypeFont] = true
		case "stylesheet":
			blocked[proto.NetworkResourceTypeStylesheet] = true
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(hijack *rod.Hijack) {
		if blocked[hijack.Request.Type()] {
			hijack.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		hijack.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return nil
}

func classifyNavError(err error) errors.FetchErrorKind {
	msg := err.Error()
	switch {
	case containsAny(msg, "no such host", "dns"):
		return errors.FetchDNS
	case containsAny(msg, "certificate", "tls", "x509"):
		return errors.FetchTLS
	case containsAny(msg, "timeout", "deadline exceeded"):
		return errors.FetchTimeout
	default:
		return errors.FetchHTTPError
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
