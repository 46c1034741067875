// Package renderer loads pages in a headless Chrome and returns the DOM after
// client-side scripts have populated it.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartelera-bot/internal/config"
	"cartelera-bot/pkg/logger"
)

// ErrUnavailable is returned when no headless browser could be started.
var ErrUnavailable = errors.New("headless browser unavailable")

// Renderer returns the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Options controls one rendering session.
type Options struct {
	Headless          bool
	ExecPath          string
	NoSandbox         bool
	UserAgent         string
	WaitSelector      string
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	SettleDelay       time.Duration
}

// DefaultOptions matches the publicine listing page.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		NoSandbox:         true,
		WaitSelector:      "div.sessions",
		NavigationTimeout: 30 * time.Second,
		WaitTimeout:       10 * time.Second,
		SettleDelay:       2 * time.Second,
	}
}

// OptionsFromConfig converts the render section of the config. An empty selector
// and non-positive timeouts keep their defaults. Headless is copied as is and a
// zero settle delay disables the pause; config.Default sets both.
func OptionsFromConfig(cfg config.RenderConfig, userAgent string) Options {
	opts := DefaultOptions()
	opts.Headless = cfg.Headless
	opts.ExecPath = cfg.ExecPath
	opts.NoSandbox = cfg.NoSandbox
	opts.UserAgent = userAgent
	if cfg.WaitSelector != "" {
		opts.WaitSelector = cfg.WaitSelector
	}
	if cfg.NavigationTimeout > 0 {
		opts.NavigationTimeout = time.Duration(cfg.NavigationTimeout) * time.Second
	}
	if cfg.WaitTimeout > 0 {
		opts.WaitTimeout = time.Duration(cfg.WaitTimeout) * time.Second
	}
	if cfg.SettleDelay >= 0 {
		opts.SettleDelay = time.Duration(cfg.SettleDelay) * time.Millisecond
	}
	return opts
}

// Page is one browser process with a single tab.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	HTML(timeout time.Duration) (string, error)
	Close() error
}

// Launcher starts the browser for one Render call.
type Launcher func(ctx context.Context, opts Options) (Page, error)

// Chrome renders pages with a fresh headless Chrome per call. It keeps no state
// between calls, so concurrent Render calls each get their own browser.
type Chrome struct {
	opts   Options
	launch Launcher
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewChrome creates a chromedp backed renderer.
func NewChrome(opts Options) *Chrome {
	return NewChromeWithLauncher(opts, launchChrome)
}

// NewChromeWithLauncher creates a renderer that starts its browsers with launch.
func NewChromeWithLauncher(opts Options, launch Launcher) *Chrome {
	return &Chrome{
		opts:   opts,
		launch: launch,
		sleep:  sleepContext,
	}
}

// Render navigates to url, waits for the configured selector, lets deferred scripts
// settle and returns the serialized document. The browser is shut down before
// Render returns, whatever the outcome.
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	p, err := c.launch(ctx, c.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			logger.Debug("Closing browser: %v", cerr)
		}
	}()

	logger.Debug("Rendering %s", url)
	if err := p.Navigate(url, c.opts.NavigationTimeout); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	if err := p.WaitVisible(c.opts.WaitSelector, c.opts.WaitTimeout); err != nil {
		return "", fmt.Errorf("wait for %q: %w", c.opts.WaitSelector, err)
	}

	if err := c.sleep(ctx, c.opts.SettleDelay); err != nil {
		return "", err
	}

	html, err := p.HTML(c.opts.WaitTimeout)
	if err != nil {
		return "", fmt.Errorf("read rendered document: %w", err)
	}
	return html, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
