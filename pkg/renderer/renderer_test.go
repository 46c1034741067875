package renderer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera-bot/internal/config"
)

type fakePage struct {
	navigateErr error
	waitErr     error
	htmlErr     error
	html        string

	navigated string
	waitedFor string
	closed    int
}

func (p *fakePage) Navigate(url string, timeout time.Duration) error {
	p.navigated = url
	return p.navigateErr
}

func (p *fakePage) WaitVisible(selector string, timeout time.Duration) error {
	p.waitedFor = selector
	return p.waitErr
}

func (p *fakePage) HTML(timeout time.Duration) (string, error) {
	return p.html, p.htmlErr
}

func (p *fakePage) Close() error {
	p.closed++
	return nil
}

func newTestChrome(p *fakePage, launchErr error) (*Chrome, *[]time.Duration) {
	var slept []time.Duration
	c := &Chrome{
		opts: DefaultOptions(),
		launch: func(ctx context.Context, opts Options) (Page, error) {
			if launchErr != nil {
				return nil, launchErr
			}
			return p, nil
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return ctx.Err()
		},
	}
	return c, &slept
}

func TestRender_Success(t *testing.T) {
	p := &fakePage{html: "<html><div class=\"sessions\"></div></html>"}
	c, slept := newTestChrome(p, nil)

	html, err := c.Render(context.Background(), "https://example.test/cartelera/")
	require.NoError(t, err)
	assert.Contains(t, html, "sessions")
	assert.Equal(t, "https://example.test/cartelera/", p.navigated)
	assert.Equal(t, "div.sessions", p.waitedFor)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
	assert.Equal(t, 1, p.closed)
}

func TestRender_ClosesBrowserOnEveryFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		page *fakePage
	}{
		{"navigation fails", &fakePage{navigateErr: context.DeadlineExceeded}},
		{"selector never appears", &fakePage{waitErr: context.DeadlineExceeded}},
		{"document read fails", &fakePage{htmlErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestChrome(tt.page, nil)
			_, err := c.Render(context.Background(), "https://example.test/")
			require.Error(t, err)
			assert.Equal(t, 1, tt.page.closed, "browser must be closed exactly once")
		})
	}
}

func TestRender_WaitTimeoutSkipsSettleDelay(t *testing.T) {
	p := &fakePage{waitErr: context.DeadlineExceeded}
	c, slept := newTestChrome(p, nil)

	_, err := c.Render(context.Background(), "https://example.test/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, *slept)
}

func TestRender_CancelledDuringSettle(t *testing.T) {
	p := &fakePage{html: "<html></html>"}
	c, _ := newTestChrome(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Render(ctx, "https://example.test/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.closed)
}

func TestRender_LaunchFailure(t *testing.T) {
	c, _ := newTestChrome(nil, errors.New(`exec: "google-chrome": executable file not found in $PATH`))

	_, err := c.Render(context.Background(), "https://example.test/")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.RenderConfig{
		Headless:          true,
		ExecPath:          "/usr/bin/chromium",
		WaitSelector:      "div.box",
		NavigationTimeout: 15,
		WaitTimeout:       5,
		SettleDelay:       250,
	}, "Mozilla/5.0")

	assert.True(t, opts.Headless)
	assert.Equal(t, "/usr/bin/chromium", opts.ExecPath)
	assert.Equal(t, "div.box", opts.WaitSelector)
	assert.Equal(t, 15*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 5*time.Second, opts.WaitTimeout)
	assert.Equal(t, 250*time.Millisecond, opts.SettleDelay)
	assert.Equal(t, "Mozilla/5.0", opts.UserAgent)

	// empty selector and timeouts fall back to defaults, headless and settle delay are taken as given
	opts = OptionsFromConfig(config.RenderConfig{}, "")
	assert.Equal(t, "div.sessions", opts.WaitSelector)
	assert.Equal(t, 30*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 10*time.Second, opts.WaitTimeout)
	assert.False(t, opts.Headless)
	assert.Zero(t, opts.SettleDelay)

	// negative settle delay keeps the default
	opts = OptionsFromConfig(config.RenderConfig{SettleDelay: -1}, "")
	assert.Equal(t, 2*time.Second, opts.SettleDelay)
}

// TestChrome_Integration drives a real browser. Set CARTELERA_CHROME_TEST=1 to run it.
func TestChrome_Integration(t *testing.T) {
	if os.Getenv("CARTELERA_CHROME_TEST") == "" {
		t.Skip("CARTELERA_CHROME_TEST not set")
	}

	page := `data:text/html,<html><body><script>
setTimeout(function(){var d=document.createElement('div');d.className='sessions';d.textContent='ok';document.body.appendChild(d);},100);
</script></body></html>`

	opts := DefaultOptions()
	opts.SettleDelay = 100 * time.Millisecond
	opts.ExecPath = os.Getenv("CHROME_PATH")

	html, err := NewChrome(opts).Render(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, `class="sessions"`))
}
