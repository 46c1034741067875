package renderer

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

type chromePage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func launchChrome(ctx context.Context, opts Options) (Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// the first Run starts the browser; it must not get a timeout context or the
	// browser would die with it
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	return &chromePage{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

func (p *chromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(url string, timeout time.Duration) error {
	return p.run(timeout, chromedp.Navigate(url))
}

func (p *chromePage) WaitVisible(selector string, timeout time.Duration) error {
	return p.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) HTML(timeout time.Duration) (string, error) {
	var html string
	err := p.run(timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close closes the tab, then kills the browser process and waits for it to exit.
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancelTab()
	p.cancelAlloc()
	return err
}
