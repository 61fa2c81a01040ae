package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Chrome implements Browser on top of chromedp. The chromedp context
// owns the browser process; per-call contexts bound individual
// operations through callContext.
type Chrome struct {
	ctx context.Context
}

type ChromeOptions struct {
	// run with a visible window, handy when debugging the login flow
	Headful bool
}

func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, func(), error) {
	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)

	// starts the browser eagerly so the first Navigate doesn't pay
	// the startup cost inside a page-load deadline
	err := chromedp.Run(taskCtx)
	if err != nil {
		cancelTask()
		cancelAlloc()
		return nil, nil, err
	}

	cleanup := func() {
		cancelTask()
		cancelAlloc()
	}
	return &Chrome{ctx: taskCtx}, cleanup, nil
}

// callContext derives a context for one browser operation: chromedp
// actions must run inside the context tree that owns the browser
// process, so the caller's context cannot be handed to chromedp
// directly. The derived context ends when either parent does.
func callContext(browserCtx, callCtx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(browserCtx)
	stop := context.AfterFunc(callCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cleanup := callContext(c.ctx, ctx)
	defer cleanup()

	err := chromedp.Run(runCtx, actions...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	return c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

func (c *Chrome) ClickButton(ctx context.Context, text string) error {
	selector := fmt.Sprintf(
		`//a[contains(@class,"atsc-button")][normalize-space(.)=%q]`,
		text,
	)
	return c.run(ctx, chromedp.Click(selector, chromedp.BySearch))
}

// WaitIdle approximates puppeteer's networkidle: the devtools protocol
// has no direct equivalent, so wait for the document to finish loading
// and give the JSP frame scripts a moment to settle.
func (c *Chrome) WaitIdle(ctx context.Context) error {
	err := c.run(ctx, chromedp.Poll(
		`document.readyState === "complete"`,
		nil,
		chromedp.WithPollingInterval(time.Millisecond*100),
	))
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.Sleep(time.Millisecond*500))
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	err := c.run(ctx, chromedp.Title(&title))
	return title, err
}

func (c *Chrome) CookieHeader(ctx context.Context) (string, error) {
	var header string
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		parts := make([]string, len(cookies))
		for i, cookie := range cookies {
			parts[i] = cookie.Name + "=" + cookie.Value
		}
		header = strings.Join(parts, "; ")
		return nil
	}))
	return header, err
}
