package pageclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the headless Chrome instance.
type BrowserOptions struct {
	Headless     bool
	UserAgent    string
	ExecPath     string
	WindowWidth  int
	WindowHeight int
}

// DefaultBrowserOptions returns the options used when nothing is configured.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:     true,
		WindowWidth:  1366,
		WindowHeight: 900,
	}
}

func buildAllocatorOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

// BrowserClient is a Client that renders pages in headless Chrome. After a
// successful WaitFor the rendered DOM is snapshotted and queried with
// goquery.
type BrowserClient struct {
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc

	cur      page
	loadedAt string
}

// NewBrowserClient launches Chrome. The browser lives until Close is called
// or ctx is cancelled.
func NewBrowserClient(ctx context.Context, opts BrowserOptions) (*BrowserClient, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, buildAllocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &BrowserClient{
		ctx:           browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

// BrowserOpener returns an Opener launching a new browser per session.
func BrowserOpener(opts BrowserOptions) Opener {
	return func(ctx context.Context) (Client, error) {
		return NewBrowserClient(ctx, opts)
	}
}

// Load navigates the tab to url. The DOM is not read until WaitFor or a
// query is made.
func (b *BrowserClient) Load(ctx context.Context, url string) error {
	b.cur = page{}
	b.loadedAt = ""

	runCtx, cancel := b.bind(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	b.loadedAt = url
	return nil
}

// WaitFor blocks until selector is present in the DOM and then snapshots
// the page.
func (b *BrowserClient) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if b.loadedAt == "" {
		return ErrNoDocument
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	runCtx, cancel := b.bind(ctx)
	defer cancel()
	waitCtx, cancelWait := context.WithTimeout(runCtx, timeout)
	defer cancelWait()

	err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %q on %s after %s", ErrTimeout, selector, b.loadedAt, timeout)
		}
		return fmt.Errorf("failed waiting for %q: %w", selector, err)
	}

	return b.snapshot(runCtx)
}

func (b *BrowserClient) QueryAll(selector string) ([]Element, error) {
	if err := b.ensureSnapshot(); err != nil {
		return nil, err
	}
	return b.cur.queryAll(selector)
}

func (b *BrowserClient) Query(selector string) (Element, bool, error) {
	if err := b.ensureSnapshot(); err != nil {
		return Element{}, false, err
	}
	return b.cur.query(selector)
}

func (b *BrowserClient) URL() string {
	if b.cur.url != "" {
		return b.cur.url
	}
	return b.loadedAt
}

// Close shuts the tab and the browser process down.
func (b *BrowserClient) Close() error {
	b.cancelBrowser()
	b.cancelAlloc()
	b.cur = page{}
	return nil
}

func (b *BrowserClient) snapshot(ctx context.Context) error {
	var html, location string
	err := chromedp.Run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to read DOM of %s: %w", b.loadedAt, err)
	}

	p, err := parse(location, html)
	if err != nil {
		return err
	}
	b.cur = p
	return nil
}

func (b *BrowserClient) ensureSnapshot() error {
	if b.cur.doc != nil {
		return nil
	}
	if b.loadedAt == "" {
		return ErrNoDocument
	}
	return b.snapshot(b.ctx)
}

// bind returns a context carrying the browser tab that is also cancelled
// when the caller's ctx is.
func (b *BrowserClient) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(b.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
