package pageclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies the scraper to the remote site.
const DefaultUserAgent = "moviescraper/1.0 (+https://github.com/pevans/moviescraper)"

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// HTTPClient is a Client backed by plain HTTP requests. Pages are not
// rendered, so WaitFor only checks the server-rendered markup.
type HTTPClient struct {
	http *resty.Client
	cur  page
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml")

	return &HTTPClient{http: client}
}

// HTTPOpener returns an Opener producing a fresh HTTPClient per session.
func HTTPOpener(opts HTTPOptions) Opener {
	return func(context.Context) (Client, error) {
		return NewHTTPClient(opts), nil
	}
}

// Load fetches url and parses the response body.
func (c *HTTPClient) Load(ctx context.Context, url string) error {
	c.cur = page{}

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return &HTTPStatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	p, err := parse(resp.Request.URL, string(resp.Body()))
	if err != nil {
		return err
	}
	if final := resp.RawResponse.Request.URL; final != nil {
		p.url = final.String()
	}
	c.cur = p
	return nil
}

// WaitFor reports ErrTimeout immediately when selector is absent: a static
// document cannot change after it was fetched.
func (c *HTTPClient) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	if c.cur.doc == nil {
		return ErrNoDocument
	}
	if !c.cur.has(selector) {
		return fmt.Errorf("%w: %q on %s", ErrTimeout, selector, c.cur.url)
	}
	return nil
}

func (c *HTTPClient) QueryAll(selector string) ([]Element, error) {
	return c.cur.queryAll(selector)
}

func (c *HTTPClient) Query(selector string) (Element, bool, error) {
	return c.cur.query(selector)
}

func (c *HTTPClient) URL() string {
	return c.cur.url
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.http.GetClient().CloseIdleConnections()
	c.cur = page{}
	return nil
}
