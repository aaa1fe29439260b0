// Package pageclient loads web pages and exposes their DOM through CSS
// selector queries. Two implementations are provided: HTTPClient reads the
// server-rendered HTML, BrowserClient renders the page in headless Chrome.
// Both hand out snapshot elements, so navigating to another page never
// invalidates elements taken from a previous one.
package pageclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultWaitTimeout is used by WaitFor when no timeout is given.
const DefaultWaitTimeout = 30 * time.Second

var (
	// ErrTimeout is returned by WaitFor when the selector never appears.
	ErrTimeout = errors.New("timed out waiting for selector")
	// ErrNoDocument is returned when querying before a page was loaded.
	ErrNoDocument = errors.New("no page loaded")
)

// Client loads one page at a time and answers selector queries against the
// currently loaded page.
type Client interface {
	// Load navigates to url, replacing the current page.
	Load(ctx context.Context, url string) error
	// WaitFor blocks until selector matches at least one element on the
	// current page, failing with ErrTimeout after timeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// QueryAll returns every element matching selector in document order.
	QueryAll(selector string) ([]Element, error)
	// Query returns the first element matching selector.
	Query(selector string) (Element, bool, error)
	// URL returns the address of the current page.
	URL() string
	// Close releases the underlying resources.
	Close() error
}

// Opener creates a Client scoped to a single scrape session.
type Opener func(ctx context.Context) (Client, error)

// HTTPStatusError is returned when a page load gets a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Element is a read-only handle to one DOM node of a loaded page.
type Element struct {
	sel *goquery.Selection
}

// Query returns the first descendant matching selector.
func (e Element) Query(selector string) (Element, bool) {
	if e.sel == nil {
		return Element{}, false
	}
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return Element{}, false
	}
	return Element{sel: found}, true
}

// Text returns the element's text content with surrounding whitespace
// trimmed.
func (e Element) Text() string {
	if e.sel == nil {
		return ""
	}
	return strings.TrimSpace(e.sel.Text())
}

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

func elements(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}

// page is the DOM snapshot shared by both client implementations.
type page struct {
	url string
	doc *goquery.Document
}

func (p *page) queryAll(selector string) ([]Element, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return elements(p.doc.Find(selector)), nil
}

func (p *page) query(selector string) (Element, bool, error) {
	if p.doc == nil {
		return Element{}, false, ErrNoDocument
	}
	found := p.doc.Find(selector).First()
	if found.Length() == 0 {
		return Element{}, false, nil
	}
	return Element{sel: found}, true, nil
}

func (p *page) has(selector string) bool {
	return p.doc != nil && p.doc.Find(selector).Length() > 0
}

func parse(url, html string) (page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return page{url: url, doc: doc}, nil
}
