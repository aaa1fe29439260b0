package session

import (
	"errors"
	"fmt"

	"github.com/pevans/moviescraper/pageclient"
)

var (
	// ErrElementNotFound is returned when a required selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrAttributeMissing is returned when a required attribute is absent.
	ErrAttributeMissing = errors.New("attribute missing")
)

// Extraction stages reported in ItemError.
const (
	StageListing = "listing"
	StageDetail  = "detail"
)

// ItemError describes why one movie was skipped.
type ItemError struct {
	Page  int    // 1-based listing page
	Index int    // 0-based card position on the page
	Stage string // StageListing or StageDetail
	URL   string // detail page URL, empty if the link was never read
	Err   error
}

func (e *ItemError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("page=%d item=%d stage=%s: %v", e.Page, e.Index, e.Stage, e.Err)
	}
	return fmt.Sprintf("page=%d item=%d stage=%s url=%s: %v", e.Page, e.Index, e.Stage, e.URL, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func elementText(el pageclient.Element, selector string) (string, error) {
	found, ok := el.Query(selector)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return found.Text(), nil
}

func elementAttr(el pageclient.Element, selector, name string) (string, error) {
	found, ok := el.Query(selector)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	value, ok := found.Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: %s on %q", ErrAttributeMissing, name, selector)
	}
	return value, nil
}

func pageText(page pageclient.Client, selector string) (string, error) {
	found, ok, err := page.Query(selector)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return found.Text(), nil
}

// pageTexts returns the text of every match; no match yields an empty list.
func pageTexts(page pageclient.Client, selector string) ([]string, error) {
	found, err := page.QueryAll(selector)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(found))
	for _, el := range found {
		texts = append(texts, el.Text())
	}
	return texts, nil
}
