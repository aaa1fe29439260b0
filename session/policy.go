package session

import (
	"time"

	"github.com/pevans/moviescraper/access"
	"github.com/pevans/moviescraper/movie"
	"github.com/pevans/moviescraper/pageclient"
	"github.com/pevans/moviescraper/quota"
	"github.com/pevans/moviescraper/scraper"
)

// PublicMaxPages caps the pages a public session may scrape.
const PublicMaxPages = 3

// Enricher reads additional fields from a loaded detail page into rec.
type Enricher func(page pageclient.Client, cfg scraper.DetailConfig, rec *movie.Record) error

// Policy holds everything that differs between session variants.
type Policy struct {
	Name string
	// Output is the default file the CLI writes results to.
	Output string

	// ItemDelay is slept after each successfully scraped movie.
	ItemDelay time.Duration
	// PageDelay is slept after each listing page.
	PageDelay time.Duration

	// Authorize, when set, must accept the request key before anything
	// else happens.
	Authorize func(key string) error
	// Budget maps the requested page count to the pages this session may
	// process. It may refuse the session outright.
	Budget func(requested int) (int, error)
	// PageDone is called after every completed listing page.
	PageDone func() error
	// Enrich, when set, extends each record from its detail page.
	Enrich Enricher
}

// PublicPolicy is the unauthenticated variant: at most three pages, one
// second between movies and two between pages.
func PublicPolicy() Policy {
	return Policy{
		Name:      "public",
		Output:    "movies.json",
		ItemDelay: 1 * time.Second,
		PageDelay: 2 * time.Second,
		Budget: func(requested int) (int, error) {
			return min(requested, PublicMaxPages), nil
		},
	}
}

// AdminPolicy requires a key accepted by v, scrapes as many pages as
// requested with shorter delays and adds rating, cast, director and a
// timestamp to every record.
func AdminPolicy(v *access.Verifier) Policy {
	return Policy{
		Name:      "admin",
		Output:    "admin_movies.json",
		ItemDelay: 500 * time.Millisecond,
		PageDelay: 1 * time.Second,
		Authorize: v.Authorize,
		Budget: func(requested int) (int, error) {
			return requested, nil
		},
		Enrich: ExtendedDetails(time.Now),
	}
}

// UserPolicy draws pages from q, failing once the window's budget is spent
// and silently shrinking larger requests to what is left.
func UserPolicy(q *quota.Quota) Policy {
	return Policy{
		Name:      "user",
		Output:    "user_movies.json",
		ItemDelay: 2 * time.Second,
		PageDelay: 3 * time.Second,
		Budget:    q.Allow,
		PageDone:  q.Consume,
	}
}

// ExtendedDetails returns an Enricher reading rating, cast and director and
// stamping the record with now().
func ExtendedDetails(now func() time.Time) Enricher {
	return func(page pageclient.Client, cfg scraper.DetailConfig, rec *movie.Record) error {
		rating, err := pageText(page, cfg.RatingSelector)
		if err != nil {
			return err
		}
		cast, err := pageTexts(page, cfg.CastSelector)
		if err != nil {
			return err
		}
		director, err := pageText(page, cfg.DirectorSelector)
		if err != nil {
			return err
		}

		details := &movie.Details{
			Rating:   rating,
			Cast:     cast,
			Director: director,
		}
		details.Stamp(now())
		rec.Details = details
		return nil
	}
}
