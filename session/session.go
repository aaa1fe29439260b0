// Package session drives a scrape session: it walks listing pages in
// order, follows every movie card to its detail page and collects the
// results. What differs between public, admin and user sessions is
// expressed as a Policy.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pevans/moviescraper/movie"
	"github.com/pevans/moviescraper/pageclient"
	"github.com/pevans/moviescraper/scraper"
)

// Sleeper pauses between requests. It returns early with ctx.Err() when ctx
// is cancelled.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures a Controller.
type Options struct {
	Site        scraper.SiteConfig
	Policy      Policy
	Open        pageclient.Opener
	Logger      zerolog.Logger
	WaitTimeout time.Duration
	// Sleep defaults to Sleep; tests substitute a recorder.
	Sleep Sleeper
}

// Request is one call to Run.
type Request struct {
	Pages int
	Key   string
}

// Result is what a successful Run produced.
type Result struct {
	RunID    uuid.UUID
	Pages    int
	Store    *movie.Store
	Failures []*ItemError
}

// Records returns the scraped movies in the order they were found.
func (r *Result) Records() []movie.Record {
	return r.Store.Records()
}

// Controller runs scrape sessions under one policy.
type Controller struct {
	site        scraper.SiteConfig
	policy      Policy
	open        pageclient.Opener
	logger      zerolog.Logger
	waitTimeout time.Duration
	sleep       Sleeper
}

// New creates a Controller.
func New(opts Options) (*Controller, error) {
	if err := opts.Site.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site config: %w", err)
	}
	if opts.Open == nil {
		return nil, errors.New("page client opener is required")
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = pageclient.DefaultWaitTimeout
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}

	return &Controller{
		site:        opts.Site,
		policy:      opts.Policy,
		open:        opts.Open,
		logger:      opts.Logger,
		waitTimeout: opts.WaitTimeout,
		sleep:       opts.Sleep,
	}, nil
}

// Run scrapes up to req.Pages listing pages, as far as the policy allows.
// Access and quota checks happen before a page client is opened. A movie
// that cannot be extracted is logged and skipped; any other failure aborts
// the session and no result is returned.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.New()
	log := c.logger.With().
		Str("run_id", runID.String()).
		Str("policy", c.policy.Name).
		Logger()

	if c.policy.Authorize != nil {
		if err := c.policy.Authorize(req.Key); err != nil {
			log.Error().Err(err).Msg("session refused")
			return nil, err
		}
	}

	pages := max(req.Pages, 0)
	if c.policy.Budget != nil {
		var err error
		pages, err = c.policy.Budget(pages)
		if err != nil {
			log.Error().Err(err).Int("requested", req.Pages).Msg("session refused")
			return nil, err
		}
	}

	log.Info().Int("requested", req.Pages).Int("pages", pages).Msg("starting scrape session")

	client, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close page client")
		}
	}()

	result := &Result{
		RunID: runID,
		Store: movie.NewStore(),
	}

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.scrapePage(ctx, client, page, result, log); err != nil {
			return nil, err
		}
		result.Pages++

		if c.policy.PageDone != nil {
			if err := c.policy.PageDone(); err != nil {
				return nil, err
			}
		}
		if err := c.sleep(ctx, c.policy.PageDelay); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("pages", result.Pages).
		Int("movies", result.Store.Len()).
		Int("failed", len(result.Failures)).
		Msg("scrape session finished")

	return result, nil
}

// scrapePage processes one listing page. Only failures to load the listing
// itself or a cancelled context are returned.
func (c *Controller) scrapePage(ctx context.Context, client pageclient.Client, page int, result *Result, log zerolog.Logger) error {
	listURL := c.site.ListingURL(page)
	cardSelector := c.site.ListConfig.CardSelector

	if err := client.Load(ctx, listURL); err != nil {
		return fmt.Errorf("failed to load listing page %d: %w", page, err)
	}
	if err := client.WaitFor(ctx, cardSelector, c.waitTimeout); err != nil {
		return fmt.Errorf("listing page %d: %w", page, err)
	}
	cards, err := client.QueryAll(cardSelector)
	if err != nil {
		return fmt.Errorf("listing page %d: %w", page, err)
	}
	pageURL := client.URL()

	log.Debug().Int("page", page).Str("url", listURL).Int("cards", len(cards)).Msg("loaded listing page")

	for i, card := range cards {
		rec, itemErr := c.scrapeItem(ctx, client, pageURL, card)
		if itemErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			itemErr.Page = page
			itemErr.Index = i
			result.Failures = append(result.Failures, itemErr)
			log.Warn().
				Err(itemErr.Err).
				Int("page", page).
				Int("index", i).
				Str("stage", itemErr.Stage).
				Str("url", itemErr.URL).
				Msg("failed to scrape movie")
			continue
		}

		result.Store.Append(rec)
		if err := c.sleep(ctx, c.policy.ItemDelay); err != nil {
			return err
		}
	}

	return nil
}

// scrapeItem reads the card's summary fields, then loads its detail page.
func (c *Controller) scrapeItem(ctx context.Context, client pageclient.Client, pageURL string, card pageclient.Element) (movie.Record, *ItemError) {
	lc := c.site.ListConfig
	dc := c.site.DetailConfig

	fail := func(stage, url string, err error) (movie.Record, *ItemError) {
		return movie.Record{}, &ItemError{Stage: stage, URL: url, Err: err}
	}

	title, err := elementText(card, lc.TitleSelector)
	if err != nil {
		return fail(StageListing, "", err)
	}
	poster, err := elementAttr(card, lc.PosterSelector, lc.PosterAttr)
	if err != nil {
		return fail(StageListing, "", err)
	}
	link, err := elementAttr(card, lc.LinkSelector, lc.LinkAttr)
	if err != nil {
		return fail(StageListing, "", err)
	}
	detailURL, err := scraper.ResolveLink(pageURL, link)
	if err != nil {
		return fail(StageListing, "", err)
	}

	if err := client.Load(ctx, detailURL); err != nil {
		return fail(StageDetail, detailURL, err)
	}
	if err := client.WaitFor(ctx, dc.ReadySelector, c.waitTimeout); err != nil {
		return fail(StageDetail, detailURL, err)
	}

	description, err := pageText(client, dc.DescriptionSelector)
	if err != nil {
		return fail(StageDetail, detailURL, err)
	}
	genre, err := pageTexts(client, dc.GenreSelector)
	if err != nil {
		return fail(StageDetail, detailURL, err)
	}
	year, err := pageText(client, dc.YearSelector)
	if err != nil {
		return fail(StageDetail, detailURL, err)
	}

	rec := movie.Record{
		Title:       title,
		Poster:      poster,
		Description: description,
		Genre:       genre,
		Year:        year,
		URL:         detailURL,
	}
	if c.policy.Enrich != nil {
		if err := c.policy.Enrich(client, dc, &rec); err != nil {
			return fail(StageDetail, detailURL, err)
		}
	}

	return rec, nil
}
