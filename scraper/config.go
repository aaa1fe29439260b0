package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the site scraped when no base URL is configured.
const DefaultBaseURL = "https://moviebox.ng"

// DefaultListingPath is appended to the base URL; %d is the page number.
const DefaultListingPath = "/movies/page/%d"

// SiteConfig defines where listing pages live and how to extract movies
// from listing and detail pages.
type SiteConfig struct {
	BaseURL      string       `yaml:"base_url" json:"base_url"`
	ListingPath  string       `yaml:"listing_path" json:"listing_path"`
	ListConfig   ListConfig   `yaml:"list" json:"list"`
	DetailConfig DetailConfig `yaml:"detail" json:"detail"`
}

// ListConfig defines how to read movie cards from a listing page.
type ListConfig struct {
	CardSelector   string `yaml:"card_selector" json:"card_selector"`
	TitleSelector  string `yaml:"title_selector" json:"title_selector"`
	PosterSelector string `yaml:"poster_selector" json:"poster_selector"`
	PosterAttr     string `yaml:"poster_attr" json:"poster_attr"`
	LinkSelector   string `yaml:"link_selector" json:"link_selector"`
	LinkAttr       string `yaml:"link_attr" json:"link_attr"`
}

// DetailConfig defines how to read a movie's detail page. Rating, cast and
// director are only read for extended (admin) sessions.
type DetailConfig struct {
	ReadySelector       string `yaml:"ready_selector" json:"ready_selector"`
	DescriptionSelector string `yaml:"description_selector" json:"description_selector"`
	GenreSelector       string `yaml:"genre_selector" json:"genre_selector"`
	YearSelector        string `yaml:"year_selector" json:"year_selector"`
	RatingSelector      string `yaml:"rating_selector" json:"rating_selector"`
	CastSelector        string `yaml:"cast_selector" json:"cast_selector"`
	DirectorSelector    string `yaml:"director_selector" json:"director_selector"`
}

// NewSiteConfig returns the selectors used by the moviebox layout.
func NewSiteConfig() SiteConfig {
	return SiteConfig{
		BaseURL:     DefaultBaseURL,
		ListingPath: DefaultListingPath,
		ListConfig: ListConfig{
			CardSelector:   ".movie-card",
			TitleSelector:  ".movie-title",
			PosterSelector: "img",
			PosterAttr:     "src",
			LinkSelector:   "a",
			LinkAttr:       "href",
		},
		DetailConfig: DetailConfig{
			ReadySelector:       ".movie-details",
			DescriptionSelector: ".movie-description",
			GenreSelector:       ".genre-tag",
			YearSelector:        ".release-year",
			RatingSelector:      ".movie-rating",
			CastSelector:        ".cast-member",
			DirectorSelector:    ".director",
		},
	}
}

// ListingURL returns the URL of the given 1-based listing page.
func (c SiteConfig) ListingURL(page int) string {
	base := strings.TrimRight(c.BaseURL, "/")
	return base + fmt.Sprintf(c.ListingPath, page)
}

// Validate checks that the configuration can drive a session.
func (c SiteConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https scheme")
	}
	if strings.Count(c.ListingPath, "%d") != 1 {
		return fmt.Errorf("listing path %q must contain exactly one %%d", c.ListingPath)
	}

	required := []struct {
		name, value string
	}{
		{"card_selector", c.ListConfig.CardSelector},
		{"title_selector", c.ListConfig.TitleSelector},
		{"poster_selector", c.ListConfig.PosterSelector},
		{"poster_attr", c.ListConfig.PosterAttr},
		{"link_selector", c.ListConfig.LinkSelector},
		{"link_attr", c.ListConfig.LinkAttr},
		{"ready_selector", c.DetailConfig.ReadySelector},
		{"description_selector", c.DetailConfig.DescriptionSelector},
		{"genre_selector", c.DetailConfig.GenreSelector},
		{"year_selector", c.DetailConfig.YearSelector},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	return nil
}

// ResolveLink makes a card link absolute relative to the page it was found
// on.
func ResolveLink(pageURL, link string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", link, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}
