package movie

import (
	"slices"
	"time"
)

// ScrapedAtLayout is the wall-clock format used for Details.ScrapedAt.
const ScrapedAtLayout = "2006-01-02 15:04:05"

// Record is one scraped movie. The six base fields are always present in
// the JSON output; Details is only set for privileged sessions and its
// fields are flattened into the same JSON object.
type Record struct {
	Title       string   `json:"title"`
	Poster      string   `json:"poster"`
	Description string   `json:"description"`
	Genre       []string `json:"genre"`
	Year        string   `json:"year"`
	URL         string   `json:"url"`

	*Details
}

// Details holds the extended fields read for admin sessions.
type Details struct {
	Rating    string   `json:"rating"`
	Cast      []string `json:"cast"`
	Director  string   `json:"director"`
	ScrapedAt string   `json:"scraped_at"`
}

// Stamp sets ScrapedAt from t using ScrapedAtLayout.
func (d *Details) Stamp(t time.Time) {
	d.ScrapedAt = t.Format(ScrapedAtLayout)
}

// clone returns a copy of r that shares no slices or Details with it.
func (r Record) clone() Record {
	r.Genre = slices.Clone(r.Genre)
	if r.Details != nil {
		details := *r.Details
		details.Cast = slices.Clone(details.Cast)
		r.Details = &details
	}
	return r
}

// normalize replaces nil slices with empty ones so that they encode as [].
func (r *Record) normalize() {
	if r.Genre == nil {
		r.Genre = []string{}
	}
	if r.Details != nil && r.Details.Cast == nil {
		r.Details.Cast = []string{}
	}
}
