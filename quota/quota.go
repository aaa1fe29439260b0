// Package quota limits how many listing pages a caller may scrape within a
// rolling window.
package quota

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultBudget is the number of pages allowed per window.
	DefaultBudget = 2
	// DefaultWindow is the length of a quota window.
	DefaultWindow = 24 * time.Hour
)

// ErrQuotaExceeded is returned once the window's page budget is spent.
var ErrQuotaExceeded = errors.New("daily scraping limit reached, please try again tomorrow")

// State is the persisted part of a Quota.
type State struct {
	Used      int
	LastReset time.Time
}

// StateStore loads and saves quota state. Load reports false when nothing
// was saved yet.
type StateStore interface {
	Load() (State, bool, error)
	Save(State) error
}

// Options configures a Quota. Zero values fall back to the defaults and an
// in-memory store.
type Options struct {
	Budget int
	Window time.Duration
	Store  StateStore
	Now    func() time.Time
}

// Quota counts consumed pages and resets the count once more than Window
// has elapsed since the last reset.
type Quota struct {
	budget int
	window time.Duration
	store  StateStore
	now    func() time.Time
	state  State
}

// New creates a Quota, restoring saved state from the store if any.
func New(opts Options) (*Quota, error) {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}

	q := &Quota{
		budget: opts.Budget,
		window: opts.Window,
		store:  opts.Store,
		now:    opts.Now,
	}

	state, ok, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load quota state: %w", err)
	}
	if ok {
		q.state = state
	} else {
		q.state = State{LastReset: q.now()}
	}
	return q, nil
}

// Budget returns the pages allowed per window.
func (q *Quota) Budget() int {
	return q.budget
}

// Used returns the pages consumed in the current window.
func (q *Quota) Used() int {
	return q.state.Used
}

// LastReset returns when the current window started.
func (q *Quota) LastReset() time.Time {
	return q.state.LastReset
}

// MaybeReset starts a new window when strictly more than the window length
// has passed since the last reset. It reports whether a reset happened.
func (q *Quota) MaybeReset() (bool, error) {
	now := q.now()
	if now.Sub(q.state.LastReset) <= q.window {
		return false, nil
	}

	q.state = State{Used: 0, LastReset: now}
	if err := q.store.Save(q.state); err != nil {
		return true, fmt.Errorf("failed to save quota state: %w", err)
	}
	return true, nil
}

// Check fails with ErrQuotaExceeded when the budget of the current window
// is already spent.
func (q *Quota) Check() error {
	if _, err := q.MaybeReset(); err != nil {
		return err
	}
	if q.state.Used >= q.budget {
		return ErrQuotaExceeded
	}
	return nil
}

// Allow checks the quota and clamps requested to the pages left in the
// window.
func (q *Quota) Allow(requested int) (int, error) {
	if err := q.Check(); err != nil {
		return 0, err
	}
	return min(requested, q.budget-q.state.Used), nil
}

// Consume records one completed page.
func (q *Quota) Consume() error {
	q.state.Used++
	if err := q.store.Save(q.state); err != nil {
		return fmt.Errorf("failed to save quota state: %w", err)
	}
	return nil
}

// MemoryStore keeps quota state for the lifetime of the process only.
type MemoryStore struct {
	state State
	saved bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (State, bool, error) {
	return m.state, m.saved, nil
}

func (m *MemoryStore) Save(s State) error {
	m.state = s
	m.saved = true
	return nil
}
