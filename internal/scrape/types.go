// Package scrape defines the core types and interfaces for the address
// harvesting engine: listings, scrape sessions, fetch targets, and the
// contracts between the orchestrator and its collaborators.
package scrape

import (
	"time"
)

// SessionStatus is the terminal outcome of one orchestration run.
type SessionStatus string

// Session status values persisted in the session store.
const (
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Listing is one deduplicated physical address observed on a source.
// Fingerprint is unique across all listings; IsExported and LastUpdated are
// the only fields mutated after creation.
type Listing struct {
	ID            int64     `json:"id"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Zip           string    `json:"zip_code"`
	ListingURL    string    `json:"listing_url"`
	SourceWebsite string    `json:"source_website"`
	ScrapedAt     time.Time `json:"scraped_at"`
	LastUpdated   time.Time `json:"last_updated"`
	Fingerprint   string    `json:"fingerprint"`
	IsExported    bool      `json:"is_exported"`
	Notes         string    `json:"notes,omitempty"`
}

// Session is the audit record written exactly once per orchestration run.
type Session struct {
	ID                 int64         `json:"id"`
	SourceWebsite      string        `json:"source_website"`
	ScrapeStart        time.Time     `json:"scrape_start"`
	ScrapeEnd          time.Time     `json:"scrape_end"`
	ListingsFound      int           `json:"listings_found"`
	ListingsNew        int           `json:"listings_new"`
	ListingsDuplicates int           `json:"listings_duplicates"`
	Errors             int           `json:"errors"`
	Status             SessionStatus `json:"status"`
	ErrorMessage       string        `json:"error_message,omitempty"`
}

// RawCandidate is an unvalidated address produced by an Extractor.
// Any field may be empty; candidates are discarded after normalization.
type RawCandidate struct {
	Street     string
	City       string
	State      string
	Zip        string
	ListingURL string
}

// Target is one fetchable unit discovered for a source.
type Target struct {
	URL         string
	UseHeadless bool
}

// SourceConfig captures the per-source knobs consumed by the orchestrator.
// Zero values fall back to source-specific built-ins.
type SourceConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MinDelay      time.Duration `mapstructure:"min_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	Jitter        bool          `mapstructure:"jitter"`
	MaxListings   int           `mapstructure:"max_listings"`
	MaxPages      int           `mapstructure:"max_pages"`
	AllowedStates []string      `mapstructure:"allowed_states"`
	StartURLs     []string      `mapstructure:"start_urls"`
	UseHeadless   bool          `mapstructure:"use_headless"`
}

// StateAllowed reports whether a normalized 2-letter state code passes the
// allowed-states filter. An empty filter allows every state.
func (c SourceConfig) StateAllowed(state string) bool {
	if len(c.AllowedStates) == 0 {
		return true
	}
	for _, allowed := range c.AllowedStates {
		if state == allowed {
			return true
		}
	}
	return false
}

// RunCounters tracks per-run aggregates fed into the session record.
type RunCounters struct {
	Found      int
	New        int
	Duplicates int
	Errors     int
}

// ListingFilter narrows ListingStore queries. A nil Exported means both
// exported and not-yet-exported rows.
type ListingFilter struct {
	Source   string
	Exported *bool
	Limit    int
	Offset   int
}

// FetchRequest captures everything needed to fetch a target.
type FetchRequest struct {
	URL         string
	UseHeadless bool
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// RunEvent is published after a run's session record has been written.
type RunEvent struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	Status     SessionStatus `json:"status"`
	Found      int           `json:"found"`
	New        int           `json:"new"`
	Duplicates int           `json:"duplicates"`
	Errors     int           `json:"errors"`
	FinishedAt time.Time     `json:"finished_at"`
}
