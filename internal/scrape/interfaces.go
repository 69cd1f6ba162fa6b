package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves the content of a single target.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor is the per-source collaborator contract. Discover enumerates the
// fetch targets for one run (bounded by a hard page ceiling); Extract pulls
// raw address candidates out of fetched content. The orchestrator never
// inspects which concrete source it is driving.
type Extractor interface {
	Source() string
	Discover(ctx context.Context, cfg SourceConfig) ([]Target, error)
	Extract(content []byte, target Target) ([]RawCandidate, error)
}

// ListingStore persists deduplicated listings keyed by fingerprint.
type ListingStore interface {
	// Insert writes one listing; a fingerprint collision is not an error and
	// returns inserted=false.
	Insert(ctx context.Context, listing Listing) (inserted bool, err error)
	// BulkInsert inserts a batch and reports (new, duplicates).
	BulkInsert(ctx context.Context, listings []Listing) (newCount, dupCount int, err error)
	List(ctx context.Context, filter ListingFilter) ([]Listing, error)
	Count(ctx context.Context, source string) (int, error)
	// MarkExported sets the exported flag and refreshes last_updated. It is
	// never triggered implicitly by export.
	MarkExported(ctx context.Context, ids []int64) error
	ClearAll(ctx context.Context) error
}

// SessionStore is the append-only run audit log.
type SessionStore interface {
	Record(ctx context.Context, session Session) (int64, error)
	History(ctx context.Context, source string, limit int) ([]Session, error)
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run-completion events to a message bus (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
