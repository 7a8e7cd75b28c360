package syncstatus

import "context"

// Repository is an append-only log. Entries are never updated or pruned by
// the service.
type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	LatestByType(ctx context.Context, syncType string) (Entry, bool, error)
	List(ctx context.Context, limit int) ([]Entry, error)
}
