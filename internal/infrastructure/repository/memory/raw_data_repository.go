package memory

import (
	"context"
	"sync"

	"github.com/anto2887/prediction-league/internal/domain/rawdata"
)

type RawDataRepository struct {
	mu    sync.Mutex
	items map[string]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{items: make(map[string]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		key := item.Source + "|" + item.Endpoint + "|" + item.PayloadHash
		r.items[key] = item
	}
	return nil
}

// Count reports stored payloads; used by tests.
func (r *RawDataRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
