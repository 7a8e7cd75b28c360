package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
	"github.com/anto2887/prediction-league/internal/platform/id"
)

type SyncStatusRepository struct {
	mu    sync.RWMutex
	idGen id.Generator
	items []syncstatus.Entry
}

func NewSyncStatusRepository(idGen id.Generator) *SyncStatusRepository {
	return &SyncStatusRepository{idGen: idGen}
}

func (r *SyncStatusRepository) Append(_ context.Context, entry syncstatus.Entry) (syncstatus.Entry, error) {
	newID, err := r.idGen.NewID()
	if err != nil {
		return syncstatus.Entry{}, fmt.Errorf("generate sync status id: %w", err)
	}
	entry.ID = newID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, entry)
	return entry, nil
}

func (r *SyncStatusRepository) LatestByType(_ context.Context, syncType string) (syncstatus.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].SyncType == syncType {
			return r.items[i], true, nil
		}
	}
	return syncstatus.Entry{}, false, nil
}

func (r *SyncStatusRepository) List(_ context.Context, limit int) ([]syncstatus.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]syncstatus.Entry, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
