package audit

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tables whose archives the memory backend keeps before evicting the least
// recently written one.
const memoryTableCapacity = 1024

type MemoryService struct {
	mu          sync.Mutex
	tables      *lru.Cache[string, []HandRecord]
	recentLimit int
}

func NewMemoryService(recentLimit int) (*MemoryService, error) {
	cache, err := lru.New[string, []HandRecord](memoryTableCapacity)
	if err != nil {
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &MemoryService{tables: cache, recentLimit: recentLimit}, nil
}

func (s *MemoryService) Close() error {
	s.tables.Purge()
	return nil
}

func (s *MemoryService) RecordHand(_ context.Context, rec HandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.tables.Get(rec.TableID)
	records = append(records, rec)
	if over := len(records) - s.recentLimit; over > 0 {
		records = append([]HandRecord(nil), records[over:]...)
	}
	s.tables.Add(rec.TableID, records)
	return nil
}

func (s *MemoryService) ListRecent(_ context.Context, tableID string, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)

	s.mu.Lock()
	records, _ := s.tables.Peek(tableID)
	s.mu.Unlock()

	out := make([]HandRecord, 0, min(limit, len(records)))
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return out, nil
}
