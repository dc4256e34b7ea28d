package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoredPaper is a rendered PDF held for download.
type StoredPaper struct {
	ID        string
	Filename  string
	PDF       []byte
	CreatedAt time.Time
}

// PaperStore keeps the most recent rendered papers. When full, the
// oldest entry is evicted. Papers are only served back for download.
type PaperStore struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]StoredPaper
	now   func() time.Time
}

// NewPaperStore returns a store holding at most limit papers.
func NewPaperStore(limit int) *PaperStore {
	if limit <= 0 {
		limit = 1
	}
	return &PaperStore{
		limit: limit,
		items: make(map[string]StoredPaper, limit),
		now:   time.Now,
	}
}

// Put stores pdf under a new id and returns it.
func (s *PaperStore) Put(filename string, pdf []byte) StoredPaper {
	p := StoredPaper{
		ID:        uuid.NewString(),
		Filename:  filename,
		PDF:       pdf,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.limit {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	s.order = append(s.order, p.ID)
	s.items[p.ID] = p
	return p
}

// Get returns the paper stored under id.
func (s *PaperStore) Get(id string) (StoredPaper, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	return p, ok
}

// Len returns the number of stored papers.
func (s *PaperStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
