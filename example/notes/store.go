package main

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}

type store struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]Note
}

func newStore() *store {
	return &store{notes: make(map[uuid.UUID]Note)}
}

// list returns one page of notes matching q, newest first, and the total
// number of matches.
func (s *store) list(q string, limit, offset int) ([]Note, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Note
	for _, n := range s.notes {
		if q == "" || strings.Contains(strings.ToLower(n.Title+" "+n.Body), strings.ToLower(q)) {
			matched = append(matched, n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset < 0 || offset >= total {
		return nil, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return matched[offset:end], total
}

func (s *store) get(id uuid.UUID) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	return n, ok
}

func (s *store) save(n Note) Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
		n.CreatedAt = time.Now().UTC()
	}
	s.notes[n.ID] = n
	return n
}

func (s *store) delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return false
	}
	delete(s.notes, id)
	return true
}
