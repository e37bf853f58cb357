package pipeline

import "github.com/couchcryptid/airmen-search-service/internal/domain"

// batch collects person rows for one transactional unit. A repeated join
// key replaces the earlier row in place, so the last row for a person wins.
type batch struct {
	items []domain.BasicRow
	pos   map[string]int
}

func newBatch(size int) *batch {
	return &batch{
		items: make([]domain.BasicRow, 0, size),
		pos:   make(map[string]int, size),
	}
}

func (b *batch) add(row domain.BasicRow) {
	id := joinKey(row)
	if id == "" {
		b.items = append(b.items, row)
		return
	}
	if i, ok := b.pos[id]; ok {
		b.items[i] = row
		return
	}
	b.pos[id] = len(b.items)
	b.items = append(b.items, row)
}

func (b *batch) len() int { return len(b.items) }

func (b *batch) rows() []domain.BasicRow { return b.items }

// idSet tracks the join keys held by batches that may still be running.
type idSet map[string]struct{}

func (s idSet) overlaps(rows []domain.BasicRow) bool {
	for _, row := range rows {
		if _, ok := s[joinKey(row)]; ok {
			return true
		}
	}
	return false
}
