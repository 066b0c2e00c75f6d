package store

import (
	"context"
	"slices"
)

// TableListener is called after a write changed rows of a table.
type TableListener func(ctx context.Context, table string)

// AnyTable subscribes a listener to every table.
const AnyTable = ""

// AddTableListener registers fn for changes to table, or to every table when
// table is AnyTable. The returned func removes the listener; calling it more
// than once is harmless.
func (s *Store) AddTableListener(table string, fn TableListener) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.listeners[table] == nil {
		s.listeners[table] = make(map[int]TableListener)
	}
	s.listeners[table][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[table], id)
		if len(s.listeners[table]) == 0 {
			delete(s.listeners, table)
		}
	}
}

// notify calls the listeners of table and of AnyTable in registration order.
// Listeners run outside the lock so they may read, write or (un)register.
func (s *Store) notify(ctx context.Context, table string) {
	s.mu.RLock()
	type entry struct {
		id int
		fn TableListener
	}
	var pending []entry
	for _, key := range []string{table, AnyTable} {
		for id, fn := range s.listeners[key] {
			pending = append(pending, entry{id, fn})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(pending, func(a, b entry) int { return a.id - b.id })
	for _, e := range pending {
		e.fn(ctx, table)
	}
}
