package services

import (
	"context"
	"sort"
	"sync"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

// TableRegistry is the in-memory view of tables and terminals. SessionActive
// is derived from the session rows on every Sync and kept current by the
// session service between syncs.
type TableRegistry struct {
	store  store.Store
	mu     sync.RWMutex
	tables map[string]models.Table
}

func NewTableRegistry(s store.Store) *TableRegistry {
	return &TableRegistry{
		store:  s,
		tables: make(map[string]models.Table),
	}
}

// Sync reloads every table and recomputes SessionActive from the store.
func (r *TableRegistry) Sync(ctx context.Context) error {
	tables, err := r.store.ListTables(ctx)
	if err != nil {
		return err
	}
	active, err := r.store.ActiveTableIDs(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]models.Table, len(tables))
	for _, t := range tables {
		t.SessionActive = active[t.TableID]
		next[t.TableID] = t
	}

	r.mu.Lock()
	r.tables = next
	r.mu.Unlock()
	return nil
}

func (r *TableRegistry) Get(tableID string) (models.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[tableID]
	return t, ok
}

func (r *TableRegistry) List() []models.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableID < tables[j].TableID })
	return tables
}

// Terminals lists terminal tables, optionally only those with a live session.
func (r *TableRegistry) Terminals(activeOnly bool) []models.Table {
	var terminals []models.Table
	for _, t := range r.List() {
		if !t.IsTerminal() || (activeOnly && !t.SessionActive) {
			continue
		}
		terminals = append(terminals, t)
	}
	return terminals
}

func (r *TableRegistry) Put(t models.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.tables[t.TableID]; ok {
		t.SessionActive = prev.SessionActive
	}
	r.tables[t.TableID] = t
}

func (r *TableRegistry) Remove(tableID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, tableID)
}

func (r *TableRegistry) SetSessionActive(tableID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[tableID]; ok {
		t.SessionActive = active
		r.tables[tableID] = t
	}
}
