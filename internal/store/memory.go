package store

import (
	"context"
	"sort"
	"sync"
)

type txKey struct{}

// Memory is an in-process Backend used by tests and by the indexer when no
// database is configured. Transactions are implemented by snapshotting the
// whole table and restoring it when fn fails.
type Memory struct {
	mu      sync.Mutex
	records map[string]map[string]*Record
	seq     int64
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string]*Record)}
}

func (m *Memory) Get(_ context.Context, kind, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.records[rec.Kind]
	if !ok {
		table = make(map[string]*Record)
		m.records[rec.Kind] = table
	}

	cp := *rec
	cp.Data = append([]byte(nil), rec.Data...)
	if existing, ok := table[rec.ID]; ok {
		cp.Seq = existing.Seq
	} else {
		m.seq++
		cp.Seq = m.seq
	}
	table[rec.ID] = &cp
	return nil
}

func (m *Memory) Delete(_ context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records[kind], id)
	return nil
}

func (m *Memory) Children(_ context.Context, kind, parent string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Record
	for _, rec := range m.records[kind] {
		if rec.Parent == parent {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sortBySeq(out)
	return out, nil
}

func (m *Memory) List(_ context.Context, kind string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Record, 0, len(m.records[kind]))
	for _, rec := range m.records[kind] {
		cp := *rec
		out = append(out, &cp)
	}
	sortBySeq(out)
	return out, nil
}

func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	snapshot := m.snapshot()
	seq := m.seq
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.mu.Lock()
		m.records = snapshot
		m.seq = seq
		m.mu.Unlock()
		return err
	}
	return nil
}

// Count returns how many records of kind are stored.
func (m *Memory) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[kind])
}

func (m *Memory) snapshot() map[string]map[string]*Record {
	out := make(map[string]map[string]*Record, len(m.records))
	for kind, table := range m.records {
		cp := make(map[string]*Record, len(table))
		for id, rec := range table {
			cp[id] = rec
		}
		out[kind] = cp
	}
	return out
}

func sortBySeq(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
}
