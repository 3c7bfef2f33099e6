package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store. Documents are deep-copied on the way in
// and out so callers cannot mutate stored state.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document

	// FailCommit, when set, makes every Commit fail with this error
	// without applying anything.
	FailCommit error
	commits    int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

type memoryBatch struct {
	m      *Memory
	writes []write
}

func (m *Memory) Batch() Batch { return &memoryBatch{m: m} }

func (b *memoryBatch) Set(key string, fields map[string]any) {
	b.writes = append(b.writes, write{key: key, fields: fields})
}

func (b *memoryBatch) Len() int { return len(b.writes) }

func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.m.FailCommit != nil {
		return b.m.FailCommit
	}

	// Stage on copies so a marshal failure leaves the store untouched.
	staged := make(map[string]Document, len(b.writes))
	now := time.Now().UTC()

	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	for _, w := range b.writes {
		patch, err := deepCopy(w.fields)
		if err != nil {
			return fmt.Errorf("copy %s: %w", w.key, err)
		}
		doc, ok := staged[w.key]
		if !ok {
			if cur, exists := b.m.docs[w.key]; exists {
				fields, err := deepCopy(cur.Fields)
				if err != nil {
					return fmt.Errorf("copy %s: %w", w.key, err)
				}
				doc = Document{Key: w.key, Fields: fields}
			} else {
				doc = Document{Key: w.key}
			}
		}
		doc.Fields = Merge(doc.Fields, patch)
		doc.UpdatedAt = now
		staged[w.key] = doc
	}

	for k, d := range staged {
		b.m.docs[k] = d
	}
	b.m.commits++
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, err := deepCopy(d.Fields)
	if err != nil {
		return Document{}, err
	}
	d.Fields = fields
	return d, nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Document, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	docs := make([]Document, 0, len(keys))
	for _, k := range keys {
		d, err := m.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Len reports the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Commits reports how many batches were committed.
func (m *Memory) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }

// deepCopy round-trips through JSON, which also normalizes numbers to
// float64 the way the persistent backends return them.
func deepCopy(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
