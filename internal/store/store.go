// Package store defines the document-store capability the publish writer
// depends on: batched merge writes committed atomically, plus the reads the
// API serves. Backends live in subpackages; Memory is the in-process one.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no document has the key.
var ErrNotFound = errors.New("document not found")

// Document is one stored document.
type Document struct {
	Key       string         `json:"id"`
	Fields    map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Batch collects merge writes. Nothing is visible until Commit, and Commit
// applies every write or none.
type Batch interface {
	// Set queues a merge of fields into the document at key. Fields absent
	// from the write are left untouched; nested objects merge recursively.
	Set(key string, fields map[string]any)
	Len() int
	Commit(ctx context.Context) error
}

// Store is a keyed document store.
type Store interface {
	Batch() Batch
	Get(ctx context.Context, key string) (Document, error)
	// List returns documents whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Document, error)
	Ping(ctx context.Context) error
	Close() error
}

// Merge deep-merges src into dst and returns dst. Nested maps merge key by
// key; every other value (scalars, arrays) in src replaces the one in dst.
// A nil dst is allocated.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = Merge(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			dst[k] = Merge(nil, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}

// write is a queued Set shared by the backends.
type write struct {
	key    string
	fields map[string]any
}
