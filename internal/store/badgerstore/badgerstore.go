// Package badgerstore is an embedded document store for local runs. Each
// document is a badgerhold entry holding its JSON body; a batch commits as
// a single badger read-merge-write transaction.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/albapepper/futbol-tracker/internal/store"
)

// entry is the persisted shape of one document.
type entry struct {
	Key        string `badgerhold:"key"`
	Collection string
	ID         string
	Body       []byte
	UpdatedAt  time.Time
}

// Store is a badgerhold-backed store.Store.
type Store struct {
	db         *badgerhold.Store
	collection string
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database directory at path.
func Open(path, collection string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

func (s *Store) key(id string) string { return s.collection + "/" + id }

type batch struct {
	s      *Store
	writes []pending
}

type pending struct {
	id     string
	fields map[string]any
}

func (s *Store) Batch() store.Batch { return &batch{s: s} }

func (b *batch) Set(key string, fields map[string]any) {
	b.writes = append(b.writes, pending{id: key, fields: fields})
}

func (b *batch) Len() int { return len(b.writes) }

// Commit reads, merges and writes every document in one transaction.
func (b *batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	db := b.s.db

	return db.Badger().Update(func(tx *badger.Txn) error {
		for _, w := range b.writes {
			k := b.s.key(w.id)

			var cur entry
			var fields map[string]any
			err := db.TxGet(tx, k, &cur)
			switch {
			case errors.Is(err, badgerhold.ErrNotFound):
			case err != nil:
				return fmt.Errorf("read %s: %w", w.id, err)
			default:
				if err := json.Unmarshal(cur.Body, &fields); err != nil {
					return fmt.Errorf("decode %s: %w", w.id, err)
				}
			}

			// Round-trip the patch so nested values are plain maps.
			patch, err := json.Marshal(w.fields)
			if err != nil {
				return fmt.Errorf("encode %s: %w", w.id, err)
			}
			var src map[string]any
			if err := json.Unmarshal(patch, &src); err != nil {
				return fmt.Errorf("encode %s: %w", w.id, err)
			}

			body, err := json.Marshal(store.Merge(fields, src))
			if err != nil {
				return fmt.Errorf("encode %s: %w", w.id, err)
			}
			e := entry{Key: k, Collection: b.s.collection, ID: w.id, Body: body, UpdatedAt: now}
			if err := db.TxUpsert(tx, k, &e); err != nil {
				return fmt.Errorf("write %s: %w", w.id, err)
			}
		}
		return nil
	})
}

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	var e entry
	err := s.db.Get(s.key(key), &e)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(e)
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Document, error) {
	var entries []entry
	if err := s.db.Find(&entries, badgerhold.Where("Collection").Eq(s.collection)); err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	docs := make([]store.Document, 0, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, prefix) {
			continue
		}
		d, err := decode(e)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.Badger().IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func decode(e entry) (store.Document, error) {
	d := store.Document{Key: e.ID, UpdatedAt: e.UpdatedAt}
	if err := json.Unmarshal(e.Body, &d.Fields); err != nil {
		return store.Document{}, fmt.Errorf("decode %s: %w", e.ID, err)
	}
	return d, nil
}
