// Package postgres is the primary document store: one JSONB row per
// document in a shared table, scoped by collection. Batches commit inside a
// single transaction and merge into existing rows with jsonb_merge_deep, so
// fields the pipeline does not write survive every run.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/store"
)

// Store wraps pgxpool.Pool with the document-store operations.
type Store struct {
	pool       *pgxpool.Pool
	collection string
}

var _ store.Store = (*Store)(nil)

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, collection: cfg.Collection}, nil
}

// Ping runs a trivial query to verify the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, "health_check").Scan(&n)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

type batch struct {
	s      *Store
	keys   []string
	bodies [][]byte
	err    error
}

func (s *Store) Batch() store.Batch { return &batch{s: s} }

func (b *batch) Set(key string, fields map[string]any) {
	body, err := json.Marshal(fields)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("encode %s: %w", key, err)
	}
	b.keys = append(b.keys, key)
	b.bodies = append(b.bodies, body)
}

func (b *batch) Len() int { return len(b.keys) }

// Commit sends every upsert in one pgx.Batch inside one transaction. Any
// failed statement rolls the whole batch back.
func (b *batch) Commit(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}

	return pgx.BeginFunc(ctx, b.s.pool, func(tx pgx.Tx) error {
		pb := &pgx.Batch{}
		for i, key := range b.keys {
			pb.Queue("upsert_document", b.s.collection, key, b.bodies[i])
		}
		br := tx.SendBatch(ctx, pb)
		for _, key := range b.keys {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return br.Close()
	})
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	var (
		body []byte
		doc  = store.Document{Key: key}
	)
	err := s.pool.QueryRow(ctx, "get_document", s.collection, key).Scan(&body, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(body, &doc.Fields); err != nil {
		return store.Document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Document, error) {
	rows, err := s.pool.Query(ctx, "list_documents", s.collection, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var (
			doc  store.Document
			body []byte
		)
		if err := rows.Scan(&doc.Key, &body, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(body, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Key, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// registerPreparedStatements registers the statements the writer and the API
// use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		"health_check": "SELECT 1",

		"upsert_document": `INSERT INTO documents (collection, id, data, updated_at)
			VALUES ($1, $2, $3::jsonb, now())
			ON CONFLICT (collection, id) DO UPDATE
			SET data = jsonb_merge_deep(documents.data, EXCLUDED.data), updated_at = now()`,

		"get_document": "SELECT data, updated_at FROM documents WHERE collection = $1 AND id = $2",

		// starts_with keeps '_' and '%' in keys literal.
		"list_documents": "SELECT id, data, updated_at FROM documents WHERE collection = $1 AND starts_with(id, $2) ORDER BY id",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
