// Package docstore is a SQLite-backed implementation of the remote
// document-store contract. It stands in for the hosted store during
// development and in tests: ids, timestamps and insertion sequences are
// assigned server-side, and every subscriber receives the full ordered
// record set of its collection after each mutation.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a local document store over a single SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu      sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

type subscription struct {
	path string
	fn   feed.SnapshotFunc
}

// Open creates a store backed by the SQLite file at path, with WAL mode and
// the usual pragmas.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger,
		subs:   make(map[int]*subscription),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds a record to the collection, assigning id, creation timestamp
// and insertion sequence, then notifies the collection's subscribers.
func (s *Store) Append(ctx context.Context, collectionPath string, rec chat.Record) (string, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, path, content, created_time, from_party, is_qa, is_useful)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, collectionPath, rec.Content, now, rec.From, rec.IsQA, rec.IsUseful)
	if err != nil {
		return "", fmt.Errorf("append record: %w", err)
	}
	s.notify(collectionPath)
	return id, nil
}

// UpdateField sets a single field on one record and notifies the
// collection's subscribers. Only fields of the message wire shape are
// addressable.
func (s *Store) UpdateField(ctx context.Context, collectionPath, id, field string, value any) error {
	column, ok := map[string]string{
		"content":  "content",
		"isUseful": "is_useful",
		"isQA":     "is_qa",
	}[field]
	if !ok {
		return fmt.Errorf("update field: unknown field %q", field)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE records SET %s = ? WHERE path = ? AND id = ?`, column),
		value, collectionPath, id)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update field: record %s not found", id)
	}
	s.notify(collectionPath)
	return nil
}

// SubscribeOrdered registers a snapshot subscriber for a collection. The
// current ordered record set is delivered before SubscribeOrdered returns;
// subsequent snapshots follow each mutation. Cancel stops deliveries.
func (s *Store) SubscribeOrdered(collectionPath, orderKey string, fn feed.SnapshotFunc) (func(), error) {
	if orderKey != feed.OrderKey {
		return nil, fmt.Errorf("subscribe: unsupported order key %q", orderKey)
	}

	records, err := s.readOrdered(collectionPath)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscription{path: collectionPath, fn: fn}
	s.mu.Unlock()

	fn(records)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

func (s *Store) notify(collectionPath string) {
	records, err := s.readOrdered(collectionPath)
	if err != nil {
		s.logger.Error("snapshot read failed", zap.String("path", collectionPath), zap.Error(err))
		return
	}

	s.mu.Lock()
	var fns []feed.SnapshotFunc
	for _, sub := range s.subs {
		if sub.path == collectionPath {
			fns = append(fns, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(records)
	}
}

func (s *Store) readOrdered(collectionPath string) ([]chat.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, content, created_time, seq, from_party, is_qa, is_useful
		FROM records
		WHERE path = ?
		ORDER BY created_time ASC, seq ASC`, collectionPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []chat.Record
	for rows.Next() {
		var r chat.Record
		if err := rows.Scan(&r.ID, &r.Content, &r.CreatedTime, &r.Seq, &r.From, &r.IsQA, &r.IsUseful); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
