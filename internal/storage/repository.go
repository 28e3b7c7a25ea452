package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; transactions never wait on a second connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Queries returns the non-transactional query set.
func (r *SQLiteRepository) Queries() *Queries {
	return r.queries
}

// WithTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back otherwise. fn must only use the Queries it is
// handed: the pool holds a single connection.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NotFound maps sql.ErrNoRows to ErrNotFound and wraps everything else
// with op.
func NotFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FindOrCreateTag resolves name to a live family tag, creating it when
// missing. The insert is idempotent so concurrent callers converge on the
// same row.
func (q *Queries) FindOrCreateTag(ctx context.Context, arg TagKey) (Tag, error) {
	if err := q.InsertTag(ctx, arg); err != nil {
		return Tag{}, fmt.Errorf("insert tag %q: %w", arg.Name, err)
	}
	tag, err := q.GetTagByName(ctx, arg)
	if err != nil {
		return Tag{}, NotFound("get tag "+arg.Name, err)
	}
	return tag, nil
}

// ReplaceTags sets the transaction's tags to exactly names.
func (q *Queries) ReplaceTags(ctx context.Context, familyID, transactionID int64, names []string) ([]Tag, error) {
	if err := q.DetachTags(ctx, transactionID); err != nil {
		return nil, fmt.Errorf("detach tags: %w", err)
	}
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		tag, err := q.FindOrCreateTag(ctx, TagKey{FamilyID: familyID, Name: name})
		if err != nil {
			return nil, err
		}
		if err := q.AttachTag(ctx, AttachTagParams{TransactionID: transactionID, TagID: tag.ID}); err != nil {
			return nil, fmt.Errorf("attach tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
