package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mkravets/roomwire-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	age        INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== IdentityStore implementation ====

// CreateIdentity persists a freshly issued identity.
func (s *SQLiteStore) CreateIdentity(ctx context.Context, id string) error {
	query := `INSERT INTO identities (id) VALUES (?)`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// GetIdentity retrieves an identity by id.
func (s *SQLiteStore) GetIdentity(ctx context.Context, id string) (*store.Identity, error) {
	query := `SELECT id, created_at FROM identities WHERE id = ?`

	var ident store.Identity
	err := s.db.QueryRowContext(ctx, query, id).Scan(&ident.ID, &ident.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select identity: %w", err)
	}
	return &ident, nil
}

// DeleteIdentitiesBefore removes identities issued before the cutoff.
func (s *SQLiteStore) DeleteIdentitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM identities WHERE created_at < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete identities: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ==== DocumentStore implementation ====

// SaveDocument persists a document and fills in its id.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *store.Document) error {
	query := `INSERT INTO documents (name, age) VALUES (?, ?)`

	result, err := s.db.ExecContext(ctx, query, doc.Name, doc.Age)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	doc.ID = id
	return nil
}

// ListDocuments retrieves all stored documents.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	query := `SELECT id, name, age, created_at FROM documents ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var docs []*store.Document
	for rows.Next() {
		var doc store.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Age, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
