package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL DEFAULT '',
	current_step TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL,
	document_type    TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	content_type     TEXT NOT NULL,
	file_size        INTEGER NOT NULL DEFAULT 0,
	storage_key      TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	detected_type    TEXT NOT NULL DEFAULT '',
	extracted_fields TEXT,
	error            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_documents_session_id ON documents(session_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, userID, firstStep string) (*model.Session, error) {
	sess := &model.Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		CurrentStep: firstStep,
		CreatedAt:   time.Now().UTC(),
	}
	sess.UpdatedAt = sess.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, current_step, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.CurrentStep, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, current_step, created_at, updated_at FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.CurrentStep, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("get session", "session", sessionID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", sessionID)
	}
	return &sess, nil
}

func (s *SQLiteStore) UpdateSessionStep(ctx context.Context, sessionID, step string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET current_step = ?, updated_at = ? WHERE id = ?`,
		step, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session step %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	fields, err := marshalFields(doc.ExtractedFields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, session_id, document_type, file_name, content_type, file_size, storage_key, status, detected_type, extracted_fields, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SessionID, string(doc.DocumentType), doc.FileName, doc.ContentType, doc.FileSize,
		doc.StorageKey, string(doc.Status), doc.DetectedType, fields, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert document")
}

func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, documentID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("get document", "document", documentID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", documentID)
	}
	return doc, nil
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	fields, err := marshalFields(doc.ExtractedFields)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, file_size = ?, detected_type = ?, extracted_fields = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(doc.Status), doc.FileSize, doc.DetectedType, fields, doc.Error, doc.UpdatedAt, doc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document %s", doc.ID)
	}
	return checkRowsAffected(res, "document", doc.ID)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents rows")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return apperr.NotFound("update "+entity, entity, id)
	}
	return nil
}
