package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_session":      `INSERT INTO sessions (id, user_id, current_step, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_session":         `SELECT id, user_id, current_step, created_at, updated_at FROM sessions WHERE id = $1`,
	"update_session_step": `UPDATE sessions SET current_step = $1, updated_at = $2 WHERE id = $3`,
	"get_document":        `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id      TEXT NOT NULL DEFAULT '',
	current_step TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id       TEXT NOT NULL,
	document_type    TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	content_type     TEXT NOT NULL,
	file_size        BIGINT NOT NULL DEFAULT 0,
	storage_key      TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	detected_type    TEXT NOT NULL DEFAULT '',
	extracted_fields JSONB,
	error            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_documents_session_id ON documents(session_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, userID, firstStep string) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		CurrentStep: firstStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, current_step, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.UserID, sess.CurrentStep, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, current_step, created_at, updated_at FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.CurrentStep, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("get session", "session", sessionID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", sessionID)
	}
	return &sess, nil
}

func (s *PostgresStore) UpdateSessionStep(ctx context.Context, sessionID, step string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET current_step = $1, updated_at = $2 WHERE id = $3`,
		step, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session step %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("update session", "session", sessionID)
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	fields, err := marshalFields(doc.ExtractedFields)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, session_id, document_type, file_name, content_type, file_size, storage_key, status, detected_type, extracted_fields, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		doc.ID, doc.SessionID, string(doc.DocumentType), doc.FileName, doc.ContentType, doc.FileSize,
		doc.StorageKey, string(doc.Status), doc.DetectedType, fields, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert document")
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, documentID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("get document", "document", documentID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", documentID)
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	fields, err := marshalFields(doc.ExtractedFields)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, file_size = $2, detected_type = $3, extracted_fields = $4, error = $5, updated_at = $6 WHERE id = $7`,
		string(doc.Status), doc.FileSize, doc.DetectedType, fields, doc.Error, doc.UpdatedAt, doc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document %s", doc.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("update document", "document", doc.ID)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any
	argN := 1
	if filter.SessionID != "" {
		query += fmt.Sprintf(` AND session_id = $%d`, argN)
		args = append(args, filter.SessionID)
		argN++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argN)
		args = append(args, string(filter.Status))
		argN++
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents rows")
}
