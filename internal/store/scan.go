package store

import (
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

const documentColumns = `id, session_id, document_type, file_name, content_type, file_size, storage_key, status, detected_type, extracted_fields, error, created_at, updated_at`

type scannable interface {
	Scan(dest ...any) error
}

// scanDocument reads one documents row. The raw sql.ErrNoRows or
// pgx.ErrNoRows is returned unwrapped so callers can map it to NotFound.
func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var docType, status string
	var fields sql.NullString

	err := row.Scan(&d.ID, &d.SessionID, &docType, &d.FileName, &d.ContentType, &d.FileSize,
		&d.StorageKey, &status, &d.DetectedType, &fields, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.DocumentType = model.DocumentType(docType)
	d.Status = model.DocumentStatus(status)

	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &d.ExtractedFields); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal extracted fields")
		}
	}
	return &d, nil
}

func marshalFields(fields model.ApplicantData) (*string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal extracted fields")
	}
	s := string(b)
	return &s, nil
}

func errUnknownDriver(driver string) error {
	return eris.Errorf("store: unknown driver %q", driver)
}
