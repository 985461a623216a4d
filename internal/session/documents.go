package session

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/metrics"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/storage"
	"github.com/visamate/visamate/internal/store"
)

var allowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx", ".tiff", ".tif"}

var allowedContentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/tiff",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// PresignRequest asks for an upload URL for one document.
type PresignRequest struct {
	SessionID    string             `json:"session_id"`
	DocumentType model.DocumentType `json:"document_type"`
	FileName     string             `json:"file_name"`
	ContentType  string             `json:"content_type"`
	FileSize     int64              `json:"file_size"`
}

// PresignResult tells the client where and how to upload.
type PresignResult struct {
	DocumentID      string            `json:"document_id"`
	UploadURL       string            `json:"upload_url"`
	ExpiresIn       int               `json:"expires_in"`
	MaxFileSize     int64             `json:"max_file_size"`
	RequiredHeaders map[string]string `json:"required_headers"`
	StorageKey      string            `json:"s3_key"`
}

func (o *Orchestrator) validatePresign(req PresignRequest) error {
	const op = "presign upload"
	if err := requireID(op, "session_id", req.SessionID); err != nil {
		return err
	}
	if !req.DocumentType.Valid() {
		return apperr.Validation(op, "document_type", fmt.Sprintf("unknown document type %q", req.DocumentType))
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" || len(name) > 255 {
		return apperr.Validation(op, "file_name", "must be 1 to 255 characters")
	}
	if !slices.Contains(allowedExtensions, strings.ToLower(filepath.Ext(name))) {
		return apperr.Validation(op, "file_name", "file type not supported. Allowed: "+strings.Join(allowedExtensions, ", "))
	}
	if !slices.Contains(allowedContentTypes, req.ContentType) {
		return apperr.Validation(op, "content_type", fmt.Sprintf("content type %q not supported", req.ContentType))
	}
	if req.FileSize <= 0 || req.FileSize > o.opts.MaxUploadBytes {
		return apperr.Validation(op, "file_size", fmt.Sprintf("must be between 1 and %d bytes", o.opts.MaxUploadBytes))
	}
	return nil
}

// PresignUpload records a pending document and returns a presigned upload
// URL for it. The session must exist.
func (o *Orchestrator) PresignUpload(ctx context.Context, req PresignRequest) (*PresignResult, error) {
	if err := o.validatePresign(req); err != nil {
		return nil, err
	}
	if o.storage == nil {
		return nil, apperr.Upstream("presign upload", "storage", req.SessionID, eris.New("no object storage configured"))
	}
	if _, err := o.store.GetSession(ctx, req.SessionID); err != nil {
		return nil, eris.Wrapf(err, "session: presign upload %s", req.SessionID)
	}

	id := uuid.New().String()
	key := storage.DocumentKey(req.SessionID, id, req.FileName, o.now())
	url, err := o.storage.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("storage").Inc()
		return nil, apperr.Upstream("presign upload", "storage", req.SessionID, err)
	}

	doc := &model.Document{
		ID:           id,
		SessionID:    req.SessionID,
		DocumentType: req.DocumentType,
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		FileSize:     req.FileSize,
		StorageKey:   key,
		Status:       model.DocumentPending,
	}
	if err := o.store.CreateDocument(ctx, doc); err != nil {
		return nil, eris.Wrapf(err, "session: record document %s", id)
	}

	zap.L().Info("session: upload presigned",
		zap.String("session_id", req.SessionID),
		zap.String("document_id", id),
		zap.String("document_type", string(req.DocumentType)),
	)
	return &PresignResult{
		DocumentID:  id,
		UploadURL:   url,
		ExpiresIn:   int(o.opts.PresignExpiry / time.Second),
		MaxFileSize: req.FileSize,
		RequiredHeaders: map[string]string{
			"Content-Type":   req.ContentType,
			"Content-Length": fmt.Sprint(req.FileSize),
		},
		StorageKey: key,
	}, nil
}

// CompleteUpload marks a document uploaded and starts OCR in the background.
// The returned document reflects the uploaded state; poll Document for the
// outcome.
func (o *Orchestrator) CompleteUpload(ctx context.Context, documentID string, fileSize int64) (*model.Document, error) {
	if err := requireID("complete upload", "document_id", documentID); err != nil {
		return nil, err
	}
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, eris.Wrapf(err, "session: complete upload %s", documentID)
	}
	if fileSize > 0 {
		doc.FileSize = fileSize
	}
	doc.Status = model.DocumentUploaded
	doc.Error = ""
	if err := o.store.UpdateDocument(ctx, doc); err != nil {
		return nil, eris.Wrapf(err, "session: complete upload %s", documentID)
	}

	snapshot := *doc
	o.jobs.Add(1)
	go func() {
		defer o.jobs.Done()
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.OCRTimeout)
		defer cancel()
		o.processDocument(jobCtx, snapshot)
	}()

	return doc, nil
}

// processDocument runs OCR for an uploaded document, merges the mapped fields
// into the session and publishes the completion event. Failures are recorded
// on the document and never propagate.
func (o *Orchestrator) processDocument(ctx context.Context, doc model.Document) {
	log := zap.L().With(
		zap.String("session_id", doc.SessionID),
		zap.String("document_id", doc.ID),
	)
	start := time.Now()

	doc.Status = model.DocumentProcessing
	if err := o.store.UpdateDocument(ctx, &doc); err != nil {
		log.Warn("session: failed to mark processing", zap.Error(err))
	}

	fail := func(service string, err error) {
		metrics.UpstreamErrors.WithLabelValues(service).Inc()
		metrics.OCRDocuments.WithLabelValues(string(doc.DocumentType), string(model.DocumentFailed)).Inc()
		log.Error("session: document processing failed", zap.String("service", service), zap.Error(err))
		doc.Status = model.DocumentFailed
		doc.Error = err.Error()
		if uerr := o.store.UpdateDocument(context.WithoutCancel(ctx), &doc); uerr != nil {
			log.Warn("session: failed to mark failed", zap.Error(uerr))
		}
	}

	if o.storage == nil || o.recognizer == nil {
		fail("ocr", eris.New("no recognizer configured"))
		return
	}
	data, err := o.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		fail("storage", err)
		return
	}
	ext, err := o.recognizer.Extract(ctx, data, doc.ContentType)
	if err != nil {
		fail("ocr", err)
		return
	}
	res, err := o.ApplyExtraction(ctx, doc.SessionID, ext)
	if err != nil {
		fail("answers", err)
		return
	}

	doc.Status = model.DocumentProcessed
	doc.DetectedType = string(res.DocumentType)
	doc.ExtractedFields = res.Fields
	if err := o.store.UpdateDocument(ctx, &doc); err != nil {
		log.Warn("session: failed to mark processed", zap.Error(err))
	}
	metrics.OCRDocuments.WithLabelValues(string(doc.DocumentType), string(model.DocumentProcessed)).Inc()
	metrics.OCRDuration.Observe(time.Since(start).Seconds())

	if o.publisher != nil {
		ev := model.OCRCompleteEvent{
			SessionID:    doc.SessionID,
			DocumentID:   doc.ID,
			DocumentType: doc.DetectedType,
			MappedFields: res.Fields,
			Confidence:   res.Confidence,
		}
		if err := o.publisher.PublishOCRComplete(ctx, ev); err != nil {
			metrics.UpstreamErrors.WithLabelValues("sns").Inc()
			log.Warn("session: failed to publish ocr event", zap.Error(err))
		}
	}
	log.Info("session: document processed",
		zap.String("detected_type", doc.DetectedType),
		zap.Int("fields", len(res.Fields)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Document returns one document's metadata.
func (o *Orchestrator) Document(ctx context.Context, documentID string) (*model.Document, error) {
	if err := requireID("get document", "document_id", documentID); err != nil {
		return nil, err
	}
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, eris.Wrapf(err, "session: get document %s", documentID)
	}
	return doc, nil
}

// Download returns a presigned URL for an uploaded document.
func (o *Orchestrator) Download(ctx context.Context, documentID string) (string, *model.Document, error) {
	doc, err := o.Document(ctx, documentID)
	if err != nil {
		return "", nil, err
	}
	if doc.Status == model.DocumentPending || doc.Status == model.DocumentUploading {
		return "", nil, apperr.Validation("download document", "document_id", "upload has not completed")
	}
	if o.storage == nil {
		return "", nil, apperr.Upstream("download document", "storage", doc.SessionID, eris.New("no object storage configured"))
	}
	url, err := o.storage.PresignDownload(ctx, doc.StorageKey)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("storage").Inc()
		return "", nil, apperr.Upstream("download document", "storage", doc.SessionID, err)
	}
	return url, doc, nil
}

// Documents lists a session's documents, oldest first.
func (o *Orchestrator) Documents(ctx context.Context, sessionID string) ([]model.Document, error) {
	if err := requireID("list documents", "session_id", sessionID); err != nil {
		return nil, err
	}
	docs, err := o.store.ListDocuments(ctx, store.DocumentFilter{SessionID: sessionID})
	if err != nil {
		return nil, eris.Wrapf(err, "session: list documents %s", sessionID)
	}
	return docs, nil
}
