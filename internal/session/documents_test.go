package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/answers"
	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

func presignReq(sessionID string) PresignRequest {
	return PresignRequest{
		SessionID:    sessionID,
		DocumentType: model.DocPassport,
		FileName:     "my passport.pdf",
		ContentType:  "application/pdf",
		FileSize:     2048,
	}
}

func TestPresignUpload_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*PresignRequest)
		field  string
	}{
		{"missing session", func(r *PresignRequest) { r.SessionID = "" }, "session_id"},
		{"unknown document type", func(r *PresignRequest) { r.DocumentType = "selfie" }, "document_type"},
		{"empty file name", func(r *PresignRequest) { r.FileName = " " }, "file_name"},
		{"long file name", func(r *PresignRequest) { r.FileName = strings.Repeat("a", 252) + ".pdf" }, "file_name"},
		{"bad extension", func(r *PresignRequest) { r.FileName = "script.exe" }, "file_name"},
		{"bad content type", func(r *PresignRequest) { r.ContentType = "text/html" }, "content_type"},
		{"zero size", func(r *PresignRequest) { r.FileSize = 0 }, "file_size"},
		{"too large", func(r *PresignRequest) { r.FileSize = 10<<20 + 1 }, "file_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := presignReq("s1")
			tt.mutate(&req)
			_, err := f.orch.PresignUpload(context.Background(), req)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPresignUpload_UnknownSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.orch.PresignUpload(context.Background(), presignReq("missing"))
	assert.True(t, apperr.IsNotFound(err))
}

func TestPresignUpload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.orch.Start(ctx, "user-1")
	require.NoError(t, err)

	req := presignReq(sess.ID)
	req.FileName = "Scan (1).PDF"
	res, err := f.orch.PresignUpload(ctx, req)
	require.NoError(t, err)

	assert.NotEmpty(t, res.DocumentID)
	assert.True(t, strings.HasPrefix(res.StorageKey, "documents/"+sess.ID+"/"+res.DocumentID+"/"))
	assert.True(t, strings.HasSuffix(res.StorageKey, "_Scan_1_.PDF"))
	assert.Equal(t, "memory://test/"+res.StorageKey+"?op=put", res.UploadURL)
	assert.Equal(t, 3600, res.ExpiresIn)
	assert.Equal(t, "application/pdf", res.RequiredHeaders["Content-Type"])
	assert.Equal(t, "2048", res.RequiredHeaders["Content-Length"])

	doc, err := f.orch.Document(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentPending, doc.Status)
	assert.Equal(t, model.DocPassport, doc.DocumentType)

	_, _, err = f.orch.Download(ctx, res.DocumentID)
	assert.True(t, apperr.IsValidation(err), "pending uploads cannot be downloaded")
}

func TestCompleteUpload_UnknownDocument(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.orch.CompleteUpload(context.Background(), "nope", 10)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCompleteUpload_ProcessesDocument(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.orch.Start(ctx, "user-1")
	require.NoError(t, err)
	pre, err := f.orch.PresignUpload(ctx, presignReq(sess.ID))
	require.NoError(t, err)
	f.storage.Put(pre.StorageKey, []byte("%PDF-1.4 scan"))

	f.recognizer.On("Extract", mock.Anything, []byte("%PDF-1.4 scan"), "application/pdf").
		Return(passportExtraction(), nil).Once()
	f.publisher.On("PublishOCRComplete", mock.Anything, mock.MatchedBy(func(ev model.OCRCompleteEvent) bool {
		return ev.SessionID == sess.ID &&
			ev.DocumentID == pre.DocumentID &&
			ev.DocumentType == "passport" &&
			ev.MappedFields["passport_number"] == "K1234567"
	})).Return(nil).Once()

	doc, err := f.orch.CompleteUpload(ctx, pre.DocumentID, 4096)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentUploaded, doc.Status)
	assert.Equal(t, int64(4096), doc.FileSize)

	f.orch.Wait()
	f.recognizer.AssertExpectations(t)
	f.publisher.AssertExpectations(t)

	got, err := f.orch.Document(ctx, pre.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentProcessed, got.Status)
	assert.Equal(t, "passport", got.DetectedType)
	assert.Equal(t, "K1234567", got.ExtractedFields["passport_number"])
	assert.Empty(t, got.Error)

	ocrFields, err := f.orch.ocrData.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "K1234567", ocrFields["passport_number"])

	url, _, err := f.orch.Download(ctx, pre.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "memory://test/"+pre.StorageKey, url)

	docs, err := f.orch.Documents(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	checklist := f.orch.Checklist(ctx, sess.ID)
	for _, it := range checklist.SupportingDocuments {
		assert.Equal(t, it.DocumentType == model.DocPassport, it.IsUploaded, it.DocumentType)
	}
}

func TestCompleteUpload_RecognizerFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.orch.Start(ctx, "user-1")
	require.NoError(t, err)
	pre, err := f.orch.PresignUpload(ctx, presignReq(sess.ID))
	require.NoError(t, err)
	f.storage.Put(pre.StorageKey, []byte("data"))

	f.recognizer.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("textract: throttled")).Once()

	_, err = f.orch.CompleteUpload(ctx, pre.DocumentID, 0)
	require.NoError(t, err)
	f.orch.Wait()

	got, err := f.orch.Document(ctx, pre.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentFailed, got.Status)
	assert.Contains(t, got.Error, "throttled")
	assert.Equal(t, int64(2048), got.FileSize)
	f.publisher.AssertNotCalled(t, "PublishOCRComplete", mock.Anything, mock.Anything)

	// Forms still work from whatever data exists.
	out, err := f.orch.PrefilledForms(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, out.Forms, 2)
}

func TestCompleteUpload_MissingObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.orch.Start(ctx, "user-1")
	require.NoError(t, err)
	pre, err := f.orch.PresignUpload(ctx, presignReq(sess.ID))
	require.NoError(t, err)

	_, err = f.orch.CompleteUpload(ctx, pre.DocumentID, 0)
	require.NoError(t, err)
	f.orch.Wait()

	got, err := f.orch.Document(ctx, pre.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentFailed, got.Status)
	f.recognizer.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteUpload_PublishFailureStillProcessed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.orch.Start(ctx, "user-1")
	require.NoError(t, err)
	pre, err := f.orch.PresignUpload(ctx, presignReq(sess.ID))
	require.NoError(t, err)
	f.storage.Put(pre.StorageKey, []byte("data"))

	f.recognizer.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(passportExtraction(), nil)
	f.publisher.On("PublishOCRComplete", mock.Anything, mock.Anything).Return(errors.New("sns down"))

	_, err = f.orch.CompleteUpload(ctx, pre.DocumentID, 0)
	require.NoError(t, err)
	f.orch.Wait()

	got, err := f.orch.Document(ctx, pre.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentProcessed, got.Status)
}

func TestDocuments_NoStorage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	o := New(Deps{Store: f.store, Answers: answers.NewMemoryStore(), OCRData: answers.NewMemoryStore()})
	sess, err := o.Start(ctx, "user-1")
	require.NoError(t, err)

	_, err = o.PresignUpload(ctx, presignReq(sess.ID))
	assert.True(t, apperr.IsUpstream(err))

	docs, err := o.Documents(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
