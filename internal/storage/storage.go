// Package storage holds uploaded applicant documents in object storage and
// hands out presigned URLs so clients upload and download directly.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/apperr"
)

// Storage is the object store used for documents.
type Storage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFileName strips directories and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func SafeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	safe := strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if safe == "" {
		return "upload"
	}
	return safe
}

// DocumentKey builds the object key for a document upload:
// documents/{session}/{document}/{YYYYmmdd_HHMMSS}_{safe file name}.
func DocumentKey(sessionID, documentID, fileName string, at time.Time) string {
	return fmt.Sprintf("documents/%s/%s/%s_%s",
		sessionID, documentID, at.UTC().Format("20060102_150405"), SafeFileName(fileName))
}

// Memory is an in-process Storage for local runs and tests. Its URLs use the
// memory:// scheme and are not fetchable over HTTP.
type Memory struct {
	bucket string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory bucket.
func NewMemory(bucket string) *Memory {
	if bucket == "" {
		bucket = "local"
	}
	return &Memory{bucket: bucket, objects: make(map[string][]byte)}
}

// Put stores data under key.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

func (m *Memory) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return fmt.Sprintf("memory://%s/%s?op=put", m.bucket, key), nil
}

func (m *Memory) PresignDownload(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("memory://%s/%s", m.bucket, key), nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, eris.Wrap(apperr.NotFound("get object", "object", key), "storage: get")
	}
	return append([]byte(nil), data...), nil
}
