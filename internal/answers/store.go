// Package answers stores per-session answer maps. Writes are last-write-wins
// per key and nothing is ever deleted individually.
package answers

import (
	"context"
	"strings"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

// MergeResult reports the outcome of a Merge.
type MergeResult struct {
	Accepted    int `json:"answers_received"`
	TotalStored int `json:"total_answers_stored"`
}

// Store persists answer maps keyed by session id. Values are stored as
// submitted; no type checking happens here.
type Store interface {
	// Merge overlays answers onto the session's map and returns counts.
	Merge(ctx context.Context, sessionID string, answers model.Answers) (MergeResult, error)
	// Get returns a copy of the session's map. Unknown sessions yield an
	// empty, non-nil map.
	Get(ctx context.Context, sessionID string) (model.Answers, error)
	// ListByPrefix returns the entries whose key starts with prefix.
	ListByPrefix(ctx context.Context, sessionID, prefix string) (model.Answers, error)
}

func checkSession(op, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.Validation(op, "session_id", "is required")
	}
	return nil
}

func filterPrefix(all model.Answers, prefix string) model.Answers {
	out := make(model.Answers)
	for k, v := range all {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}
