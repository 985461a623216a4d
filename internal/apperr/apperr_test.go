package apperr

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	t.Parallel()

	v := eris.Wrap(Validation("submit answers", "session_id", "is required"), "handler")
	assert.True(t, IsValidation(v))
	assert.False(t, IsNotFound(v))
	assert.Contains(t, v.Error(), "invalid session_id")

	nf := eris.Wrap(NotFound("complete upload", "document", "doc-1"), "handler")
	assert.True(t, IsNotFound(nf))
	assert.Contains(t, nf.Error(), "document not found: doc-1")

	cause := errors.New("throttled")
	up := Upstream("extract", "textract", "s-1", cause)
	assert.True(t, IsUpstream(up))
	assert.ErrorIs(t, up, cause)
	assert.Contains(t, up.Error(), "session s-1")
}

func TestUpstreamWithoutSession(t *testing.T) {
	t.Parallel()

	err := Upstream("generate sop", "anthropic", "", errors.New("boom"))
	assert.Equal(t, "generate sop: anthropic failed: boom", err.Error())
}

func TestUnauthorized(t *testing.T) {
	t.Parallel()

	err := eris.Wrap(Unauthorized("login", "invalid credentials"), "handler")
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "login: unauthorized: invalid credentials")
}
