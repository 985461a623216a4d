package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/wizard/tree/{session_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/wizard/tree/{session_id}", http.MethodGet, "418"))
	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wizard/tree/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/wizard/tree/{session_id}", http.MethodGet, "418"))
	assert.InDelta(t, 3, after-before, 0.001)
}

func TestBool(t *testing.T) {
	assert.Equal(t, "true", Bool(true))
	assert.Equal(t, "false", Bool(false))
}
