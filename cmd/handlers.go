package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/forms"
	"github.com/visamate/visamate/internal/identity"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/session"
)

const maxBodyBytes = 1 << 20

// api binds the HTTP surface to the orchestrator.
type api struct {
	orch     *session.Orchestrator
	identity identity.Provider
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]string{"error": err.Error()}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		body["error"] = "internal error"
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into v. An empty body is accepted when optional.
// Numbers in untyped values stay json.Number so 20635 and 20635.0 keep their
// written form.
func decode(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return apperr.Validation("decode request", "body", err.Error())
	}
	return nil
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"tree_version": a.orch.Tree().Version(),
	})
}

func (a *api) start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	userID := identity.UserID(r.Context())
	if userID == "" {
		userID = req.UserID
	}
	sess, err := a.orch.Start(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":   sess.ID,
		"user_id":      sess.UserID,
		"current_step": sess.CurrentStep,
		"created_at":   sess.CreatedAt,
		"tree_version": a.orch.Tree().Version(),
	})
}

func (a *api) tree(w http.ResponseWriter, r *http.Request) {
	view, err := a.orch.TreeView(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) submitAnswers(w http.ResponseWriter, r *http.Request) {
	// The body is the answer map itself; null decodes to nil and is rejected
	// by the orchestrator.
	var submitted model.Answers
	if err := decode(r, &submitted, false); err != nil {
		writeError(w, err)
		return
	}
	res, err := a.orch.SubmitAnswers(r.Context(), chi.URLParam(r, "session_id"), submitted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) listAnswers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	out, err := a.orch.Answers(r.Context(), id, r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "answers": out})
}

func (a *api) setStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepID string `json:"step_id"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "session_id")
	if err := a.orch.SetStep(r.Context(), id, req.StepID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "current_step": req.StepID})
}

func (a *api) checklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.orch.Checklist(r.Context(), chi.URLParam(r, "session_id")))
}

func (a *api) prefilledForms(w http.ResponseWriter, r *http.Request) {
	out, err := a.orch.PrefilledForms(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) formPDF(w http.ResponseWriter, r *http.Request) {
	ft, err := model.ParseFormType(chi.URLParam(r, "form_type"))
	if err != nil {
		writeError(w, apperr.Validation("export form", "form_type", err.Error()))
		return
	}
	form, err := a.orch.Form(r.Context(), chi.URLParam(r, "session_id"), ft)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := forms.PDFBytes(form, time.Now())
	if err != nil {
		writeError(w, eris.Wrap(err, "export form"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, ft))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *api) eligibility(w http.ResponseWriter, r *http.Request) {
	res, err := a.orch.Eligibility(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) generateSOP(w http.ResponseWriter, r *http.Request) {
	var overrides model.ApplicantData
	if err := decode(r, &overrides, true); err != nil {
		writeError(w, err)
		return
	}
	res, err := a.orch.GenerateSOP(r.Context(), chi.URLParam(r, "session_id"), overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) presign(w http.ResponseWriter, r *http.Request) {
	var req session.PresignRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	res, err := a.orch.PresignUpload(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) completeUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileSize int64 `json:"file_size"`
	}
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	doc, err := a.orch.CompleteUpload(r.Context(), chi.URLParam(r, "document_id"), req.FileSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (a *api) document(w http.ResponseWriter, r *http.Request) {
	doc, err := a.orch.Document(r.Context(), chi.URLParam(r, "document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) download(w http.ResponseWriter, r *http.Request) {
	url, doc, err := a.orch.Download(r.Context(), chi.URLParam(r, "document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":  doc.ID,
		"file_name":    doc.FileName,
		"download_url": url,
	})
}

func (a *api) listDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	docs, err := a.orch.Documents(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "documents": docs})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if a.identity == nil {
		writeError(w, apperr.Upstream("login", "cognito", "", eris.New("no identity provider configured")))
		return
	}
	tokens, err := a.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if a.identity == nil {
		writeError(w, apperr.Upstream("refresh", "cognito", "", eris.New("no identity provider configured")))
		return
	}
	tokens, err := a.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
