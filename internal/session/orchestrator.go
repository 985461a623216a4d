// Package session coordinates a wizard session: answers, navigation, OCR
// merges, form auto-fill, eligibility and statement drafting.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/answers"
	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/eligibility"
	"github.com/visamate/visamate/internal/forms"
	"github.com/visamate/visamate/internal/mapper"
	"github.com/visamate/visamate/internal/metrics"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/notify"
	"github.com/visamate/visamate/internal/ocr"
	"github.com/visamate/visamate/internal/sop"
	"github.com/visamate/visamate/internal/storage"
	"github.com/visamate/visamate/internal/store"
	"github.com/visamate/visamate/internal/wizard"
)

// Options tunes document handling.
type Options struct {
	MaxUploadBytes int64
	PresignExpiry  time.Duration
	OCRTimeout     time.Duration
}

// DefaultOptions matches the service defaults.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: 10 << 20,
		PresignExpiry:  time.Hour,
		OCRTimeout:     2 * time.Minute,
	}
}

// Deps are the collaborators an Orchestrator needs. Storage, Recognizer,
// Publisher and SOP may be nil; the operations that need them then fail with
// an upstream error while everything else keeps working.
type Deps struct {
	Store      store.Store
	Answers    answers.Store
	OCRData    answers.Store
	Tree       *wizard.Tree
	Filler     *forms.Filler
	Storage    storage.Storage
	Recognizer ocr.Recognizer
	Publisher  notify.Publisher
	SOP        *sop.Generator
	Options    Options
}

// Orchestrator implements the wizard operations. It is safe for concurrent
// use; calls for the same session are serialized only around store reads and
// merges.
type Orchestrator struct {
	store      store.Store
	answers    answers.Store
	ocrData    answers.Store
	tree       *wizard.Tree
	filler     *forms.Filler
	storage    storage.Storage
	recognizer ocr.Recognizer
	publisher  notify.Publisher
	sop        *sop.Generator
	opts       Options

	locks *keyedMutex
	jobs  sync.WaitGroup
	now   func() time.Time
}

// New creates an Orchestrator. Nil Tree and Filler default to the built-in
// tree and the default visa policy.
func New(d Deps) *Orchestrator {
	if d.Tree == nil {
		d.Tree = wizard.Default()
	}
	if d.Filler == nil {
		d.Filler = forms.NewFiller(forms.NewVisaPolicy(nil))
	}
	def := DefaultOptions()
	if d.Options.MaxUploadBytes <= 0 {
		d.Options.MaxUploadBytes = def.MaxUploadBytes
	}
	if d.Options.PresignExpiry <= 0 {
		d.Options.PresignExpiry = def.PresignExpiry
	}
	if d.Options.OCRTimeout <= 0 {
		d.Options.OCRTimeout = def.OCRTimeout
	}
	return &Orchestrator{
		store:      d.Store,
		answers:    d.Answers,
		ocrData:    d.OCRData,
		tree:       d.Tree,
		filler:     d.Filler,
		storage:    d.Storage,
		recognizer: d.Recognizer,
		publisher:  d.Publisher,
		sop:        d.SOP,
		opts:       d.Options,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// Tree returns the question tree sessions are answered against.
func (o *Orchestrator) Tree() *wizard.Tree { return o.tree }

// Wait blocks until background document processing has finished.
func (o *Orchestrator) Wait() { o.jobs.Wait() }

func requireID(op, field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation(op, field, "is required")
	}
	return nil
}

// Start creates a session positioned at the first step.
func (o *Orchestrator) Start(ctx context.Context, userID string) (*model.Session, error) {
	if strings.TrimSpace(userID) == "" {
		userID = "anonymous"
	}
	sess, err := o.store.CreateSession(ctx, userID, o.tree.FirstStep())
	if err != nil {
		return nil, eris.Wrap(err, "session: start")
	}
	metrics.SessionsStarted.Inc()
	zap.L().Info("session: started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
	)
	return sess, nil
}

// SubmitAnswers merges answers into the session's map. The step cursor does
// not move.
func (o *Orchestrator) SubmitAnswers(ctx context.Context, sessionID string, submitted model.Answers) (answers.MergeResult, error) {
	if err := requireID("submit answers", "session_id", sessionID); err != nil {
		return answers.MergeResult{}, err
	}
	if submitted == nil {
		return answers.MergeResult{}, apperr.Validation("submit answers", "answers", "must be an object")
	}

	unlock := o.locks.Lock(sessionID)
	res, err := o.answers.Merge(ctx, sessionID, submitted)
	unlock()
	if err != nil {
		return answers.MergeResult{}, eris.Wrapf(err, "session: submit answers %s", sessionID)
	}

	metrics.AnswersMerged.Add(float64(res.Accepted))
	zap.L().Debug("session: answers merged",
		zap.String("session_id", sessionID),
		zap.Int("accepted", res.Accepted),
		zap.Int("total", res.TotalStored),
	)
	return res, nil
}

// Answers returns the stored answers whose key starts with prefix.
func (o *Orchestrator) Answers(ctx context.Context, sessionID, prefix string) (model.Answers, error) {
	if err := requireID("list answers", "session_id", sessionID); err != nil {
		return nil, err
	}
	unlock := o.locks.Lock(sessionID)
	defer unlock()
	out, err := o.answers.ListByPrefix(ctx, sessionID, prefix)
	if err != nil {
		return nil, eris.Wrapf(err, "session: list answers %s", sessionID)
	}
	return out, nil
}

// TreeView is the static tree with a session's stored answers and progress.
// Progress fields are inlined as navigation metadata.
type TreeView struct {
	SessionID   string          `json:"session_id"`
	TreeVersion string          `json:"tree_version"`
	Sections    []model.Section `json:"sections"`
	Answers     model.Answers   `json:"answers"`
	model.Progress
	Completeness wizard.Completeness `json:"completeness"`
	NextStep     string              `json:"next_step,omitempty"`
}

// TreeView works for sessions that were never started; their cursor is the
// first step.
func (o *Orchestrator) TreeView(ctx context.Context, sessionID string) (*TreeView, error) {
	if err := requireID("tree view", "session_id", sessionID); err != nil {
		return nil, err
	}

	cursor := o.tree.FirstStep()
	sess, err := o.store.GetSession(ctx, sessionID)
	switch {
	case err == nil:
		cursor = sess.CurrentStep
	case apperr.IsNotFound(err):
	default:
		return nil, eris.Wrapf(err, "session: tree view %s", sessionID)
	}

	unlock := o.locks.Lock(sessionID)
	stored, err := o.answers.Get(ctx, sessionID)
	unlock()
	if err != nil {
		return nil, eris.Wrapf(err, "session: tree view %s", sessionID)
	}

	progress := o.tree.Progress(stored, cursor)
	return &TreeView{
		SessionID:    sessionID,
		TreeVersion:  o.tree.Version(),
		Sections:     o.tree.Sections(),
		Answers:      stored,
		Progress:     progress,
		Completeness: wizard.CoreCompleteness(stored),
		NextStep:     o.tree.NextStep(progress.CurrentStep),
	}, nil
}

// SetStep moves the display cursor. Unknown steps are rejected.
func (o *Orchestrator) SetStep(ctx context.Context, sessionID, step string) error {
	if err := requireID("set step", "session_id", sessionID); err != nil {
		return err
	}
	if !o.tree.HasStep(step) {
		return apperr.Validation("set step", "step", "unknown step "+step)
	}
	if err := o.store.UpdateSessionStep(ctx, sessionID, step); err != nil {
		return eris.Wrapf(err, "session: set step %s", sessionID)
	}
	return nil
}

// applicantData reads both namespaces under the session lock and merges them
// outside it.
func (o *Orchestrator) applicantData(ctx context.Context, sessionID string) (model.Answers, model.ApplicantData, error) {
	unlock := o.locks.Lock(sessionID)
	stored, err := o.answers.Get(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, nil, eris.Wrapf(err, "session: read answers %s", sessionID)
	}
	ocrFields, err := o.ocrData.Get(ctx, sessionID)
	unlock()
	if err != nil {
		zap.L().Warn("session: ocr fields unavailable, using answers only",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		ocrFields = nil
	}
	return stored, mapper.Canonical(stored, model.ApplicantData(ocrFields)), nil
}

// PrefilledForms is the auto-fill response for a session.
type PrefilledForms struct {
	SessionID    string                               `json:"session_id"`
	Forms        map[model.FormType]*model.FilledForm `json:"forms"`
	Instructions map[model.FormType]string            `json:"instructions"`
	GeneratedAt  time.Time                            `json:"generated_at"`
}

// PrefilledForms fills every form the applicant needs.
func (o *Orchestrator) PrefilledForms(ctx context.Context, sessionID string) (*PrefilledForms, error) {
	if err := requireID("prefilled forms", "session_id", sessionID); err != nil {
		return nil, err
	}
	_, data, err := o.applicantData(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	filled, err := o.filler.FillAllRequired(data)
	if err != nil {
		return nil, eris.Wrapf(err, "session: prefilled forms %s", sessionID)
	}
	out := &PrefilledForms{
		SessionID:    sessionID,
		Forms:        filled,
		Instructions: make(map[model.FormType]string, len(filled)),
		GeneratedAt:  o.now().UTC(),
	}
	for ft, f := range filled {
		out.Instructions[ft] = forms.Instructions(ft)
		metrics.FormsFilled.WithLabelValues(string(ft), metrics.Bool(f.IsValid)).Inc()
	}
	return out, nil
}

// Form fills a single form for a session.
func (o *Orchestrator) Form(ctx context.Context, sessionID string, ft model.FormType) (*model.FilledForm, error) {
	if err := requireID("fill form", "session_id", sessionID); err != nil {
		return nil, err
	}
	_, data, err := o.applicantData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	f, err := forms.Fill(ft, data)
	if err != nil {
		return nil, apperr.Validation("fill form", "form_type", err.Error())
	}
	metrics.FormsFilled.WithLabelValues(string(ft), metrics.Bool(f.IsValid)).Inc()
	return f, nil
}

// Eligibility evaluates the study permit requirements for a session.
func (o *Orchestrator) Eligibility(ctx context.Context, sessionID string) (model.EligibilityResult, error) {
	if err := requireID("eligibility", "session_id", sessionID); err != nil {
		return model.EligibilityResult{}, err
	}
	stored, data, err := o.applicantData(ctx, sessionID)
	if err != nil {
		return model.EligibilityResult{}, err
	}
	res := eligibility.Check(stored, data)
	metrics.EligibilityChecks.WithLabelValues(metrics.Bool(res.Eligible)).Inc()
	return res, nil
}

// Checklist returns the document checklist, marking uploaded documents when
// the metadata store can be read.
func (o *Orchestrator) Checklist(ctx context.Context, sessionID string) model.Checklist {
	if sessionID == "" || o.store == nil {
		return wizard.Checklist(nil)
	}
	docs, err := o.store.ListDocuments(ctx, store.DocumentFilter{SessionID: sessionID})
	if err != nil {
		zap.L().Warn("session: checklist without upload state",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return wizard.Checklist(nil)
	}
	return wizard.Checklist(docs)
}

// ApplyExtraction maps recognizer output and merges the fields into the
// session's OCR namespace. Mapping runs outside the session lock.
func (o *Orchestrator) ApplyExtraction(ctx context.Context, sessionID string, ext *model.Extraction) (mapper.Result, error) {
	if err := requireID("apply extraction", "session_id", sessionID); err != nil {
		return mapper.Result{}, err
	}
	res := mapper.MapOCR(ext)
	if len(res.Fields) == 0 {
		return res, nil
	}

	unlock := o.locks.Lock(sessionID)
	_, err := o.ocrData.Merge(ctx, sessionID, model.Answers(res.Fields))
	unlock()
	if err != nil {
		return res, eris.Wrapf(err, "session: apply extraction %s", sessionID)
	}
	return res, nil
}

// GenerateSOP drafts a statement of purpose from the session's canonical
// data. overrides are applied on top, for profile details the wizard does not
// ask for.
func (o *Orchestrator) GenerateSOP(ctx context.Context, sessionID string, overrides model.ApplicantData) (*sop.Result, error) {
	if err := requireID("generate sop", "session_id", sessionID); err != nil {
		return nil, err
	}
	if o.sop == nil {
		return nil, apperr.Upstream("generate sop", "llm", sessionID, eris.New("no text generator configured"))
	}
	_, data, err := o.applicantData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		if model.IsPresent(v) {
			data[k] = v
		}
	}

	res, err := o.sop.Generate(ctx, sop.FromData(data, o.now()))
	if err != nil {
		var ue *apperr.UpstreamError
		if errors.As(err, &ue) && ue.SessionID == "" {
			ue.SessionID = sessionID
		}
		return nil, err
	}
	zap.L().Info("session: sop generated",
		zap.String("session_id", sessionID),
		zap.Bool("meets_requirements", res.Quality.MeetsRequirements),
	)
	return res, nil
}
