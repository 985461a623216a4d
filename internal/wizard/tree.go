// Package wizard holds the static question tree and the derived navigation
// state (visibility and progress) for a session's answers.
package wizard

import (
	_ "embed"
	"math"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

//go:embed questions.yaml
var defaultTreeYAML []byte

type treeFile struct {
	Version  string          `yaml:"version"`
	Sections []model.Section `yaml:"sections"`
}

// Tree is an immutable, validated question tree.
type Tree struct {
	version   string
	sections  []model.Section
	steps     []model.Step
	stepIndex map[string]int
	questions map[string]model.Question
}

var (
	defaultOnce sync.Once
	defaultTree *Tree
)

// Default returns the built-in study permit tree. It panics if the embedded
// definition is invalid, which the package tests guard against.
func Default() *Tree {
	defaultOnce.Do(func() {
		t, err := Load(defaultTreeYAML)
		if err != nil {
			panic(err)
		}
		defaultTree = t
	})
	return defaultTree
}

// Load parses and validates a YAML tree definition.
func Load(data []byte) (*Tree, error) {
	var f treeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "wizard: parse tree")
	}
	t, err := NewTree(f.Sections)
	if err != nil {
		return nil, err
	}
	t.version = f.Version
	return t, nil
}

// NewTree validates sections and builds lookup indexes. Question ids must be
// unique, types must be known and every conditional rule must reference a
// question that appears earlier in traversal order.
func NewTree(sections []model.Section) (*Tree, error) {
	t := &Tree{
		sections:  cloneSections(sections),
		stepIndex: make(map[string]int),
		questions: make(map[string]model.Question),
	}

	seen := make(map[string]bool)
	for _, sec := range t.sections {
		for _, st := range sec.Steps {
			if st.ID == "" {
				return nil, eris.Errorf("wizard: step in section %q has no id", sec.ID)
			}
			if _, dup := t.stepIndex[st.ID]; dup {
				return nil, eris.Errorf("wizard: duplicate step id %q", st.ID)
			}
			t.stepIndex[st.ID] = len(t.steps)
			t.steps = append(t.steps, st)

			for _, q := range st.Questions {
				if q.ID == "" {
					return nil, eris.Errorf("wizard: question in step %q has no id", st.ID)
				}
				if seen[q.ID] {
					return nil, eris.Errorf("wizard: duplicate question id %q", q.ID)
				}
				if !q.Type.Valid() {
					return nil, eris.Errorf("wizard: question %q has unknown type %q", q.ID, q.Type)
				}
				if q.Condition != nil && !seen[q.Condition.DependsOn] {
					return nil, eris.Errorf("wizard: question %q depends on %q which does not precede it", q.ID, q.Condition.DependsOn)
				}
				seen[q.ID] = true
				t.questions[q.ID] = q
			}
		}
	}
	if len(t.steps) == 0 {
		return nil, eris.New("wizard: tree has no steps")
	}
	return t, nil
}

// Version is the tree definition version, if the source declared one.
func (t *Tree) Version() string { return t.version }

// Sections returns a copy of the full tree.
func (t *Tree) Sections() []model.Section {
	return cloneSections(t.sections)
}

// StepIDs returns step ids in traversal order.
func (t *Tree) StepIDs() []string {
	ids := make([]string, len(t.steps))
	for i, s := range t.steps {
		ids[i] = s.ID
	}
	return ids
}

// FirstStep returns the id of the first step.
func (t *Tree) FirstStep() string { return t.steps[0].ID }

// HasStep reports whether id names a step.
func (t *Tree) HasStep(id string) bool {
	_, ok := t.stepIndex[id]
	return ok
}

// Question looks up a question by id.
func (t *Tree) Question(id string) (model.Question, bool) {
	q, ok := t.questions[id]
	return q, ok
}

// IsVisible reports whether q should be shown given answers. Questions
// without a rule are always visible; a rule whose dependency is unanswered
// hides the question.
func (t *Tree) IsVisible(q model.Question, answers model.Answers) bool {
	if q.Condition == nil {
		return true
	}
	v, ok := answers[q.Condition.DependsOn]
	if !ok || !model.IsPresent(v) {
		return false
	}
	parent := t.questions[q.Condition.DependsOn]
	for _, want := range q.Condition.ShowIf {
		if matches(parent.Type, v, want) {
			return true
		}
	}
	return false
}

func matches(parentType model.QuestionType, v any, want string) bool {
	if parentType == model.QuestionYesNo {
		got, ok1 := model.ParseYesNo(v)
		exp, ok2 := model.ParseYesNo(want)
		if ok1 && ok2 {
			return got == exp
		}
	}
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, e := range t {
			if matches(parentType, e, want) {
				return true
			}
		}
		return false
	case []string:
		for _, e := range t {
			if e == want {
				return true
			}
		}
		return false
	}
	if f, ok := model.ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64) == want
	}
	return model.FormatValue(v) == want
}

// VisibleQuestions returns the questions of step that are visible under
// answers, in definition order.
func (t *Tree) VisibleQuestions(stepID string, answers model.Answers) ([]model.Question, error) {
	i, ok := t.stepIndex[stepID]
	if !ok {
		return nil, apperr.Validation("visible questions", "step_id", "unknown step "+strconv.Quote(stepID))
	}
	var out []model.Question
	for _, q := range t.steps[i].Questions {
		if t.IsVisible(q, answers) {
			out = append(out, q)
		}
	}
	return out, nil
}

// Progress computes navigation state. Only visible required questions count,
// so answering a question can both add and remove required work. An unknown
// or empty cursor resolves to the first step.
func (t *Tree) Progress(answers model.Answers, currentStep string) model.Progress {
	if !t.HasStep(currentStep) {
		currentStep = t.FirstStep()
	}
	p := model.Progress{CurrentStep: currentStep, TotalSteps: len(t.steps)}
	for _, st := range t.steps {
		for _, q := range st.Questions {
			if !q.Required || !t.IsVisible(q, answers) {
				continue
			}
			p.TotalRequired++
			if model.IsPresent(answers[q.ID]) {
				p.AnsweredRequired++
			}
		}
	}
	if p.TotalRequired > 0 {
		pct := float64(p.AnsweredRequired) / float64(p.TotalRequired) * 100
		p.CompletionPercentage = math.Round(pct*10) / 10
	}
	p.IsComplete = p.TotalRequired > 0 && p.AnsweredRequired == p.TotalRequired
	return p
}

// NextStep returns the step after currentStep, or "" at the end.
func (t *Tree) NextStep(currentStep string) string {
	i, ok := t.stepIndex[currentStep]
	if !ok || i+1 >= len(t.steps) {
		return ""
	}
	return t.steps[i+1].ID
}

func cloneSections(in []model.Section) []model.Section {
	out := make([]model.Section, len(in))
	for i, sec := range in {
		out[i] = sec
		out[i].Steps = make([]model.Step, len(sec.Steps))
		for j, st := range sec.Steps {
			out[i].Steps[j] = st
			out[i].Steps[j].Questions = append([]model.Question(nil), st.Questions...)
		}
	}
	return out
}
