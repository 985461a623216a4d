package model

// QuestionType is the input kind a wizard question collects.
type QuestionType string

// Known question types.
const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultiChoice    QuestionType = "multi_choice"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionDate           QuestionType = "date"
	QuestionNumber         QuestionType = "number"
	QuestionText           QuestionType = "text"
	QuestionCountrySelect  QuestionType = "country_select"
	QuestionProvinceSelect QuestionType = "province_select"
)

var knownQuestionTypes = map[QuestionType]bool{
	QuestionSingleChoice:   true,
	QuestionMultiChoice:    true,
	QuestionYesNo:          true,
	QuestionDate:           true,
	QuestionNumber:         true,
	QuestionText:           true,
	QuestionCountrySelect:  true,
	QuestionProvinceSelect: true,
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	return knownQuestionTypes[t]
}

// Option is a selectable value for choice questions.
type Option struct {
	Value   string `json:"value" yaml:"value"`
	Label   string `json:"label" yaml:"label"`
	Default bool   `json:"default,omitempty" yaml:"default"`
}

// Validation holds optional constraints shown to the client. They are not
// enforced when answers are stored.
type Validation struct {
	MinValue *float64 `json:"min_value,omitempty" yaml:"min_value"`
	MaxValue *float64 `json:"max_value,omitempty" yaml:"max_value"`
	MinDate  string   `json:"min_date,omitempty" yaml:"min_date"`
	MaxDate  string   `json:"max_date,omitempty" yaml:"max_date"`
	MinAge   int      `json:"min_age,omitempty" yaml:"min_age"`
	MaxAge   int      `json:"max_age,omitempty" yaml:"max_age"`
	Currency bool     `json:"currency,omitempty" yaml:"currency"`
}

// ConditionalRule makes a question visible only when an earlier question's
// answer is one of ShowIf.
type ConditionalRule struct {
	DependsOn string   `json:"depends_on" yaml:"depends_on"`
	ShowIf    []string `json:"show_if" yaml:"show_if"`
}

// Question is a single wizard prompt.
type Question struct {
	ID          string           `json:"question_id" yaml:"id"`
	Text        string           `json:"question_text" yaml:"text"`
	Type        QuestionType     `json:"question_type" yaml:"type"`
	Required    bool             `json:"required" yaml:"required"`
	Options     []Option         `json:"options,omitempty" yaml:"options"`
	Validation  *Validation      `json:"validation,omitempty" yaml:"validation"`
	Condition   *ConditionalRule `json:"conditional_logic,omitempty" yaml:"conditional_logic"`
	HelpText    string           `json:"help_text,omitempty" yaml:"help_text"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder"`
}

// DefaultOption returns the value of the option flagged as default, if any.
func (q Question) DefaultOption() (string, bool) {
	for _, o := range q.Options {
		if o.Default {
			return o.Value, true
		}
	}
	return "", false
}

// Step is an ordered group of questions shown on one wizard page.
type Step struct {
	ID          string     `json:"step_id" yaml:"id"`
	Name        string     `json:"step_name" yaml:"name"`
	Description string     `json:"step_description,omitempty" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Section is an ordered group of steps.
type Section struct {
	ID          string `json:"section_id" yaml:"id"`
	Name        string `json:"section_name" yaml:"name"`
	Description string `json:"section_description,omitempty" yaml:"description"`
	Steps       []Step `json:"steps" yaml:"steps"`
}
