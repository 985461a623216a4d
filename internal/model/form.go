package model

import "github.com/rotisserie/eris"

// FormType identifies an IRCC application form.
type FormType string

// Supported forms.
const (
	FormIMM1294 FormType = "IMM1294" // Study permit made outside Canada
	FormIMM5645 FormType = "IMM5645" // Family information
	FormIMM5257 FormType = "IMM5257" // Temporary resident visa
)

// FormTypes lists every supported form in generation order.
func FormTypes() []FormType {
	return []FormType{FormIMM1294, FormIMM5645, FormIMM5257}
}

// ParseFormType accepts the canonical upper-case code or its lower-case form.
func ParseFormType(s string) (FormType, error) {
	switch s {
	case "IMM1294", "imm1294":
		return FormIMM1294, nil
	case "IMM5645", "imm5645":
		return FormIMM5645, nil
	case "IMM5257", "imm5257":
		return FormIMM5257, nil
	}
	return "", eris.Errorf("unknown form type %q", s)
}

// FormField is one input on a form. Value is empty until auto-fill sets it.
type FormField struct {
	ID       string `json:"field_id"`
	Name     string `json:"field_name"`
	Type     string `json:"field_type"`
	Required bool   `json:"is_required"`
	HelpText string `json:"help_text,omitempty"`
	Value    string `json:"value"`
}

// FormSection groups fields under a heading.
type FormSection struct {
	ID           string      `json:"section_id"`
	Name         string      `json:"section_name"`
	Instructions string      `json:"instructions,omitempty"`
	Fields       []FormField `json:"fields"`
}

// FormTemplate is the static definition of a form.
type FormTemplate struct {
	Type     FormType      `json:"form_type"`
	Title    string        `json:"form_title"`
	Version  string        `json:"form_version"`
	Sections []FormSection `json:"sections"`
}

// FieldCount returns the number of fields across all sections.
func (t FormTemplate) FieldCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Fields)
	}
	return n
}

// FilledForm is a template instance after auto-fill.
type FilledForm struct {
	Type                 FormType      `json:"form_type"`
	Title                string        `json:"form_title"`
	Version              string        `json:"form_version"`
	Sections             []FormSection `json:"sections"`
	CompletionPercentage float64       `json:"completion_percentage"`
	IsValid              bool          `json:"is_valid"`
	ValidationErrors     []string      `json:"validation_errors"`
}

// Field returns the field with the given id, or nil.
func (f *FilledForm) Field(id string) *FormField {
	for i := range f.Sections {
		for j := range f.Sections[i].Fields {
			if f.Sections[i].Fields[j].ID == id {
				return &f.Sections[i].Fields[j]
			}
		}
	}
	return nil
}

// Values flattens filled fields into id -> value, skipping blanks.
func (f *FilledForm) Values() map[string]string {
	out := make(map[string]string)
	for _, s := range f.Sections {
		for _, fld := range s.Fields {
			if fld.Value != "" {
				out[fld.ID] = fld.Value
			}
		}
	}
	return out
}
