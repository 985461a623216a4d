package forms

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

// Fill instantiates the template for ft and fills it from data. The result
// depends only on ft and data.
func Fill(ft model.FormType, data model.ApplicantData) (*model.FilledForm, error) {
	tmpl, err := Template(ft)
	if err != nil {
		return nil, err
	}
	mapping, err := mappingFor(ft)
	if err != nil {
		return nil, err
	}

	form := &model.FilledForm{
		Type:             tmpl.Type,
		Title:            tmpl.Title,
		Version:          tmpl.Version,
		Sections:         tmpl.Sections,
		ValidationErrors: []string{},
	}

	total, filled := 0, 0
	for i := range form.Sections {
		for j := range form.Sections[i].Fields {
			f := &form.Sections[i].Fields[j]
			total++
			if src, ok := mapping[f.ID]; ok {
				if v, ok := src(data); ok && strings.TrimSpace(v) != "" {
					f.Value = v
				}
			}
			if f.Value != "" {
				filled++
			} else if f.Required {
				form.ValidationErrors = append(form.ValidationErrors, fmt.Sprintf("Required field '%s' is empty", f.Name))
			}
		}
	}

	if total > 0 {
		form.CompletionPercentage = math.Round(float64(filled)/float64(total)*1000) / 10
	}
	form.IsValid = len(form.ValidationErrors) == 0
	return form, nil
}

// VisaPolicy decides which passport countries need a temporary resident
// visa. Codes are ISO 3166-1 alpha-3, compared case-insensitively.
type VisaPolicy struct {
	countries map[string]bool
}

// DefaultVisaRequiredCountries is used when no list is configured.
var DefaultVisaRequiredCountries = []string{"IND", "CHN", "PAK", "BGD", "NPL", "LKA", "NGA"}

// NewVisaPolicy builds a policy from codes. An empty list yields the default.
func NewVisaPolicy(codes []string) VisaPolicy {
	if len(codes) == 0 {
		codes = DefaultVisaRequiredCountries
	}
	p := VisaPolicy{countries: make(map[string]bool, len(codes))}
	for _, c := range codes {
		p.countries[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return p
}

// Requires reports whether holders of code's passport need a visa.
func (p VisaPolicy) Requires(code string) bool {
	return p.countries[strings.ToUpper(strings.TrimSpace(code))]
}

// Filler produces the set of forms an applicant needs.
type Filler struct {
	Policy VisaPolicy
}

// NewFiller creates a Filler with the given policy.
func NewFiller(policy VisaPolicy) *Filler {
	return &Filler{Policy: policy}
}

// NeedsVisitorVisa reports whether data's passport country is visa-required.
func (f *Filler) NeedsVisitorVisa(data model.ApplicantData) bool {
	code, ok := data.Text("passport_country_code")
	return ok && f.Policy.Requires(code)
}

// RequiredForms lists the forms FillAllRequired will produce for data.
func (f *Filler) RequiredForms(data model.ApplicantData) []model.FormType {
	out := []model.FormType{model.FormIMM1294, model.FormIMM5645}
	if f.NeedsVisitorVisa(data) {
		out = append(out, model.FormIMM5257)
	}
	return out
}

// FillAllRequired fills IMM1294 and IMM5645, plus IMM5257 when the passport
// country needs a visitor visa.
func (f *Filler) FillAllRequired(data model.ApplicantData) (map[model.FormType]*model.FilledForm, error) {
	out := make(map[model.FormType]*model.FilledForm)
	for _, ft := range f.RequiredForms(data) {
		form, err := Fill(ft, data)
		if err != nil {
			return nil, eris.Wrapf(err, "forms: fill %s", ft)
		}
		out[ft] = form
	}
	return out, nil
}
