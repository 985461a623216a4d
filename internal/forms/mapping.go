package forms

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

// source resolves one form field from canonical data.
type source func(d model.ApplicantData) (string, bool)

// from takes the first present key.
func from(keys ...string) source {
	return func(d model.ApplicantData) (string, bool) {
		for _, k := range keys {
			if s, ok := d.Text(k); ok {
				return s, true
			}
		}
		return "", false
	}
}

// or tries src, then the fallback sources in order.
func or(src source, fallbacks ...source) source {
	return func(d model.ApplicantData) (string, bool) {
		if s, ok := src(d); ok {
			return s, true
		}
		for _, f := range fallbacks {
			if s, ok := f(d); ok {
				return s, true
			}
		}
		return "", false
	}
}

func constant(s string) source {
	return func(model.ApplicantData) (string, bool) { return s, true }
}

// yesNo renders a flag as Yes or No. A missing flag renders as No.
func yesNo(key string) source {
	return func(d model.ApplicantData) (string, bool) {
		if model.IsTruthy(d[key]) {
			return "Yes", true
		}
		return "No", true
	}
}

// familyName is the last word of full_name.
func familyName(d model.ApplicantData) (string, bool) {
	parts := nameParts(d)
	if len(parts) == 0 {
		return "", false
	}
	return parts[len(parts)-1], true
}

// givenNames is everything before the last word of full_name.
func givenNames(d model.ApplicantData) (string, bool) {
	parts := nameParts(d)
	if len(parts) < 2 {
		return "", false
	}
	return strings.Join(parts[:len(parts)-1], " "), true
}

func nameParts(d model.ApplicantData) []string {
	s, ok := d.Text("full_name")
	if !ok {
		return nil
	}
	return strings.Fields(s)
}

// SingleMaritalStatus is the marital status that makes spouse details not
// applicable.
const SingleMaritalStatus = "Never Married/Single"

func spouseNotApplicable(d model.ApplicantData) (string, bool) {
	if s, ok := d.Text("marital_status"); ok && s == SingleMaritalStatus {
		return "Not applicable", true
	}
	return "", false
}

var personal = map[string]source{
	"family_name":      or(from("family_name"), familyName),
	"given_names":      or(from("given_names"), givenNames),
	"date_of_birth":    from("date_of_birth"),
	"country_of_birth": from("country_of_birth", "passport_country_code"),
}

var imm1294Mapping = merge(personal, map[string]source{
	"other_names":           from("other_names"),
	"place_of_birth":        from("place_of_birth"),
	"sex":                   from("sex"),
	"marital_status":        or(from("marital_status"), constant(SingleMaritalStatus)),
	"passport_number":       from("passport_number"),
	"passport_country":      from("passport_country_code"),
	"passport_issue_date":   from("passport_issue_date"),
	"passport_expiry_date":  from("passport_expiry_date"),
	"mailing_address":       from("mailing_address"),
	"residential_address":   from("residential_address"),
	"telephone":             from("telephone"),
	"email":                 from("email"),
	"education_level":       from("education_level"),
	"current_occupation":    from("current_occupation"),
	"intended_occupation":   from("intended_occupation"),
	"level_of_study":        from("level_of_study"),
	"field_of_study":        from("field_of_study", "program_name"),
	"institution_name":      from("institution_name"),
	"institution_address":   from("institution_address"),
	"program_duration":      from("program_duration"),
	"program_start_date":    from("program_start_date"),
	"tuition_fees":          from("tuition_amount"),
	"funds_available":       from("gic_amount"),
	"source_of_funds":       from("funding_source"),
	"scholarship":           from("scholarship_details"),
	"previous_study_permit": from("previous_study_permit"),
	"refused_visa":          from("refused_visa"),
	"medical_exam":          yesNo("has_medical_exam"),
	"criminal_charges":      yesNo("criminal_background"),
})

var imm5645Mapping = merge(personal, map[string]source{
	"place_of_birth": from("place_of_birth", "current_residence"),
	"spouse_info":    or(from("spouse_info"), spouseNotApplicable),
	"children_info":  from("children_info"),
	"parents_info":   or(from("parents_info"), constant("To be provided based on family questionnaire")),
	"siblings_info":  from("siblings_info"),
})

var imm5257Mapping = merge(personal, map[string]source{
	"purpose_of_visit":      constant("Study"),
	"intended_date_arrival": from("program_start_date"),
	"intended_length_stay":  from("program_duration"),
})

// mappingFor is the single dispatch point from form type to its field
// table. Adding a FormType without a case here fails every Fill for it.
func mappingFor(ft model.FormType) (map[string]source, error) {
	switch ft {
	case model.FormIMM1294:
		return imm1294Mapping, nil
	case model.FormIMM5645:
		return imm5645Mapping, nil
	case model.FormIMM5257:
		return imm5257Mapping, nil
	default:
		return nil, eris.Errorf("forms: no field mapping for %q", ft)
	}
}

func merge(base, extra map[string]source) map[string]source {
	out := make(map[string]source, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
