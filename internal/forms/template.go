// Package forms holds the IRCC form templates and fills them from canonical
// applicant data.
package forms

import (
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

func field(id, name, typ string, required bool) model.FormField {
	return model.FormField{ID: id, Name: name, Type: typ, Required: required}
}

func optional(id, name, typ, help string) model.FormField {
	return model.FormField{ID: id, Name: name, Type: typ, HelpText: help}
}

var imm1294 = model.FormTemplate{
	Type:    model.FormIMM1294,
	Title:   "Application for Study Permit Made Outside of Canada",
	Version: "11-2023",
	Sections: []model.FormSection{
		{
			ID:           "personal_details",
			Name:         "Personal Details",
			Instructions: "Provide your personal information as it appears on your passport",
			Fields: []model.FormField{
				field("family_name", "Family name (surname)", "text", true),
				field("given_names", "Given name(s) (first name)", "text", true),
				optional("other_names", "Other names (if applicable)", "text", "Include any other names you have used"),
				field("date_of_birth", "Date of birth", "date", true),
				field("country_of_birth", "Country of birth", "select", true),
				field("place_of_birth", "Place of birth (city/town)", "text", true),
				field("sex", "Sex", "select", true),
				field("marital_status", "Marital status", "select", true),
			},
		},
		{
			ID:           "passport_travel_doc",
			Name:         "Passport or Travel Document",
			Instructions: "Provide details of your current passport or travel document",
			Fields: []model.FormField{
				field("passport_number", "Passport/Document number", "text", true),
				field("passport_country", "Country of issue", "select", true),
				field("passport_issue_date", "Date of issue", "date", true),
				field("passport_expiry_date", "Date of expiry", "date", true),
			},
		},
		{
			ID:           "contact_info",
			Name:         "Contact Information",
			Instructions: "Provide your current contact information",
			Fields: []model.FormField{
				field("mailing_address", "Mailing address", "textarea", true),
				field("residential_address", "Residential address", "textarea", true),
				field("telephone", "Telephone number", "text", true),
				field("email", "Email address", "email", true),
			},
		},
		{
			ID:           "education_occupation",
			Name:         "Education and Occupation",
			Instructions: "Provide details about your education and current occupation",
			Fields: []model.FormField{
				field("education_level", "Level of education", "select", true),
				field("current_occupation", "Current occupation", "text", true),
				field("intended_occupation", "Intended occupation in Canada", "text", true),
			},
		},
		{
			ID:           "details_study",
			Name:         "Details of Study",
			Instructions: "Provide information about your intended studies in Canada",
			Fields: []model.FormField{
				field("level_of_study", "Level of study", "select", true),
				field("field_of_study", "Field of study", "text", true),
				field("institution_name", "Name of institution", "text", true),
				field("institution_address", "Address of institution", "textarea", true),
				field("program_duration", "Duration of program", "text", true),
				field("program_start_date", "Program start date", "date", true),
				field("tuition_fees", "Tuition fees (CAD)", "number", true),
			},
		},
		{
			ID:           "funds_financial_support",
			Name:         "Funds and Financial Support",
			Instructions: "Provide details about your financial support for studies",
			Fields: []model.FormField{
				field("funds_available", "Funds available for my stay (CAD)", "number", true),
				field("source_of_funds", "Source of funds", "textarea", true),
				optional("scholarship", "Scholarship/Fellowship details", "textarea", "Describe any scholarship or fellowship you have received"),
			},
		},
		{
			ID:           "background_info",
			Name:         "Background Information",
			Instructions: "Answer all questions truthfully",
			Fields: []model.FormField{
				field("previous_study_permit", "Have you previously applied for a study permit?", "radio", true),
				field("refused_visa", "Have you been refused a visa or permit?", "radio", true),
				field("medical_exam", "Have you had a medical exam?", "radio", true),
				field("criminal_charges", "Have you ever been charged with a criminal offence?", "radio", true),
			},
		},
	},
}

var imm5645 = model.FormTemplate{
	Type:    model.FormIMM5645,
	Title:   "Family Information",
	Version: "01-2024",
	Sections: []model.FormSection{
		{
			ID:           "applicant_info",
			Name:         "Applicant Information",
			Instructions: "Provide information about yourself",
			Fields: []model.FormField{
				field("family_name", "Family name", "text", true),
				field("given_names", "Given names", "text", true),
				field("date_of_birth", "Date of birth", "date", true),
				field("place_of_birth", "Place of birth", "text", true),
			},
		},
		{
			ID:           "family_members",
			Name:         "Family Members",
			Instructions: "List all family members, whether accompanying you or not",
			Fields: []model.FormField{
				optional("spouse_info", "Spouse information", "textarea", "Name, date of birth and address of your spouse or common-law partner"),
				optional("children_info", "Children information", "textarea", "Name, date of birth and address of each child"),
				field("parents_info", "Parents information", "textarea", true),
				optional("siblings_info", "Siblings information", "textarea", "Name, date of birth and address of each brother or sister"),
			},
		},
	},
}

var imm5257 = model.FormTemplate{
	Type:    model.FormIMM5257,
	Title:   "Application for Temporary Resident Visa Made Outside Canada",
	Version: "03-2014",
	Sections: []model.FormSection{
		{
			ID:           "personal_details",
			Name:         "Personal Details",
			Instructions: "Provide your personal information",
			Fields: []model.FormField{
				field("family_name", "Family name", "text", true),
				field("given_names", "Given names", "text", true),
				field("date_of_birth", "Date of birth", "date", true),
				field("country_of_birth", "Country of birth", "select", true),
			},
		},
		{
			ID:           "travel_info",
			Name:         "Travel Information",
			Instructions: "Provide details about your intended travel to Canada",
			Fields: []model.FormField{
				field("purpose_of_visit", "Purpose of visit", "select", true),
				field("intended_date_arrival", "Intended date of arrival", "date", true),
				field("intended_length_stay", "Intended length of stay", "text", true),
			},
		},
	},
}

// Template returns a deep copy of the template for ft.
func Template(ft model.FormType) (model.FormTemplate, error) {
	var t model.FormTemplate
	switch ft {
	case model.FormIMM1294:
		t = imm1294
	case model.FormIMM5645:
		t = imm5645
	case model.FormIMM5257:
		t = imm5257
	default:
		return model.FormTemplate{}, eris.Errorf("forms: no template for %q", ft)
	}
	t.Sections = cloneSections(t.Sections)
	return t, nil
}

// Instructions is the reviewer hint shown next to a prefilled form.
func Instructions(ft model.FormType) string {
	switch ft {
	case model.FormIMM1294:
		return "Review and complete remaining fields in the Study Permit application"
	case model.FormIMM5645:
		return "Verify family information and add missing details"
	case model.FormIMM5257:
		return "Complete if you need a Temporary Resident Visa"
	default:
		return ""
	}
}

func cloneSections(in []model.FormSection) []model.FormSection {
	out := make([]model.FormSection, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Fields = append([]model.FormField(nil), s.Fields...)
	}
	return out
}
