// Package sop drafts a statement of purpose for a study permit application
// and scores the draft against length, structure and content checks.
package sop

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

// Context is the applicant profile a statement is written from. Zero numeric
// values mean unknown.
type Context struct {
	FullName        string  `json:"full_name"`
	Age             int     `json:"age,omitempty"`
	Nationality     string  `json:"nationality"`
	CurrentLocation string  `json:"current_location,omitempty"`
	IELTSScore      float64 `json:"ielts_score,omitempty"`

	HighestQualification string  `json:"highest_qualification,omitempty"`
	InstitutionName      string  `json:"institution_name,omitempty"`
	GraduationYear       int     `json:"graduation_year,omitempty"`
	GPAPercentage        float64 `json:"gpa_percentage,omitempty"`
	FieldOfStudy         string  `json:"field_of_study,omitempty"`

	ProgramName       string  `json:"program_name"`
	InstitutionCanada string  `json:"institution_canada"`
	ProgramDuration   string  `json:"program_duration,omitempty"`
	IntakeTerm        string  `json:"intake_term,omitempty"`
	TuitionFees       float64 `json:"tuition_fees,omitempty"`

	WorkExperienceYears int    `json:"work_experience_years,omitempty"`
	CurrentJobTitle     string `json:"current_job_title,omitempty"`

	TotalFundsAvailable float64 `json:"total_funds_available"`
	FundingSource       string  `json:"funding_source,omitempty"`
	SponsorRelationship string  `json:"sponsor_relationship,omitempty"`

	CareerGoals       string `json:"career_goals"`
	ReturnIntention   string `json:"return_intention,omitempty"`
	HowProgramHelps   string `json:"how_program_helps,omitempty"`
	TiesToHomeCountry string `json:"ties_to_home_country,omitempty"`
}

// FromData builds a Context from canonical applicant data. The Canadian
// institution falls back to institution_name, which is where acceptance
// letters and the wizard record it, and available funds fall back to the
// GIC amount. Age is derived from date_of_birth relative to now.
func FromData(data model.ApplicantData, now time.Time) Context {
	text := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := data.Text(k); ok {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	num := func(keys ...string) float64 {
		for _, k := range keys {
			if f, ok := model.ToFloat(data[k]); ok {
				return f
			}
		}
		return 0
	}

	c := Context{
		FullName:             text("full_name"),
		Nationality:          text("nationality", "passport_country_code"),
		CurrentLocation:      text("current_location", "current_residence"),
		IELTSScore:           num("ielts_score", "overall_score"),
		HighestQualification: text("highest_qualification"),
		InstitutionName:      text("previous_institution"),
		GraduationYear:       int(num("graduation_year")),
		GPAPercentage:        num("gpa_percentage"),
		FieldOfStudy:         text("field_of_study"),
		ProgramName:          text("program_name"),
		InstitutionCanada:    text("institution_canada", "institution_name"),
		ProgramDuration:      text("program_duration"),
		IntakeTerm:           text("intake_term", "program_start_date"),
		TuitionFees:          num("tuition_fees", "tuition_amount"),
		WorkExperienceYears:  int(num("work_experience_years")),
		CurrentJobTitle:      text("current_job_title"),
		TotalFundsAvailable:  num("total_funds_available", "gic_amount"),
		FundingSource:        text("funding_source"),
		SponsorRelationship:  text("sponsor_relationship"),
		CareerGoals:          text("career_goals"),
		ReturnIntention:      text("return_intention"),
		HowProgramHelps:      text("how_program_helps"),
		TiesToHomeCountry:    text("ties_to_home_country"),
	}
	if age := int(num("age")); age > 0 {
		c.Age = age
	} else if dob, ok := data.Text("date_of_birth"); ok {
		c.Age = ageAt(dob, now)
	}
	return c
}

func ageAt(dob string, now time.Time) int {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006/01/02"} {
		t, err := time.Parse(layout, strings.TrimSpace(dob))
		if err != nil {
			continue
		}
		age := now.Year() - t.Year()
		if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
			age--
		}
		return age
	}
	return 0
}

// Validate checks the fields a statement cannot be written without.
func (c Context) Validate() error {
	const op = "sop: validate"
	required := []struct {
		name  string
		value string
	}{
		{"full_name", c.FullName},
		{"nationality", c.Nationality},
		{"program_name", c.ProgramName},
		{"institution_canada", c.InstitutionCanada},
		{"career_goals", c.CareerGoals},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(op, r.name, "is missing or empty")
		}
	}
	if c.TotalFundsAvailable <= 0 {
		return apperr.Validation(op, "total_funds_available", "must be greater than 0")
	}
	if c.Age < 0 || c.Age > 100 {
		return apperr.Validation(op, "age", "must be between 1 and 100")
	}
	if c.GPAPercentage < 0 || c.GPAPercentage > 100 {
		return apperr.Validation(op, "gpa_percentage", "must be between 0 and 100")
	}
	if c.TuitionFees < 0 {
		return apperr.Validation(op, "tuition_fees", "must be greater than 0")
	}
	return nil
}

// Hash is a short fingerprint of c used to tell drafts of different
// profiles apart.
func (c Context) Hash() string {
	sum := md5.Sum([]byte(fmt.Sprintf("%+v", c)))
	return hex.EncodeToString(sum[:])[:16]
}
