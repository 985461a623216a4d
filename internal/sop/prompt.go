package sop

import (
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const promptText = `You are an expert immigration consultant specializing in Canada study visa applications.
Write a compelling, authentic and professional Statement of Purpose (SOP) for a Canada study permit application.

REQUIREMENTS:
- Word count: {{.MinWords}}-{{.MaxWords}} words
- Tone: professional, sincere and confident
- Structure: clear sections with headings, including ACADEMIC BACKGROUND, PROGRAM, CAREER, FINANCIAL, TIES TO HOME and CONCLUSION
- Content: specific and personal; address every concern a visa officer may have
- Output plain text only

APPLICANT PROFILE:
Name: {{or .C.FullName "N/A"}}
Age: {{if .C.Age}}{{.C.Age}}{{else}}N/A{{end}}
Nationality: {{or .C.Nationality "N/A"}}
Current Location: {{or .C.CurrentLocation "N/A"}}
Language Proficiency: IELTS {{if .C.IELTSScore}}{{.C.IELTSScore}}{{else}}N/A{{end}}

ACADEMIC BACKGROUND:
Highest Qualification: {{or .C.HighestQualification "N/A"}}
Institution: {{or .C.InstitutionName "N/A"}}
Field of Study: {{or .C.FieldOfStudy "N/A"}}
Graduation Year: {{if .C.GraduationYear}}{{.C.GraduationYear}}{{else}}N/A{{end}}
Academic Performance: {{if .C.GPAPercentage}}{{.C.GPAPercentage}}%{{else}}N/A{{end}}

PROPOSED STUDY:
Program: {{or .C.ProgramName "N/A"}}
Institution: {{or .C.InstitutionCanada "N/A"}}
Duration: {{or .C.ProgramDuration "N/A"}}
Intake: {{or .C.IntakeTerm "N/A"}}
Tuition Fees: {{cad .C.TuitionFees}}

FINANCIAL CAPACITY:
Total Funds Available: {{cad .C.TotalFundsAvailable}}
Funding Source: {{or .C.FundingSource "N/A"}}
Sponsor: {{or .C.SponsorRelationship "Self-funded"}}

CAREER GOALS:
Work Experience: {{.C.WorkExperienceYears}} years
Current Position: {{or .C.CurrentJobTitle "Student/Recent Graduate"}}
Career Goals: {{or .C.CareerGoals "N/A"}}
Return Plans: {{or .C.ReturnIntention "N/A"}}
How Program Helps: {{or .C.HowProgramHelps "N/A"}}
Home Country Ties: {{or .C.TiesToHomeCountry "Strong family connections"}}

Write a statement that convinces the visa officer of genuine intent to study and return home.
`

var printer = message.NewPrinter(language.English)

var promptTmpl = template.Must(template.New("sop").Funcs(template.FuncMap{
	"cad": func(f float64) string { return printer.Sprintf("CAD $%.2f", f) },
}).Parse(promptText))

type promptData struct {
	C        Context
	MinWords int
	MaxWords int
}

// BuildPrompt renders the generation prompt for c within the word bounds.
func BuildPrompt(c Context, minWords, maxWords int) (string, error) {
	var b strings.Builder
	if err := promptTmpl.Execute(&b, promptData{C: c, MinWords: minWords, MaxWords: maxWords}); err != nil {
		return "", eris.Wrap(err, "sop: render prompt")
	}
	return b.String(), nil
}
