package mapper

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/visamate/visamate/internal/model"
)

// Result is the outcome of mapping one extraction.
type Result struct {
	DocumentType DocumentType        `json:"document_type"`
	Fields       model.ApplicantData `json:"fields"`
	Confidence   float64             `json:"confidence"`
}

const amountGroup = `(?:cad|can\$|\$)?\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`

var nationalities = []string{"indian", "chinese", "canadian", "american", "british", "australian", "german", "french"}

func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

func upper(raw string) (any, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return s, s != ""
}

func title(raw string) (any, bool) {
	s := titleCase(raw)
	return s, s != ""
}

// personName requires at least a first and a last name.
func personName(raw string) (any, bool) {
	s := titleCase(raw)
	if len(strings.Fields(s)) < 2 {
		return nil, false
	}
	return strings.Join(strings.Fields(s), " "), true
}

func amount(raw string) (any, bool) {
	f, ok := model.ToFloat(raw)
	if !ok || f <= 0 {
		return nil, false
	}
	return f, true
}

func bandScore(raw string) (any, bool) {
	f, ok := model.ToFloat(raw)
	if !ok || f <= 0 || f > 9 {
		return nil, false
	}
	return f, true
}

func scoreRule(label string) Rule {
	return Rule{
		Field:      label + "_score",
		Strategies: []Strategy{Pattern(label+`\s*:?\s*(\d+\.?\d*)`, bandScore)},
	}
}

// DefaultRules is the ordered OCR field rule list.
func DefaultRules() []Rule {
	return []Rule{
		{
			Field: "passport_number",
			Strategies: []Strategy{
				FormKey([]string{"passport", "number"}, nil, upper),
				Pattern(`passport\s*(?:no|number|#)?\s*:?\s*([A-Z0-9]{6,9})`, upper),
				Pattern(`passport\s*([A-Z0-9]{6,9})`, upper),
				Pattern(`([A-Z]{1,2}[0-9]{6,8})`, upper),
			},
		},
		{
			Field: "full_name",
			Strategies: []Strategy{
				FormKey(nil, []string{"name", "applicant", "student"}, personName),
				Pattern(`name\s*:?\s*([A-Za-z\s]{2,50})`, personName),
				Pattern(`applicant\s*:?\s*([A-Za-z\s]{2,50})`, personName),
				Pattern(`student\s*:?\s*([A-Za-z\s]{2,50})`, personName),
			},
		},
		{
			Field: "date_of_birth",
			Strategies: []Strategy{
				FormKey(nil, []string{"birth", "dob"}, Trimmed),
				Pattern(`(?:date\s*of\s*birth|dob|birth\s*date)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`, Trimmed),
				Pattern(`(?:born|birth)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`, Trimmed),
				Pattern(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`, Trimmed),
			},
		},
		{
			Field: "nationality",
			Strategies: []Strategy{
				FormKey(nil, []string{"nationality", "country"}, Trimmed),
				Keywords(nationalities, title),
			},
		},
		scoreRule("listening"),
		scoreRule("reading"),
		scoreRule("writing"),
		scoreRule("speaking"),
		scoreRule("overall"),
		{
			Field: "institution_name",
			Strategies: []Strategy{
				FormKey(nil, []string{"institution", "university", "college", "school"}, Trimmed),
				Pattern(`(?:university|college|institute|school)\s*(?:of|at)?\s*([A-Za-z\s]{2,50})`, title),
				Pattern(`([A-Za-z\s]{2,50})\s*(?:university|college|institute)`, title),
			},
		},
		{
			Field: "program_name",
			Strategies: []Strategy{
				FormKey(nil, []string{"program", "course", "degree", "major"}, Trimmed),
			},
		},
		{
			Field: "gic_amount",
			Strategies: []Strategy{
				Pattern(`gic\s*(?:amount)?\s*:?\s*`+amountGroup, amount),
				Pattern(`guaranteed\s*investment\s*certificate\s*:?\s*`+amountGroup, amount),
			},
		},
		{
			Field: "tuition_amount",
			Strategies: []Strategy{
				Pattern(`tuition\s*(?:fee|fees)?\s*:?\s*`+amountGroup, amount),
				Pattern(`program\s*fee\s*:?\s*`+amountGroup, amount),
			},
		},
	}
}

// OCRMapper maps recognizer output with a fixed rule list.
type OCRMapper struct {
	rules []Rule
}

// NewOCRMapper creates a mapper. Nil rules means DefaultRules.
func NewOCRMapper(rules []Rule) *OCRMapper {
	if rules == nil {
		rules = DefaultRules()
	}
	return &OCRMapper{rules: rules}
}

// Map extracts canonical fields from ext. Fields with no match are omitted.
// The output depends only on ext.
func (m *OCRMapper) Map(ext *model.Extraction) Result {
	text := strings.ToLower(ext.Text())
	in := Input{Text: text}
	if ext != nil {
		in.Pairs = ext.FormPairs
	}

	fields := Apply(m.rules, in)
	res := Result{
		DocumentType: InferDocumentType(text),
		Fields:       fields,
		Confidence:   ext.AverageConfidence(),
	}
	zap.L().Debug("mapper: mapped extraction",
		zap.String("document_type", string(res.DocumentType)),
		zap.Int("fields", len(fields)),
	)
	return res
}

// MapOCR maps ext with the default rules.
func MapOCR(ext *model.Extraction) Result {
	return defaultMapper.Map(ext)
}

var defaultMapper = NewOCRMapper(nil)
