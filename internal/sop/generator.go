package sop

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/llm"
	"github.com/visamate/visamate/internal/metrics"
)

// Default word bounds.
const (
	DefaultMinWords = 800
	DefaultMaxWords = 1500
)

// PassingScore is the minimum quality score for a draft to meet
// requirements.
const PassingScore = 75.0

// Metrics are surface statistics of a draft.
type Metrics struct {
	WordCount         int     `json:"word_count"`
	Sentences         int     `json:"sentences"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	ReadabilityScore  float64 `json:"readability_score"`
	Sections          int     `json:"sections"`
}

// Breakdown holds the component scores behind a Quality.
type Breakdown struct {
	WordCount   float64 `json:"word_count_score"`
	Readability float64 `json:"readability_score"`
	Structure   float64 `json:"structure_score"`
	Content     float64 `json:"content_score"`
}

// Quality is the scored assessment of a draft.
type Quality struct {
	Score             float64   `json:"quality_score"`
	Feedback          []string  `json:"quality_feedback"`
	MeetsRequirements bool      `json:"meets_requirements"`
	Breakdown         Breakdown `json:"score_breakdown"`
}

// Result is a generated statement with its assessment.
type Result struct {
	Content     string    `json:"sop_content"`
	Metrics     Metrics   `json:"metrics"`
	Quality     Quality   `json:"quality"`
	ContextHash string    `json:"context_hash"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator drafts statements with an LLM.
type Generator struct {
	llm      llm.Generator
	minWords int
	maxWords int
	now      func() time.Time
}

// NewGenerator creates a Generator. Non-positive bounds fall back to the
// defaults.
func NewGenerator(gen llm.Generator, minWords, maxWords int) *Generator {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	if maxWords < minWords {
		maxWords = max(DefaultMaxWords, minWords)
	}
	return &Generator{llm: gen, minWords: minWords, maxWords: maxWords, now: time.Now}
}

// Generate validates c, asks the LLM for a draft and scores it.
func (g *Generator) Generate(ctx context.Context, c Context) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	prompt, err := BuildPrompt(c, g.minWords, g.maxWords)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("llm").Inc()
		return nil, apperr.Upstream("sop: generate", "llm", "", err)
	}
	content := PostProcess(raw)
	if content == "" {
		return nil, apperr.Upstream("sop: generate", "llm", "", eris.New("sop: empty draft"))
	}

	m := Measure(content)
	q := Assess(content, m, g.minWords, g.maxWords)
	metrics.SOPGenerated.WithLabelValues(metrics.Bool(q.MeetsRequirements)).Inc()

	zap.L().Info("sop: generated",
		zap.Int("word_count", m.WordCount),
		zap.Float64("quality_score", q.Score),
		zap.Bool("meets_requirements", q.MeetsRequirements),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Content:     content,
		Metrics:     m,
		Quality:     q,
		ContextHash: c.Hash(),
		GeneratedAt: g.now().UTC(),
	}, nil
}

// PostProcess trims every line, drops blank lines, separates the remaining
// lines as paragraphs and collapses double spaces.
func PostProcess(raw string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	out := strings.Join(lines, "\n\n")
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return out
}

var sectionIndicators = []string{
	"STATEMENT OF PURPOSE",
	"ACADEMIC BACKGROUND",
	"PROGRAM",
	"CAREER",
	"FINANCIAL",
	"TIES TO HOME",
	"CONCLUSION",
}

// Measure computes word, sentence and section statistics. Readability is a
// Flesch reading ease approximation based on sentence length alone.
func Measure(content string) Metrics {
	words := len(strings.Fields(content))
	if words == 0 {
		return Metrics{}
	}
	sentences := strings.Count(content, ".") + strings.Count(content, "!") + strings.Count(content, "?")
	avg := float64(words) / float64(max(sentences, 1))

	upper := strings.ToUpper(content)
	sections := 0
	for _, s := range sectionIndicators {
		if strings.Contains(upper, s) {
			sections++
		}
	}

	return Metrics{
		WordCount:         words,
		Sentences:         sentences,
		AvgSentenceLength: round(avg, 2),
		ReadabilityScore:  round(206.835-1.015*avg, 2),
		Sections:          sections,
	}
}

var keyElements = []struct {
	name     string
	keywords []string
}{
	{"personal introduction", []string{"i am", "my name is"}},
	{"program mention", []string{"program", "course", "study"}},
	{"career goals", []string{"career", "goal", "objective"}},
	{"financial capacity", []string{"fund", "financial", "money", "expense"}},
	{"return intention", []string{"return", "home country", "back to"}},
}

// Assess scores a draft on length, readability, structure and key content.
// The overall score is the mean of the four components.
func Assess(content string, m Metrics, minWords, maxWords int) Quality {
	var q Quality

	switch {
	case m.WordCount < minWords:
		q.Feedback = append(q.Feedback, fmt.Sprintf("SOP is too short (%d words). Minimum required: %d", m.WordCount, minWords))
		q.Breakdown.WordCount = 50
	case m.WordCount > maxWords:
		q.Feedback = append(q.Feedback, fmt.Sprintf("SOP is too long (%d words). Maximum allowed: %d", m.WordCount, maxWords))
		q.Breakdown.WordCount = 70
	default:
		q.Feedback = append(q.Feedback, fmt.Sprintf("Word count is appropriate (%d words)", m.WordCount))
		q.Breakdown.WordCount = 100
	}

	switch {
	case m.ReadabilityScore < 30:
		q.Feedback = append(q.Feedback, "SOP may be too complex. Consider simplifying language.")
		q.Breakdown.Readability = 60
	case m.ReadabilityScore > 80:
		q.Feedback = append(q.Feedback, "SOP may be too simple. Consider using more sophisticated language.")
		q.Breakdown.Readability = 70
	default:
		q.Feedback = append(q.Feedback, "Readability is appropriate")
		q.Breakdown.Readability = 90
	}

	if m.Sections < 5 {
		q.Feedback = append(q.Feedback, "SOP may be missing important sections")
		q.Breakdown.Structure = 60
	} else {
		q.Feedback = append(q.Feedback, "SOP contains all necessary sections")
		q.Breakdown.Structure = 95
	}

	lower := strings.ToLower(content)
	for _, el := range keyElements {
		if containsAny(lower, el.keywords) {
			q.Breakdown.Content += 20
		} else {
			q.Feedback = append(q.Feedback, "Missing or weak "+el.name)
		}
	}

	b := q.Breakdown
	q.Score = round((b.WordCount+b.Readability+b.Structure+b.Content)/4, 1)
	q.MeetsRequirements = q.Score >= PassingScore && m.WordCount >= minWords
	return q
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
