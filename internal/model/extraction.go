package model

import "strings"

// Line is one recognized line of text.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// FormPair is a key/value pair recognized on a structured form.
type FormPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Extraction is the raw output of a text recognizer.
type Extraction struct {
	Lines     []Line     `json:"lines"`
	FormPairs []FormPair `json:"form_pairs"`
}

// Text joins all lines with single spaces.
func (e *Extraction) Text() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " ")
}

// AverageConfidence returns the mean line confidence, or 0 with no lines.
func (e *Extraction) AverageConfidence() float64 {
	if e == nil || len(e.Lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range e.Lines {
		sum += l.Confidence
	}
	return sum / float64(len(e.Lines))
}

// OCRCompleteEvent is published after a document has been mapped.
type OCRCompleteEvent struct {
	Type         string        `json:"type"`
	SessionID    string        `json:"session_id"`
	DocumentID   string        `json:"document_id"`
	DocumentType string        `json:"document_type"`
	MappedFields ApplicantData `json:"mapped_fields"`
	Confidence   float64       `json:"confidence"`
}
