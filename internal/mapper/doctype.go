package mapper

import "strings"

// DocumentType is the kind of document a recognizer output looks like.
type DocumentType string

// Inferred document kinds.
const (
	DocPassport           DocumentType = "passport"
	DocAcademicTranscript DocumentType = "academic_transcript"
	DocBankStatement      DocumentType = "bank_statement"
	DocLanguageTest       DocumentType = "language_test"
	DocOther              DocumentType = "other"
)

// InferDocumentType classifies text by keyword. Rules are checked in order.
func InferDocumentType(text string) DocumentType {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "passport") || strings.Contains(t, "republic of india"):
		return DocPassport
	case strings.Contains(t, "mark") && (strings.Contains(t, "grade") || strings.Contains(t, "transcript")):
		return DocAcademicTranscript
	case strings.Contains(t, "bank") && strings.Contains(t, "statement"):
		return DocBankStatement
	case strings.Contains(t, "ielts") || strings.Contains(t, "toefl"):
		return DocLanguageTest
	default:
		return DocOther
	}
}
