package model

import "time"

// DocumentType identifies an entry on the application checklist.
type DocumentType string

// Checklist document types.
const (
	DocIMM1294             DocumentType = "imm1294"
	DocIMM5645             DocumentType = "imm5645"
	DocIMM5257             DocumentType = "imm5257"
	DocEducationTranscript DocumentType = "education_transcript"
	DocGICProof            DocumentType = "gic_proof"
	DocTuitionPayment      DocumentType = "tuition_payment"
	DocIELTSResults        DocumentType = "ielts_results"
	DocAcceptanceLetter    DocumentType = "acceptance_letter"
	DocPassport            DocumentType = "passport"
	DocPALTAL              DocumentType = "pal_tal"
	DocDigitalPhoto        DocumentType = "digital_photo"
	DocMedicalExam         DocumentType = "medical_exam"
	DocClientInfo          DocumentType = "client_info"
	DocAdditional          DocumentType = "additional_docs"
)

var knownDocumentTypes = map[DocumentType]bool{
	DocIMM1294: true, DocIMM5645: true, DocIMM5257: true,
	DocEducationTranscript: true, DocGICProof: true, DocTuitionPayment: true,
	DocIELTSResults: true, DocAcceptanceLetter: true, DocPassport: true,
	DocPALTAL: true, DocDigitalPhoto: true, DocMedicalExam: true,
	DocClientInfo: true, DocAdditional: true,
}

// Valid reports whether t is a known checklist document type.
func (t DocumentType) Valid() bool {
	return knownDocumentTypes[t]
}

// DocumentStatus tracks an upload through OCR processing.
type DocumentStatus string

// Upload lifecycle states.
const (
	DocumentPending    DocumentStatus = "pending"
	DocumentUploading  DocumentStatus = "uploading"
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is the metadata record for an uploaded file.
type Document struct {
	ID              string         `json:"document_id"`
	SessionID       string         `json:"session_id"`
	DocumentType    DocumentType   `json:"document_type"`
	FileName        string         `json:"file_name"`
	ContentType     string         `json:"content_type"`
	FileSize        int64          `json:"file_size"`
	StorageKey      string         `json:"s3_key"`
	Status          DocumentStatus `json:"status"`
	DetectedType    string         `json:"detected_type,omitempty"`
	ExtractedFields ApplicantData  `json:"extracted_fields,omitempty"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ChecklistItem is one entry in the document checklist.
type ChecklistItem struct {
	DocumentType DocumentType `json:"document_type"`
	DocumentName string       `json:"document_name"`
	IsRequired   bool         `json:"is_required"`
	IsUploaded   bool         `json:"is_uploaded"`
	Instructions string       `json:"instructions,omitempty"`
}

// Checklist is the full set of documents for a study permit application.
type Checklist struct {
	ApplicationForms    []ChecklistItem `json:"application_forms"`
	SupportingDocuments []ChecklistItem `json:"supporting_documents"`
	OptionalDocuments   []ChecklistItem `json:"optional_documents"`
	TotalFeeCAD         float64         `json:"total_fee_cad"`
}
