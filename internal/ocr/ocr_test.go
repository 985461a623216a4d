package ocr

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/config"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/resilience"
)

type mockTextract struct{ mock.Mock }

func (m *mockTextract) AnalyzeDocument(ctx context.Context, in *textract.AnalyzeDocumentInput, _ ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*textract.AnalyzeDocumentOutput)
	return out, args.Error(1)
}

func block(id string, bt types.BlockType, text string, opts ...func(*types.Block)) types.Block {
	b := types.Block{Id: aws.String(id), BlockType: bt}
	if text != "" {
		b.Text = aws.String(text)
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func children(ids ...string) func(*types.Block) {
	return func(b *types.Block) {
		b.Relationships = append(b.Relationships, types.Relationship{Type: types.RelationshipTypeChild, Ids: ids})
	}
}

func value(id string) func(*types.Block) {
	return func(b *types.Block) {
		b.Relationships = append(b.Relationships, types.Relationship{Type: types.RelationshipTypeValue, Ids: []string{id}})
	}
}

func entity(et types.EntityType) func(*types.Block) {
	return func(b *types.Block) { b.EntityTypes = []types.EntityType{et} }
}

func confidence(c float32) func(*types.Block) {
	return func(b *types.Block) { b.Confidence = aws.Float32(c) }
}

func passportBlocks() []types.Block {
	return []types.Block{
		block("p", types.BlockTypePage, ""),
		block("l1", types.BlockTypeLine, "REPUBLIC OF INDIA", confidence(99.5)),
		block("l2", types.BlockTypeLine, "Passport No: K1234567", confidence(90.5)),
		block("k1", types.BlockTypeKeyValueSet, "", entity(types.EntityTypeKey), children("w1", "w2"), value("v1")),
		block("v1", types.BlockTypeKeyValueSet, "", entity(types.EntityTypeValue), children("w3")),
		block("w1", types.BlockTypeWord, "Passport"),
		block("w2", types.BlockTypeWord, "No"),
		block("w3", types.BlockTypeWord, "K1234567"),
		block("k2", types.BlockTypeKeyValueSet, "", entity(types.EntityTypeKey), children("w4"), value("v2")),
		block("v2", types.BlockTypeKeyValueSet, "", entity(types.EntityTypeValue), children("s1")),
		block("w4", types.BlockTypeWord, "Married"),
		{Id: aws.String("s1"), BlockType: types.BlockTypeSelectionElement, SelectionStatus: types.SelectionStatusSelected},
		block("k3", types.BlockTypeKeyValueSet, "", entity(types.EntityTypeKey), value("v3")),
	}
}

func TestFromBlocks(t *testing.T) {
	t.Parallel()

	ext := FromBlocks(passportBlocks())
	require.Len(t, ext.Lines, 2)
	assert.Equal(t, "Passport No: K1234567", ext.Lines[1].Text)
	assert.InDelta(t, 95.0, ext.AverageConfidence(), 0.001)
	assert.Equal(t, []model.FormPair{
		{Key: "Passport No", Value: "K1234567"},
		{Key: "Married", Value: "X"},
	}, ext.FormPairs)
}

func TestFromBlocks_Empty(t *testing.T) {
	t.Parallel()

	ext := FromBlocks(nil)
	assert.NotNil(t, ext.Lines)
	assert.NotNil(t, ext.FormPairs)
	assert.Empty(t, ext.Text())
}

func TestTextract_Extract(t *testing.T) {
	t.Parallel()

	api := new(mockTextract)
	api.On("AnalyzeDocument", mock.Anything, mock.MatchedBy(func(in *textract.AnalyzeDocumentInput) bool {
		return bytes.Equal(in.Document.Bytes, []byte("img")) && in.FeatureTypes[0] == types.FeatureTypeForms
	})).Return(&textract.AnalyzeDocumentOutput{Blocks: passportBlocks()}, nil)

	ext, err := NewTextract(api).Extract(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Len(t, ext.FormPairs, 2)
	api.AssertExpectations(t)
}

func TestTextract_RetriesThrottling(t *testing.T) {
	t.Parallel()

	api := new(mockTextract)
	api.On("AnalyzeDocument", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("ThrottlingException"), 429)).Once()
	api.On("AnalyzeDocument", mock.Anything, mock.Anything).
		Return(&textract.AnalyzeDocumentOutput{}, nil).Once()

	ext, err := NewTextract(api).Extract(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Empty(t, ext.Lines)
	api.AssertNumberOfCalls(t, "AnalyzeDocument", 2)
}

func TestTextract_PermanentError(t *testing.T) {
	t.Parallel()

	api := new(mockTextract)
	api.On("AnalyzeDocument", mock.Anything, mock.Anything).
		Return(nil, errors.New("UnsupportedDocumentException"))

	_, err := NewTextract(api).Extract(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "textract analyze document")
	api.AssertNumberOfCalls(t, "AnalyzeDocument", 1)
}

func TestNewRecognizer(t *testing.T) {
	t.Parallel()

	r, err := NewRecognizer(config.OCRConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &PDFText{}, r)

	_, err = NewRecognizer(config.OCRConfig{Provider: "textract"}, nil)
	assert.Error(t, err)

	r, err = NewRecognizer(config.OCRConfig{Provider: "textract"}, new(mockTextract))
	require.NoError(t, err)
	assert.IsType(t, &Textract{}, r)

	_, err = NewRecognizer(config.OCRConfig{Provider: "tesseract"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "tesseract"`)
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	ct, ok := ContentTypeFor("scan.JPG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)

	_, ok = ContentTypeFor("notes.docx")
	assert.False(t, ok)
}

func samplePDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		pdf.Cell(0, 8, l)
		pdf.Ln(8)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPDFText_Extract(t *testing.T) {
	t.Parallel()

	data := samplePDF(t, "IELTS Test Report Form", "Overall Band Score 7.5")
	ext, err := NewPDFText().Extract(context.Background(), data, "application/pdf")
	require.NoError(t, err)
	require.NotEmpty(t, ext.Lines)
	assert.Contains(t, ext.Text(), "IELTS")
	assert.InDelta(t, 100.0, ext.AverageConfidence(), 0.001)
	assert.Empty(t, ext.FormPairs)
}

func TestPDFText_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewPDFText().Extract(context.Background(), []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read image/png")

	_, err = NewPDFText().Extract(context.Background(), []byte("not a pdf"), "application/pdf")
	assert.Error(t, err)
}

func TestLinesFromText(t *testing.T) {
	t.Parallel()

	lines := linesFromText("  a \n\n b\n", 50)
	assert.Equal(t, []model.Line{{Text: "a", Confidence: 50}, {Text: "b", Confidence: 50}}, lines)
}
