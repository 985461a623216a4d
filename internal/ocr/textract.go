package ocr

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/resilience"
)

// TextractAPI is the subset of the Textract client used here.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Textract recognizes lines and form key/value pairs with AWS Textract.
type Textract struct {
	api     TextractAPI
	breaker *resilience.Breaker
}

// NewTextract wraps an AnalyzeDocument client.
func NewTextract(api TextractAPI) *Textract {
	return &Textract{api: api, breaker: resilience.NewBreaker("textract", resilience.DefaultBreakerConfig())}
}

// Extract runs synchronous form analysis on data.
func (t *Textract) Extract(ctx context.Context, data []byte, _ string) (*model.Extraction, error) {
	out, err := resilience.Guard(ctx, t.breaker, resilience.For("textract", "analyze_document"),
		func(ctx context.Context) (*textract.AnalyzeDocumentOutput, error) {
			return t.api.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
				Document:     &types.Document{Bytes: data},
				FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
			})
		})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: textract analyze document")
	}
	return FromBlocks(out.Blocks), nil
}

// FromBlocks converts Textract blocks into an Extraction. LINE blocks become
// lines with Textract's 0 to 100 confidence; KEY_VALUE_SET blocks become form
// pairs by joining the words under each key and its linked value.
func FromBlocks(blocks []types.Block) *model.Extraction {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	ext := &model.Extraction{Lines: []model.Line{}, FormPairs: []model.FormPair{}}
	for _, b := range blocks {
		switch b.BlockType {
		case types.BlockTypeLine:
			ext.Lines = append(ext.Lines, model.Line{
				Text:       aws.ToString(b.Text),
				Confidence: float64(aws.ToFloat32(b.Confidence)),
			})
		case types.BlockTypeKeyValueSet:
			if !isKey(b) {
				continue
			}
			key := childText(b, byID)
			if key == "" {
				continue
			}
			var value string
			for _, id := range related(b, types.RelationshipTypeValue) {
				if v, ok := byID[id]; ok {
					value = childText(v, byID)
				}
			}
			ext.FormPairs = append(ext.FormPairs, model.FormPair{Key: key, Value: value})
		}
	}
	return ext
}

func isKey(b types.Block) bool {
	for _, et := range b.EntityTypes {
		if et == types.EntityTypeKey {
			return true
		}
	}
	return false
}

func related(b types.Block, rt types.RelationshipType) []string {
	var ids []string
	for _, r := range b.Relationships {
		if r.Type == rt {
			ids = append(ids, r.Ids...)
		}
	}
	return ids
}

// childText joins the WORD children of b. Selected checkboxes read as X.
func childText(b types.Block, byID map[string]types.Block) string {
	var words []string
	for _, id := range related(b, types.RelationshipTypeChild) {
		c, ok := byID[id]
		if !ok {
			continue
		}
		switch c.BlockType {
		case types.BlockTypeWord:
			words = append(words, aws.ToString(c.Text))
		case types.BlockTypeSelectionElement:
			if c.SelectionStatus == types.SelectionStatusSelected {
				words = append(words, "X")
			}
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
