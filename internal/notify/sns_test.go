package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/model"
)

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestPublishOCRComplete(t *testing.T) {
	t.Parallel()

	api := new(mockSNS)
	var sent model.OCRCompleteEvent
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.TopicArn) == "arn:aws:sns:ca-central-1:1:ocr" &&
			aws.ToString(in.MessageAttributes["type"].StringValue) == EventOCRComplete &&
			json.Unmarshal([]byte(aws.ToString(in.Message)), &sent) == nil
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	p := NewSNSWithClient(api, "arn:aws:sns:ca-central-1:1:ocr")
	err := p.PublishOCRComplete(context.Background(), model.OCRCompleteEvent{
		SessionID:    "sess-1",
		DocumentID:   "doc-1",
		DocumentType: "passport",
		MappedFields: model.ApplicantData{"passport_number": "K1234567"},
		Confidence:   92.5,
	})
	require.NoError(t, err)
	assert.Equal(t, EventOCRComplete, sent.Type)
	assert.Equal(t, "K1234567", sent.MappedFields["passport_number"])
	api.AssertExpectations(t)
}

func TestPublishOCRComplete_NoTopic(t *testing.T) {
	t.Parallel()

	api := new(mockSNS)
	require.NoError(t, NewSNSWithClient(api, "").PublishOCRComplete(context.Background(), model.OCRCompleteEvent{}))
	api.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublishOCRComplete_Error(t *testing.T) {
	t.Parallel()

	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("AuthorizationError"))

	err := NewSNSWithClient(api, "arn").PublishOCRComplete(context.Background(), model.OCRCompleteEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify: publish ocr_complete")
}
