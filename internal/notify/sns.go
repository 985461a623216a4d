// Package notify publishes document processing events to an SNS topic.
package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/resilience"
)

// EventOCRComplete is the event type published after a document is mapped.
const EventOCRComplete = "ocr_complete"

// Publisher sends OCR completion events.
type Publisher interface {
	PublishOCRComplete(ctx context.Context, ev model.OCRCompleteEvent) error
}

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes events to a single topic. With no topic it only logs.
type SNS struct {
	api      SNSAPI
	topicARN string
}

// NewSNS builds a publisher from a loaded AWS config.
func NewSNS(cfg aws.Config, topicARN string) *SNS {
	return NewSNSWithClient(sns.NewFromConfig(cfg), topicARN)
}

// NewSNSWithClient builds a publisher from an explicit client.
func NewSNSWithClient(api SNSAPI, topicARN string) *SNS {
	return &SNS{api: api, topicARN: topicARN}
}

// PublishOCRComplete sends ev as a JSON message. The event type and session
// are also set as message attributes for subscription filtering.
func (s *SNS) PublishOCRComplete(ctx context.Context, ev model.OCRCompleteEvent) error {
	ev.Type = EventOCRComplete
	if s.topicARN == "" || s.api == nil {
		zap.L().Debug("notify: no topic configured, dropping event",
			zap.String("session_id", ev.SessionID),
			zap.String("document_id", ev.DocumentID),
		)
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	out, err := resilience.DoVal(ctx, resilience.For("sns", "publish"), func(ctx context.Context) (*sns.PublishOutput, error) {
		return s.api.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(s.topicARN),
			Message:  aws.String(string(body)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"type":       {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
				"session_id": {DataType: aws.String("String"), StringValue: aws.String(ev.SessionID)},
			},
		})
	})
	if err != nil {
		return eris.Wrapf(err, "notify: publish %s", ev.Type)
	}

	zap.L().Info("notify: published event",
		zap.String("type", ev.Type),
		zap.String("session_id", ev.SessionID),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
