package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/resilience"
)

// S3API is the subset of the S3 client used for reads.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner is the subset of the S3 presign client used for URLs.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 implements Storage on an S3 bucket.
type S3 struct {
	api       S3API
	presigner Presigner
	bucket    string
	expires   time.Duration
}

// NewS3 builds an S3 storage from a loaded AWS config.
func NewS3(cfg aws.Config, bucket string, expires time.Duration) *S3 {
	client := s3.NewFromConfig(cfg)
	return NewS3WithClients(client, s3.NewPresignClient(client), bucket, expires)
}

// NewS3WithClients builds an S3 storage from explicit clients.
func NewS3WithClients(api S3API, presigner Presigner, bucket string, expires time.Duration) *S3 {
	if expires <= 0 {
		expires = time.Hour
	}
	return &S3{api: api, presigner: presigner, bucket: bucket, expires: expires}
}

func (s *S3) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", eris.Wrapf(err, "storage: presign upload %s", key)
	}
	return req.URL, nil
}

func (s *S3) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", eris.Wrapf(err, "storage: presign download %s", key)
	}
	return req.URL, nil
}

// Get downloads the object at key, retrying throttled reads.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := resilience.DoVal(ctx, resilience.For("s3", "get_object"), func(ctx context.Context) ([]byte, error) {
		out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close() //nolint:errcheck
		return io.ReadAll(out.Body)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "storage: get %s", key)
	}
	return data, nil
}
