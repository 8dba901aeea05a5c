package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Signer issues presigned PUT urls against an S3-compatible object store
// (Cloudflare R2 in production). Clients upload directly to storage; this
// service never proxies file bytes.
type Signer struct {
	bucket  string
	presign *s3.PresignClient
	ttl     time.Duration
}

func NewSigner(endpoint string, accessKeyId string, secretAccessKey string, bucket string, ttl time.Duration) (*Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyId, secretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Signer{
		bucket:  bucket,
		presign: s3.NewPresignClient(client),
		ttl:     ttl,
	}, nil
}

func (s *Signer) SignUpload(ctx context.Context, key string, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
