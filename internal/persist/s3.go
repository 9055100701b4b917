package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/me/timetable/internal/config"
	"github.com/me/timetable/pkg/model"
)

// ObjectAPI is the subset of the S3 client the gateway uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Gateway stores the flat schedule file as a single S3 object.
type S3Gateway struct {
	client ObjectAPI
	bucket string
	key    string
	logger *slog.Logger
}

// NewS3Gateway builds an S3 client from the default AWS credential chain.
func NewS3Gateway(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*S3Gateway, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3GatewayWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Key, logger), nil
}

// NewS3GatewayWithClient returns a gateway using an existing client.
func NewS3GatewayWithClient(client ObjectAPI, bucket, key string, logger *slog.Logger) *S3Gateway {
	return &S3Gateway{
		client: client,
		bucket: bucket,
		key:    key,
		logger: logger.With("component", "persist", "backend", "s3", "bucket", bucket, "key", key),
	}
}

func (g *S3Gateway) Load(ctx context.Context) ([]model.Lecture, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(g.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			g.logger.Debug("no schedule object")
			return nil, nil
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", g.bucket, g.key, err)
	}
	defer out.Body.Close()

	lectures, err := decodeLines(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", g.bucket, g.key, err)
	}
	g.logger.Debug("schedule loaded", "lectures", len(lectures))
	return lectures, nil
}

func (g *S3Gateway) Save(ctx context.Context, lectures []model.Lecture) error {
	var buf bytes.Buffer
	if err := encodeLines(&buf, lectures); err != nil {
		return err
	}
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(g.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", g.bucket, g.key, err)
	}
	g.logger.Debug("schedule saved", "lectures", len(lectures))
	return nil
}
