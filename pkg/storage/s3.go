package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3SinkOpts struct {
	Bucket         string
	Prefix         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	HTTPClient     *http.Client
}

// S3Sink uploads outputs to <bucket>/<prefix>/<name>.
type S3Sink struct {
	svc      *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3Sink(ctx context.Context, opts S3SinkOpts) (*S3Sink, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")

	if opts.AccessKey != "" && opts.SecretKey != "" {
		accessKey = opts.AccessKey
		secretKey = opts.SecretKey
	}

	cfg, err := getAWSConfig(ctx, accessKey, secretKey, opts.Region, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	// Check to see if we have access to the bucket
	_, err = svc.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot access bucket <%s>: %w", opts.Bucket, err)
	}

	return &S3Sink{
		svc:      svc,
		uploader: manager.NewUploader(svc),
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
	}, nil
}

func getAWSConfig(ctx context.Context, accessKey, secretKey, region string, httpClient *http.Client) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
	}
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

func (s *S3Sink) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *S3Sink) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.Location(name), err)
	}
	return nil
}

func (s *S3Sink) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(name))
}

func (s *S3Sink) Close() error {
	return nil
}
