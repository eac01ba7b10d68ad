package chunkuploader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/v2/log"
)

// S3Scheme prefixes sources stored in S3: s3://bucket/key.
const S3Scheme = "s3://"

// ErrS3ObjectNotFound ...
var ErrS3ObjectNotFound = errors.New("s3 object not found")

// S3Params configures access to S3 sources.
type S3Params struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	manager.DownloadAPIClient
}

// S3ChunkProvider reads parts of an S3 object with ranged GETs.
type S3ChunkProvider struct {
	downloader *manager.Downloader
	bucket     string
	key        string
	size       int64
}

// IsS3Source reports whether source points to S3.
func IsS3Source(source string) bool {
	return strings.HasPrefix(source, S3Scheme)
}

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(source string) (string, string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", source, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%s is not an s3://bucket/key url", source)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%s has no object key", source)
	}
	return u.Host, key, nil
}

// NewS3ChunkProvider resolves the object behind source and captures its size.
func NewS3ChunkProvider(ctx context.Context, source string, params S3Params, logger log.Logger) (*S3ChunkProvider, error) {
	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return nil, err
	}

	cfg, err := loadAWSCredentials(ctx, params.Region, params.AccessKeyID, params.SecretAccessKey, logger)
	if err != nil {
		return nil, fmt.Errorf("load aws credentials: %w", err)
	}

	return newS3ChunkProvider(ctx, s3.NewFromConfig(*cfg), bucket, key)
}

func newS3ChunkProvider(ctx context.Context, client s3API, bucket, key string) (*S3ChunkProvider, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			switch apiError.(type) {
			case *types.NotFound:
				return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrS3ObjectNotFound)
			}
		}
		return nil, fmt.Errorf("head object %s/%s: %w", bucket, key, err)
	}

	return &S3ChunkProvider{
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		key:        key,
		size:       aws.ToInt64(head.ContentLength),
	}, nil
}

// Name returns the base name of the object key.
func (p *S3ChunkProvider) Name() string {
	return path.Base(p.key)
}

// TotalSize returns the object size reported by HeadObject.
func (p *S3ChunkProvider) TotalSize() int64 {
	return p.size
}

// GetChunk downloads the byte range of part.
func (p *S3ChunkProvider) GetChunk(ctx context.Context, part Part) ([]byte, error) {
	if part.Length == 0 {
		return []byte{}, nil
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, part.Length))
	n, err := p.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", part.Offset, part.End()-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("get part %d of %s/%s: %w", part.Index, p.bucket, p.key, err)
	}
	if n != part.Length {
		return nil, fmt.Errorf("part %d of %s/%s: got %d bytes, expected %d", part.Index, p.bucket, p.key, n, part.Length)
	}

	return buf.Bytes()[:n], nil
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("Using static aws credentials")
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	} else {
		logger.Debugf("aws credentials not defined, loading credentials from environment...")
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}

// Close ...
func (p *S3ChunkProvider) Close() error {
	return nil
}
