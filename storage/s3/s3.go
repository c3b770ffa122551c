// Package s3 serves s3:// keys from an S3 bucket or an S3-compatible
// server such as MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/storage"
)

func init() {
	storage.Register(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("S3 storage opened", logger.Fields("bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint))
		return s, nil
	})
}

// Storage reads objects from one bucket.
type Storage struct {
	client *awss3.Client
	bucket string
}

var _ storage.Storage = (*Storage)(nil)

// Open resolves credentials and builds the client. Static keys from cfg
// win over the default AWS credential chain.
func Open(ctx context.Context, cfg storage.Config) (*Storage, error) {
	cfg.ApplyDefaults()
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("storage/s3: %w", err)
	}
	if tlsCfg != nil {
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().
			WithTransportOptions(func(tr *http.Transport) { tr.TLSClientConfig = tlsCfg })))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle || cfg.Endpoint != ""
	})
	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

func (s *Storage) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.ObjectInfo{}, s.wrap("head", key, err)
	}
	return storage.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ModTime:     aws.ToTime(out.LastModified),
	}, nil
}

func (s *Storage) ReadRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		var re interface{ HTTPStatusCode() int }
		if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusRequestedRangeNotSatisfiable {
			return []byte{}, nil
		}
		return nil, s.wrap("get", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(io.LimitReader(out.Body, length))
	if err != nil {
		return nil, fmt.Errorf("storage/s3: read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

func (s *Storage) wrap(op, key string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: s3://%s/%s", storage.ErrNotFound, s.bucket, key)
	}
	return fmt.Errorf("storage/s3: %s s3://%s/%s: %w", op, s.bucket, key, err)
}
