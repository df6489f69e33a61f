package loader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Reader.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Reader reads bundles from an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	reader := loader.NewS3Reader(s3.NewFromConfig(cfg), "my-bucket", "build/")
type S3Reader struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Reader creates an S3Reader for keys under prefix in bucket.
func NewS3Reader(client S3API, bucket, prefix string) *S3Reader {
	return &S3Reader{client: client, bucket: bucket, prefix: prefix, maxSize: 8 << 20}
}

// WithMaxSize limits the size of a single object. Zero means no limit.
func (r *S3Reader) WithMaxSize(n int64) *S3Reader {
	r.maxSize = n
	return r
}

// Read implements Reader.
func (r *S3Reader) Read(ctx context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	key := r.prefix + clean

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, r.bucket, key)
		}
		return nil, fmt.Errorf("loader: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if r.maxSize > 0 {
		body = io.LimitReader(out.Body, r.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("loader: s3 read %s: %w", key, err)
	}
	if r.maxSize > 0 && int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("loader: s3 object %s exceeds %d bytes", key, r.maxSize)
	}
	return data, nil
}
