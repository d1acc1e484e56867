package s3

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	ArchiveBucket *oss.Bucket

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
)

// BuildBucketFromEnv OSS_ENDPOINT, OSS_ACCESS_KEY, OSS_SECRET_KEY, OSS_BUCKET (default kycflow-audit).
// It returns nil when no endpoint is configured.
func BuildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := strings.TrimSpace(os.ExpandEnv(os.Getenv("OSS_ENDPOINT")))
	if endpoint == "" {
		return nil, nil
	}
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "kycflow-audit"
	}
	return BuildBucket(endpoint, os.Getenv("OSS_ACCESS_KEY"), os.Getenv("OSS_SECRET_KEY"), bucket)
}

func BuildBucket(endpoint, accesskey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accesskey, secretKey, oss.HTTPClient(nil))
	if err != nil {
		return nil, err
	}

	bucket, err := cli.Bucket(bucketName)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func startSpan(ctx context.Context, operation, key string) opentracing.Span {
	if ctx == nil {
		return nil
	}
	parentSpan := opentracing.SpanFromContext(ctx)
	if parentSpan == nil {
		return nil
	}
	sp := parentSpan.Tracer().StartSpan(operation, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return sp
}

func finishSpan(sp opentracing.Span, err error) {
	if sp == nil {
		return
	}
	ext.Error.Set(sp, err != nil)
	sp.Finish()
}

func GetObject(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error) {
	sp := startSpan(ctx, "oss get-object", key)
	r, err := ArchiveBucket.GetObject(key, opts...)
	finishSpan(sp, err)
	return r, err
}

func PutObject(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
	sp := startSpan(ctx, "oss put-object", key)
	err := ArchiveBucket.PutObject(key, r, opts...)
	finishSpan(sp, err)
	return err
}
