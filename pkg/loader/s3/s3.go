package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/singleflight"

	"github.com/graphview/backend/pkg/loader"
)

// S3SnapshotLoader is a SnapshotLoader that reads snapshot files from an
// S3 bucket below a key prefix. It uses the AWS SDK v2 for Go.
type S3SnapshotLoader struct {
	bucket string
	prefix string
	client *s3.Client

	group singleflight.Group
}

// NewS3SnapshotLoaderWithClient creates a new S3SnapshotLoader using an
// existing s3.Client.
func NewS3SnapshotLoaderWithClient(bucket string, prefix string, client *s3.Client) *S3SnapshotLoader {
	return &S3SnapshotLoader{
		bucket: bucket,
		prefix: normalizePrefix(prefix),
		client: client,
	}
}

// NewS3SnapshotLoaderParams defines the configuration parameters for
// creating a new S3SnapshotLoader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO). Prefix is the key "directory" holding the snapshots.
type NewS3SnapshotLoaderParams struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3SnapshotLoader creates a new S3SnapshotLoader with static
// credentials and the given endpoint/region.
//
// Example:
//
//	l, err := s3.NewS3SnapshotLoader(ctx, s3.NewS3SnapshotLoaderParams{
//		Bucket:    "snapshots",
//		Prefix:    "posthog_archive",
//		Region:    "us-east-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
//		SecretKey: os.Getenv("AWS_SECRET_KEY"),
//	})
func NewS3SnapshotLoader(ctx context.Context, params NewS3SnapshotLoaderParams) (*S3SnapshotLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return NewS3SnapshotLoaderWithClient(params.Bucket, params.Prefix, client), nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Key returns the object key of the named snapshot.
func (l *S3SnapshotLoader) Key(name string) string {
	return l.prefix + name
}

// readTimeout bounds a shared download once it no longer follows the
// context of the caller that started it.
const readTimeout = 30 * time.Second

// GetFileText downloads the named snapshot from the bucket. Concurrent
// callers share one download; each caller only waits for it as long as its
// own context allows.
func (l *S3SnapshotLoader) GetFileText(ctx context.Context, name string) ([]byte, error) {
	ch := l.group.DoChan(name, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readTimeout)
		defer cancel()
		return l.getObject(readCtx, name)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, &loader.SnapshotError{Name: name, Err: ctx.Err()}
	case res = <-ch:
	}

	if res.Err != nil {
		if isNotFound(res.Err) {
			return nil, &loader.SnapshotError{Name: name, Err: loader.ErrSnapshotNotFound}
		}
		return nil, &loader.SnapshotError{Name: name, Err: res.Err}
	}

	return res.Val.([]byte), nil
}

func (l *S3SnapshotLoader) getObject(ctx context.Context, name string) ([]byte, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.Key(name)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}

	return buf.Bytes(), nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// ListFiles lists the snapshot names directly below the prefix.
func (l *S3SnapshotLoader) ListFiles(ctx context.Context) ([]string, error) {
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(l.prefix),
	}

	var keys []string
	for {
		listOutput, err := l.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", l.prefix, err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key == nil {
				continue
			}
			if name, ok := l.nameFromKey(*obj.Key); ok {
				keys = append(keys, name)
			}
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}
	sort.Strings(keys)

	return keys, nil
}

// nameFromKey strips the prefix from key. Keys in nested "directories"
// are not part of the snapshot set.
func (l *S3SnapshotLoader) nameFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, l.prefix) {
		return "", false
	}
	name := strings.TrimPrefix(key, l.prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
