package storage

import (
	"context"
	"fmt"

	"github.com/graphview/backend/internal/util"
	"github.com/graphview/backend/pkg/loader"
	ioloader "github.com/graphview/backend/pkg/loader/io"
	s3loader "github.com/graphview/backend/pkg/loader/s3"
	"github.com/graphview/backend/pkg/logger"
)

const (
	SourceFS = "fs"
	SourceS3 = "s3"
)

// NewSnapshotLoader builds the snapshot store selected by SNAPSHOT_SOURCE.
//
//   - fs: files in SNAPSHOT_DIR (default "data")
//   - s3: objects in AWS_BUCKET below SNAPSHOT_PREFIX
func NewSnapshotLoader(ctx context.Context) (loader.SnapshotLoader, error) {
	source := util.GetEnvString("SNAPSHOT_SOURCE", SourceFS)

	switch source {
	case SourceFS:
		dir := util.GetEnvString("SNAPSHOT_DIR", "data")
		l, err := ioloader.NewOSSnapshotLoader(dir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot dir %s: %w", dir, err)
		}
		logger.Info("Serving snapshots from directory", "dir", dir)
		return l, nil
	case SourceS3:
		bucket := util.GetEnv("AWS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("AWS_BUCKET must be set when SNAPSHOT_SOURCE=s3")
		}
		prefix := util.GetEnv("SNAPSHOT_PREFIX")
		l, err := s3loader.NewS3SnapshotLoader(ctx, s3loader.NewS3SnapshotLoaderParams{
			Bucket:    bucket,
			Prefix:    prefix,
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			Region:    util.GetEnv("AWS_REGION"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		logger.Info("Serving snapshots from bucket", "bucket", bucket, "prefix", prefix)
		return l, nil
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_SOURCE %q", source)
	}
}
