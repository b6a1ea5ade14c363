package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"optimind/internal/jsonutil"
)

// S3Archiver writes finished outcomes to an S3-compatible bucket as JSON
// objects, keyed by date and a hash of the problem text.
type S3Archiver struct {
	cli    *minio.Client
	bucket string

	once    sync.Once
	onceErr error
}

// NewS3Archiver connects to an S3-compatible endpoint. The bucket is created
// lazily on the first write.
func NewS3Archiver(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Archiver, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive s3 client: %w", err)
	}
	return &S3Archiver{cli: cli, bucket: bucket}, nil
}

func (a *S3Archiver) ensureBucket(ctx context.Context) error {
	a.once.Do(func() {
		exists, err := a.cli.BucketExists(ctx, a.bucket)
		if err != nil {
			a.onceErr = fmt.Errorf("check archive bucket: %w", err)
			return
		}
		if !exists {
			if err := a.cli.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
				a.onceErr = fmt.Errorf("create archive bucket: %w", err)
			}
		}
	})
	return a.onceErr
}

// Archive stores the outcome under runs/<date>/<hash>.json.
func (a *S3Archiver) Archive(ctx context.Context, o *Outcome) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	body, err := jsonutil.MarshalNoEscape(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(o.Problem))
	key := fmt.Sprintf("runs/%s/%x.json", time.Now().UTC().Format("2006-01-02"), h.Sum64())
	_, err = a.cli.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put outcome %s: %w", key, err)
	}
	return nil
}
