//nolint:gci,gofumpt
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements ObjectStorePort against S3 (Deep Archive for
// bags, Standard for manifests/system artifacts, §4.5/§6).
type Adapter struct {
	logger   *slog.Logger
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// New builds an s3 adapter for bucket in region, loading credentials
// from the standard AWS credential chain (env, shared config,
// container/instance role).
func New(ctx context.Context, logger *slog.Logger, bucket, region string) (*Adapter, error) {
	if logger == nil {
		panic("s3store adapter requires logger")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 64 * 1024 * 1024
		u.Concurrency = 4
		u.LeavePartsOnError = false
	})
	return &Adapter{logger: logger, client: client, uploader: uploader, bucket: bucket}, nil
}

// PutObject streams body to key under storageClass, optionally capped
// at bandwidthBytesPerSec (§4.5/§4.9 bandwidth-cap requirement).
func (a *Adapter) PutObject(ctx context.Context, key string, body io.Reader, size int64, storageClass string, bandwidthBytesPerSec int64) error {
	if bandwidthBytesPerSec > 0 {
		body = usecase.NewRateLimitedReader(ctx, body, bandwidthBytesPerSec)
	}
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(a.bucket),
		Key:          aws.String(key),
		Body:         body,
		StorageClass: types.StorageClass(storageClass),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// HeadObject returns the object's ETag (used as the commit verifier,
// §4.5) and whether it exists.
func (a *Adapter) HeadObject(ctx context.Context, key string) (string, bool, error) {
	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("head object %q: %w", key, err)
	}
	return strings.Trim(aws.ToString(out.ETag), `"`), true, nil
}

// ListKeys lists every object whose key begins with prefix.
func (a *Adapter) ListKeys(ctx context.Context, prefix string) ([]usecase.ObjectSummary, error) {
	var out []usecase.ObjectSummary
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects with prefix %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, usecase.ObjectSummary{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

// RestoreObject asks S3 to thaw a Deep Archive object for days days,
// using the bulk retrieval tier (the cheapest, matching the cost model
// the whole engine is built around). A restore already in progress is
// not an error.
func (a *Adapter) RestoreObject(ctx context.Context, key string, days int) error {
	_, err := a.client.RestoreObject(ctx, &s3.RestoreObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		RestoreRequest: &types.RestoreRequest{
			Days: aws.Int32(int32(days)),
			GlacierJobParameters: &types.GlacierJobParameters{
				Tier: types.TierBulk,
			},
		},
	})
	if err != nil {
		var alreadyInProgress *types.ObjectAlreadyInActiveTierError
		if errors.As(err, &alreadyInProgress) {
			return nil
		}
		if strings.Contains(err.Error(), "RestoreAlreadyInProgress") {
			return nil
		}
		return fmt.Errorf("restore object %q: %w", key, err)
	}
	return nil
}

// DeleteObject removes a single object; a missing object is not an
// error.
func (a *Adapter) DeleteObject(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
