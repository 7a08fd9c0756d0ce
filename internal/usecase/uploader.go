package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v5"
)

// StorageClass names the S3 storage class an object is uploaded under.
type StorageClass string

const (
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"
	StorageClassStandard    StorageClass = "STANDARD"
)

// UploadBag streams body (a bag's assembled container) to the object
// store, verifies it via a post-upload HeadObject, and returns the
// verifier (§4.5). Network calls are retried with bounded backoff for
// transient failures (connection resets, throttling); a genuine upload
// failure after retries remains fatal to the run (§3/§9).
//
// A failed attempt may already have consumed part of body, so each
// attempt rewinds it to offset 0 first — callers pass a seekable
// stream (an *os.File over the staged container). A body that cannot
// be rewound after a partial read aborts instead of retrying with
// whatever bytes are left, which would commit a truncated object.
func UploadBag(
	ctx context.Context,
	store ObjectStorePort,
	key string,
	body io.Reader,
	size int64,
	class StorageClass,
	bandwidthCapBytesPerSec int64,
	allowUnverified bool,
) (verifier string, err error) {
	seeker, canRewind := body.(io.Seeker)
	putOp := func() (struct{}, error) {
		if canRewind {
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("rewind bag stream for %q: %w: %w", key, seekErr, ErrUpload))
			}
		}
		if putErr := store.PutObject(ctx, key, body, size, string(class), bandwidthCapBytesPerSec); putErr != nil {
			wrapped := fmt.Errorf("put object %q: %w: %w", key, putErr, ErrUpload)
			if !canRewind {
				// A retry would resume mid-stream and upload a truncated
				// object; without a rewindable body one attempt is all
				// there is.
				return struct{}{}, backoff.Permanent(wrapped)
			}
			return struct{}{}, wrapped
		}
		return struct{}{}, nil
	}
	if _, err := backoff.Retry(ctx, putOp, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff())); err != nil {
		return "", err
	}

	headOp := func() (string, error) {
		v, exists, headErr := store.HeadObject(ctx, key)
		if headErr != nil {
			return "", fmt.Errorf("head object %q: %w: %w", key, headErr, ErrUpload)
		}
		if !exists {
			return "", fmt.Errorf("object %q not found after upload: %w", key, ErrUnverifiedUpload)
		}
		return v, nil
	}
	verifier, err = backoff.Retry(ctx, headOp, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		if allowUnverified {
			return "", nil
		}
		return "", err
	}
	return verifier, nil
}

// ObjectKeyFor renders the bag's S3 object key layout (§6):
// "<YYYY>-backup/<host>_<branch-short>_bag_<NNNNN>.tar".
func ObjectKeyFor(year int, host, branchShort string, bagID int) string {
	return fmt.Sprintf("%d-backup/%s_%s_%s.tar", year, host, branchShort, BagName(bagID))
}

// ManifestKeyFor renders a bag's manifest object key (§6):
// "<YYYY>-backup/manifests/<timestamp>_<bag-base>_{liverun|dryrun}.txt".
func ManifestKeyFor(year int, timestamp, host, branchShort string, bagID int, run bool) string {
	mode := "dryrun"
	if run {
		mode = "liverun"
	}
	bagBase := fmt.Sprintf("%s_%s_%s", host, branchShort, BagName(bagID))
	return fmt.Sprintf("%d-backup/manifests/%s_%s_%s.txt", year, timestamp, bagBase, mode)
}

// SystemKeyFor renders a system-artifact object key (§6):
// "<YYYY>-backup/system/<name>".
func SystemKeyFor(year int, name string) string {
	return fmt.Sprintf("%d-backup/system/%s", year, name)
}
