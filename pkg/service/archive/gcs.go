package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/utils/safe"
)

// GCSUploader writes evidence bundles to a Cloud Storage bucket
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSUploader creates an uploader using application default credentials
func NewGCSUploader(ctx context.Context, bucket, prefix string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCSUploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Upload writes the bundle as one JSON object named after its generation
// time and bundle hash, and returns the object path
func (u *GCSUploader) Upload(ctx context.Context, bundle *Bundle) (string, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", goerr.Wrap(err, "failed to serialize bundle")
	}

	objectPath := fmt.Sprintf("%sevidence-%s-%s.json",
		u.prefix,
		bundle.GeneratedAt.Format("20060102T150405Z"),
		shortHash(bundle.BundleHash))

	w := u.client.Bucket(u.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(raw); err != nil {
		safe.Close(ctx, w)
		return "", goerr.Wrap(err, "failed to upload bundle",
			goerr.V("bucket", u.bucket), goerr.V("object", objectPath))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize bundle upload",
			goerr.V("bucket", u.bucket), goerr.V("object", objectPath))
	}

	return objectPath, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// shortHash trims the "sha256:" prefix and keeps the first 12 hex digits
func shortHash(hash string) string {
	const prefix = "sha256:"
	if len(hash) > len(prefix) {
		hash = hash[len(prefix):]
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}
