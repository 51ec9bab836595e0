package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"semsearch/internal/domain"
)

// MinIOOptions configures the object store backend.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// MinIO keeps the snapshot as a single zstd-compressed JSON object in a
// MinIO or S3-compatible bucket.
type MinIO struct {
	client *minio.Client
	bucket string
	object string
}

var _ Store = (*MinIO)(nil)

// NewMinIO creates the client. No request is made until first use.
func NewMinIO(opts MinIOOptions) (*MinIO, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.New("snapshot: minio endpoint and bucket are required")
	}
	object := opts.Object
	if object == "" {
		object = "embeddings.json.zst"
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return NewMinIOWithClient(client, opts.Bucket, object), nil
}

// NewMinIOWithClient wraps an existing client.
func NewMinIOWithClient(client *minio.Client, bucket, object string) *MinIO {
	return &MinIO{client: client, bucket: bucket, object: object}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}

func (m *MinIO) Exists(ctx context.Context) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, m.object, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *MinIO) Load(ctx context.Context) ([]domain.Record, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	dec, err := zstd.NewReader(obj)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return decodeJSON(dec)
}

// Save creates the bucket when missing and uploads the snapshot.
func (m *MinIO) Save(ctx context.Context, records []domain.Record) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("snapshot: create bucket %s: %w", m.bucket, err)
		}
	}

	var buf bytes.Buffer
	if err := writeCompressed(&buf, CodecZstd, records); err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, m.object, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "application/zstd"})
	return err
}

func (m *MinIO) Close() error { return nil }
