package disks

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

// visibilityTag is the object tag holding an object's visibility; MinIO has no per-object ACLs.
const visibilityTag = "visibility"

type MinioConfig struct {
	Name       string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	PublicURL  string
	Visibility Visibility
}

// MinioDisk stores objects in a single bucket. Directories are key prefixes.
type MinioDisk struct {
	Client     *minio.Client
	BucketName string

	name       string
	publicURL  string
	visibility Visibility
}

func NewMinioDisk(ctx context.Context, cfg MinioConfig) (*MinioDisk, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Create bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("[MinIO] Created bucket: %s", cfg.BucketName)
	}

	if err := client.SetBucketPolicy(ctx, cfg.BucketName, publicReadPolicy(cfg.BucketName)); err != nil {
		log.Printf("[MinIO] Warning: failed to set public-read policy on %s: %v", cfg.BucketName, err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	if cfg.Visibility == "" {
		cfg.Visibility = Private
	}

	log.Println("[MinIO] Connected successfully")
	return &MinioDisk{
		Client:     client,
		BucketName: cfg.BucketName,
		name:       cfg.Name,
		publicURL:  publicURL,
		visibility: cfg.Visibility,
	}, nil
}

// publicReadPolicy lets anonymous clients read objects tagged visibility=public.
func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"],
    "Condition": {"StringEquals": {"s3:ExistingObjectTag/%s": "%s"}}
  }]
}`, bucket, visibilityTag, Public)
}

func (m *MinioDisk) Name() string                  { return m.name }
func (m *MinioDisk) DefaultVisibility() Visibility { return m.visibility }

// CheckConnection is used by health checks.
func (m *MinioDisk) CheckConnection(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("minio disk not initialized")
	}
	_, err := m.Client.BucketExists(ctx, m.BucketName)
	return err
}

// MakeDirectory is a no-op: object keys need no parent.
func (m *MinioDisk) MakeDirectory(context.Context, string) error { return nil }

func (m *MinioDisk) Put(ctx context.Context, dir, filename string, r io.Reader, size int64, contentType string) (int64, error) {
	if size <= 0 {
		size = -1
	}
	info, err := m.Client.PutObject(ctx, m.BucketName, path.Join(dir, filename), r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    map[string]string{visibilityTag: string(m.visibility)},
	})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Exists reports true for an object key, or for a prefix holding at least one object.
func (m *MinioDisk) Exists(ctx context.Context, p string) (bool, error) {
	_, err := m.Client.StatObject(ctx, m.BucketName, p, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return false, err
	}

	objects := m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(p, "/") + "/",
		Recursive: true,
		MaxKeys:   1,
	})
	for obj := range objects {
		if obj.Err != nil {
			return false, obj.Err
		}
		if obj.Key != "" {
			return true, nil
		}
	}
	return false, nil
}

func (m *MinioDisk) DeleteDirectory(ctx context.Context, dir string) error {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	log.Printf("[MinIO] Deleting prefix: %s (bucket: %s)", prefix, m.BucketName)

	objectsCh := m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	errorCh := m.Client.RemoveObjects(ctx, m.BucketName, objectsCh, minio.RemoveObjectsOptions{})
	for removeErr := range errorCh {
		if removeErr.Err != nil {
			log.Printf("[MinIO] Failed to delete object %s: %v", removeErr.ObjectName, removeErr.Err)
			return removeErr.Err
		}
	}
	return nil
}

func (m *MinioDisk) Visibility(ctx context.Context, p string) (Visibility, error) {
	t, err := m.Client.GetObjectTagging(ctx, m.BucketName, p, minio.GetObjectTaggingOptions{})
	if err != nil {
		return "", err
	}
	return ParseVisibility(t.ToMap()[visibilityTag]), nil
}

func (m *MinioDisk) SetVisibility(ctx context.Context, p string, v Visibility) error {
	t, err := tags.NewTags(map[string]string{visibilityTag: string(v)}, true)
	if err != nil {
		return err
	}
	return m.Client.PutObjectTagging(ctx, m.BucketName, p, t, minio.PutObjectTaggingOptions{})
}

func (m *MinioDisk) URL(p string) string {
	return m.publicURL + "/" + m.BucketName + "/" + strings.TrimLeft(p, "/")
}

func (m *MinioDisk) TemporaryURL(ctx context.Context, p string, expiresAt time.Time) (string, error) {
	expiry := time.Until(expiresAt)
	if expiry < time.Second {
		expiry = time.Second
	}
	u, err := m.Client.PresignedGetObject(ctx, m.BucketName, p, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", p, err)
	}
	return u.String(), nil
}

func (m *MinioDisk) AbsolutePath(string) (string, error) {
	return "", ErrNotLocal
}

func (m *MinioDisk) Download(ctx context.Context, p, localPath string) error {
	return m.Client.FGetObject(ctx, m.BucketName, p, localPath, minio.GetObjectOptions{})
}

func (m *MinioDisk) Upload(ctx context.Context, localPath, p, contentType string) error {
	_, err := m.Client.FPutObject(ctx, m.BucketName, p, localPath, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    map[string]string{visibilityTag: string(m.visibility)},
	})
	return err
}
