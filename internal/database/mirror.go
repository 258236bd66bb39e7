package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"odootest/pkg/logging"
)

// MirrorConfig locates the bucket dumps are mirrored to.
type MirrorConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RemoteDump is an artifact stored in the mirror.
type RemoteDump struct {
	Name         string    `json:"name" yaml:"name"`
	Size         int64     `json:"size" yaml:"size"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
}

// Mirror copies dump artifacts between the local dump directory and an
// S3-compatible bucket.
type Mirror struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// NewMirror creates a mirror client. No request is made until first use.
func NewMirror(cfg MirrorConfig) (*Mirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("mirror endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("mirror access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init mirror client: %w", err)
	}
	return &Mirror{client: client, bucketName: bucket, region: region}, nil
}

func (m *Mirror) ensureBucket(ctx context.Context) error {
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucketName)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: m.region})
	})
	return m.initErr
}

// Push uploads the named artifact of the manager's database.
func (m *Mirror) Push(ctx context.Context, mgr *Manager, dumpName string) error {
	if !mgr.DumpExists(dumpName) {
		return fmt.Errorf("%w: %s", ErrDumpNotFound, dumpName)
	}
	file, err := mgr.DumpFile(dumpName)
	if err != nil {
		return err
	}
	if err := m.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	key := ObjectKey(mgr.Name(), dumpName)
	info, err := m.client.FPutObject(ctx, m.bucketName, key, file, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	logging.Info(subsystem, "Pushed %s to s3://%s/%s (%d bytes)", dumpName, m.bucketName, key, info.Size)
	return nil
}

// Pull downloads the named artifact into the manager's dump directory,
// replacing a local artifact of the same name.
func (m *Mirror) Pull(ctx context.Context, mgr *Manager, dumpName string) error {
	file, err := mgr.DumpFile(dumpName)
	if err != nil {
		return err
	}
	if err := m.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	key := ObjectKey(mgr.Name(), dumpName)
	if _, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return fmt.Errorf("%w: s3://%s/%s", ErrDumpNotFound, m.bucketName, key)
		}
		return err
	}
	mgr.DeleteDump(dumpName)
	if err := m.client.FGetObject(ctx, m.bucketName, key, file, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	logging.Info(subsystem, "Pulled s3://%s/%s to %s", m.bucketName, key, file)
	return nil
}

// List returns the mirrored artifacts of database sorted by name.
func (m *Mirror) List(ctx context.Context, database string) ([]RemoteDump, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	prefix := strings.TrimSuffix(database, "/") + "/"
	var out []RemoteDump
	for obj := range m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		out = append(out, RemoteDump{
			Name:         strings.TrimPrefix(obj.Key, prefix),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ObjectKey is the bucket key of an artifact.
func ObjectKey(database, dumpName string) string {
	return database + "/" + filepath.Base(strings.TrimSpace(dumpName))
}
