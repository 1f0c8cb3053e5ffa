// Package files turns a document's opaque file reference into a time-limited
// download link on S3-compatible storage.
package files

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

// ErrEmptyRef is returned for documents without a file reference.
var ErrEmptyRef = errors.New("document has no file reference")

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	TTL       time.Duration
}

// Linker presigns GET requests. Presigning is computed locally and needs no
// round trip as long as Region is set.
type Linker struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

func NewLinker(opts Options) (*Linker, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Linker{client: client, bucket: opts.Bucket, ttl: opts.TTL}, nil
}

// ObjectKey normalises a file reference into a bucket key.
func ObjectKey(fileRef string) string {
	key := strings.TrimSpace(fileRef)
	if key == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

// DownloadURL presigns a GET for the document's file, naming the download
// after the document.
func (l *Linker) DownloadURL(ctx context.Context, doc store.Document) (*url.URL, error) {
	key := ObjectKey(doc.FileRef)
	if key == "" {
		return nil, fmt.Errorf("document %s: %w", doc.ID, ErrEmptyRef)
	}
	params := url.Values{}
	if doc.Name != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", doc.Name+path.Ext(key)))
	}
	u, err := l.client.PresignedGetObject(ctx, l.bucket, key, l.ttl, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return u, nil
}

func (l *Linker) TTL() time.Duration {
	return l.ttl
}
