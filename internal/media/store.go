// Package media stores listing photos in an object storage bucket and hands
// back stable public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/kcgaragesales/kc-garage-sales/internal/provider"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrExists is returned by Put when the generated name is already taken.
// Uploads never overwrite.
var ErrExists = errors.New("object already exists")

// Store persists photo bytes and deletes them by public URL.
type Store interface {
	Put(ctx context.Context, data []byte, contentType, originalName string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// FileName returns a random object name that keeps the original extension,
// falling back to jpg.
func FileName(originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// PublicURL builds <base>/<bucket>/<name>.
func PublicURL(baseURL, bucket, name string) string {
	return strings.TrimRight(baseURL, "/") + "/" + bucket + "/" + url.PathEscape(name)
}

// ObjectName extracts the stored file name (last path segment) from a public URL.
func ObjectName(publicURL string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parsing photo url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("no file name in photo url %q", publicURL)
	}
	return name, nil
}

// IsImage reports whether contentType is an image MIME type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// GCS stores photos in a Google Cloud Storage bucket.
type GCS struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
	baseURL    string
}

// NewGCS opens a storage client for bucket. credentialsFile may be empty to
// use application default credentials.
func NewGCS(ctx context.Context, bucket, baseURL, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{
		client:     client,
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
		baseURL:    baseURL,
	}, nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Put uploads data under a fresh random name and returns its public URL.
func (g *GCS) Put(ctx context.Context, data []byte, contentType, originalName string) (string, error) {
	name := FileName(originalName)
	start := time.Now()
	provider.LogRequest("gcs", http.MethodPost, g.bucketName, map[string]interface{}{
		"object": name,
		"bytes":  len(data),
	})

	w := g.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := w.Write(data); err != nil {
		w.Close()
		provider.LogError("gcs", "upload", err)
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		provider.LogError("gcs", "upload", err)
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}

	provider.LogResponse("gcs", http.StatusOK, time.Since(start), 1)
	return PublicURL(g.baseURL, g.bucketName, name), nil
}

// Delete removes the object a public URL points at. A missing object is not
// an error.
func (g *GCS) Delete(ctx context.Context, publicURL string) error {
	name, err := ObjectName(publicURL)
	if err != nil {
		return err
	}

	err = g.bucket.Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		provider.LogError("gcs", "delete", err)
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}
