package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/phenrril/storefront/internal/domain"
)

// Bucket guarda los uploads en un bucket de Cloud Storage.
type Bucket struct {
	client    *storage.Client
	name      string
	cdnDomain string
}

// clientOptions toma las credenciales de GOOGLE_APPLICATION_CREDENTIALS(_JSON);
// sin ellas usa las credenciales por defecto del entorno.
func clientOptions() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		return append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	return append(opts, option.WithCredentialsFile(creds))
}

func New(ctx context.Context, bucket, cdnDomain string) (*Bucket, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET faltante")
	}
	c, err := storage.NewClient(ctx, clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Bucket{client: c, name: bucket, cdnDomain: strings.TrimSpace(cdnDomain)}, nil
}

func (b *Bucket) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := b.client.Bucket(b.name).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.NotFound("archivo")
	}
	if err != nil {
		return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	return publicURL(b.name, b.cdnDomain, key)
}

func publicURL(bucket, cdnDomain, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func (b *Bucket) Close() error { return b.client.Close() }
