package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

var (
	errBucketRequired = errors.New("gcs bucket name is required")
	errObjectRequired = errors.New("gcs object name is required")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Name        string
	ContentType string
	Size        int64
	URL         string
}

type Client struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a storage client from inline JSON credentials, a credentials
// file, or application default credentials, in that order.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errBucketRequired
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	c := &Client{
		client:        sc,
		bucket:        strings.TrimSpace(cfg.BucketName),
		publicBaseURL: cfg.PublicBaseURL,
	}
	if err := c.Ping(ctx); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return c, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Upload streams r into object and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, r io.Reader) (ObjectInfo, error) {
	if c == nil || c.client == nil {
		return ObjectInfo{}, errors.New("gcs client not initialized")
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ObjectInfo{}, errObjectRequired
	}

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	size, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return ObjectInfo{}, fmt.Errorf("writing object %q: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("finalizing object %q: %w", object, err)
	}

	return ObjectInfo{
		Bucket:      c.bucket,
		Name:        object,
		ContentType: contentType,
		Size:        size,
		URL:         PublicURL(c.publicBaseURL, c.bucket, object),
	}, nil
}

// Delete removes object; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	err := c.client.Bucket(c.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object %q: %w", object, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("reading bucket %q: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PublicURL joins base, bucket and object into a browser-facing URL.
func PublicURL(base, bucket, object string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), strings.Join(segments, "/"))
}
