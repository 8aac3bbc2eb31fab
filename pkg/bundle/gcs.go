package bundle

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// --- GCS Client Abstraction Interfaces ---
// These let GCSSource be tested without a real Cloud Storage client.

// GCSClient abstracts the top-level *storage.Client.
type GCSClient interface {
	Bucket(name string) GCSBucketHandle
}

// GCSBucketHandle abstracts a *storage.BucketHandle.
type GCSBucketHandle interface {
	Object(name string) GCSObjectHandle
}

// GCSObjectHandle abstracts a *storage.ObjectHandle.
type GCSObjectHandle interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
}

// --- Adapters to wrap the concrete Google Cloud Storage client ---

type gcsClientAdapter struct {
	client *storage.Client
}

// NewGCSClientAdapter makes a *storage.Client conform to GCSClient.
func NewGCSClientAdapter(client *storage.Client) GCSClient {
	if client == nil {
		return nil
	}
	return &gcsClientAdapter{client: client}
}

func (a *gcsClientAdapter) Bucket(name string) GCSBucketHandle {
	return &gcsBucketHandleAdapter{handle: a.client.Bucket(name)}
}

type gcsBucketHandleAdapter struct {
	handle *storage.BucketHandle
}

func (a *gcsBucketHandleAdapter) Object(name string) GCSObjectHandle {
	return &gcsObjectHandleAdapter{handle: a.handle.Object(name)}
}

type gcsObjectHandleAdapter struct {
	handle *storage.ObjectHandle
}

func (a *gcsObjectHandleAdapter) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return a.handle.NewReader(ctx)
}

// GCSSource reads the bundle from a Cloud Storage object.
type GCSSource struct {
	Client GCSClient
	Bucket string
	Object string
}

// Open implements Source.
func (g GCSSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if g.Client == nil {
		return nil, fmt.Errorf("gcs client is required")
	}
	if g.Bucket == "" || g.Object == "" {
		return nil, fmt.Errorf("gcs bucket and object are required")
	}
	r, err := g.Client.Bucket(g.Bucket).Object(g.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", g.Bucket, g.Object, err)
	}
	return r, nil
}

// Name implements Source.
func (g GCSSource) Name() string { return fmt.Sprintf("gs://%s/%s", g.Bucket, g.Object) }
