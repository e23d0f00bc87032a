// Package objectstore keeps playback text in a NATS JetStream object store so
// that playback commands can reference it by key instead of carrying it.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/book-expert/vibevoice/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultTTL bounds how long unread playback text stays in the bucket.
const DefaultTTL = time.Hour

// Error messages.
const (
	errFmtBucketCreate = "failed to create object store bucket '%s': %w"
	errFmtBucketBind   = "failed to bind to existing object store bucket '%s': %w"
	errFmtGet          = "failed to get object '%s' from bucket '%s': %w"
	errFmtRead         = "failed to read object '%s': %w"
	errFmtClose        = "failed to close object '%s': %w"
	errFmtPut          = "failed to put object '%s' to bucket '%s': %w"
	errFmtDelete       = "failed to delete object '%s' from bucket '%s': %w"
)

// ErrBucketNameEmpty is returned when no bucket name is configured.
var ErrBucketNameEmpty = errors.New("bucket name cannot be empty")

// Config describes the bucket backing the store.
type Config struct {
	Bucket string
	// Durable selects file storage. Memory storage is used otherwise.
	Durable bool
	TTL     time.Duration
}

// NatsObjectStore implements core.ObjectStore on a JetStream object bucket.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

var _ core.ObjectStore = (*NatsObjectStore)(nil)

// New creates the bucket, or binds to it if it already exists.
func New(jetstreamContext nats.JetStreamContext, cfg Config) (*NatsObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketNameEmpty
	}

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	storage := nats.MemoryStorage
	if cfg.Durable {
		storage = nats.FileStorage
	}

	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      cfg.Bucket,
		Description: "VibeVoice playback text handed to the audio driver.",
		TTL:         cfg.TTL,
		Storage:     storage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf(errFmtBucketCreate, cfg.Bucket, err)
		}

		store, err = jetstreamContext.ObjectStore(cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf(errFmtBucketBind, cfg.Bucket, err)
		}
	}

	return &NatsObjectStore{
		bucket: cfg.Bucket,
		store:  store,
	}, nil
}

// Download retrieves an object from the bucket.
func (n *NatsObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key, nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf(errFmtGet, key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf(errFmtRead, key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf(errFmtClose, key, closeErr)
	}

	return data, nil
}

// Upload stores data under key, replacing any previous object.
func (n *NatsObjectStore) Upload(ctx context.Context, key string, data []byte) error {
	_, err := n.store.Put(&nats.ObjectMeta{Name: key}, bytes.NewReader(data), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf(errFmtPut, key, n.bucket, err)
	}

	return nil
}

// Delete removes the object stored under key.
func (n *NatsObjectStore) Delete(_ context.Context, key string) error {
	err := n.store.Delete(key)
	if err != nil {
		return fmt.Errorf(errFmtDelete, key, n.bucket, err)
	}

	return nil
}
