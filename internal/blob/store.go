// Package blob stores opaque result payloads outside the row store.
package blob

import (
	"context"
	"errors"
)

// Driver identifies a blob backend.
type Driver string

const (
	// DriverMemory is the in-process test driver.
	DriverMemory Driver = "memory"
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem Driver = "filesystem"
	// DriverS3 is the S3-compatible driver (AWS S3 or MinIO).
	DriverS3 Driver = "s3"
)

// ErrNotFound indicates the key has no stored payload.
var ErrNotFound = errors.New("blob not found")

// Store is the interface for payload storage backends. Put overwrites an
// existing key, which makes retried writes under a stable key idempotent.
// Delete of a missing key is a no-op.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
