// Package metadata stores small key/value records of the local client
// database, such as the refresh token used to restore a session.
package metadata

import (
	"context"
)

// Repository is a flat key/value store. Get of a missing key returns
// (nil, nil).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
