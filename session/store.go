package session

import "context"

// Store is durable key/value storage for the raw token.
type Store interface {
	// Read returns the stored value; ok is false when the key is absent.
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// NopStore is the Store for contexts without durable storage. Reads always miss.
type NopStore struct{}

func (NopStore) Read(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopStore) Write(context.Context, string, string) error        { return nil }
func (NopStore) Remove(context.Context, string) error               { return nil }
