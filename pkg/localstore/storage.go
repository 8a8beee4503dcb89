package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys used by the hub client.
const (
	// KeyNotifications holds the serialized notification list.
	KeyNotifications = "notifications"
	// KeyPermissionPrompted records that the desktop notification permission
	// prompt was shown on this device.
	KeyPermissionPrompted = "notification_permission_prompted"
)

// Storage is a small durable key/value store, the Go counterpart of the
// browser's localStorage. Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into v.
func GetJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrCorrupted, fmt.Errorf("decode %q: %w", key, err))
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
