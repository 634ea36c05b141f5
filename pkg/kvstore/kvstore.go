package kvstore

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/jfcardenas/storefront-core/pkg/errors"
)

// Persisted snapshot keys. Values round-trip through JSON and must be treated
// as untrusted on read.
const (
	KeyAdminToken = "admin_token"
	KeyAdminUser  = "admin_user"
	KeyUserToken  = "user_token"
	KeyUserName   = "user_name"
	KeyCartItems  = "cart_items"
)

// ErrNotFound signals an absent (or unreadable) key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the string-keyed persistent snapshot store backing session and
// cart state across process restarts.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON reads and decodes the value stored at key. A snapshot that fails to
// decode is removed and reported as absent: persisted data is untrusted and
// fails closed rather than surfacing a decode error to the caller.
func GetJSON(ctx context.Context, store Store, key string, dest any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		_ = store.Delete(ctx, key)
		return ErrNotFound
	}
	return nil
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal snapshot")
	}
	return store.Set(ctx, key, string(raw))
}
