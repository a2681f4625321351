package localstore

import (
	"context"
	"encoding/json"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/pkg/errors"
)

// LoadJSON reads and unmarshals the value under key. A missing key yields the
// zero value with no error, so callers can treat "no data yet" uniformly.
func LoadJSON[T any](ctx context.Context, store domain.LocalStore, key string) (T, error) {
	var out T

	raw, err := store.GetItem(ctx, key)
	if err != nil {
		return out, err
	}
	if raw == "" {
		return out, nil
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, errors.Wrap(err, "failed to decode storage item: %s", key)
	}
	return out, nil
}

// SaveJSON marshals v and stores it under key.
func SaveJSON(ctx context.Context, store domain.LocalStore, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode storage item: %s", key)
	}
	return store.SetItem(ctx, key, string(raw))
}
