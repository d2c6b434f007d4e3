// Package fallback provides the bounded, time-limited store of
// previously successful results used to answer requests when the live
// path fails.
package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one cached result.
type Entry struct {
	Key      string    `json:"key"`
	Data     any       `json:"data"`
	StoredAt time.Time `json:"stored_at"`
	Service  string    `json:"service"`
	Method   string    `json:"method"`
}

// Cache is the fallback store contract. Implementations must treat
// entries older than their TTL as absent.
type Cache interface {
	Get(ctx context.Context, service, method string, params map[string]any) (any, bool, error)
	Put(ctx context.Context, service, method string, params map[string]any, data any) error
	Size(ctx context.Context) (int, error)
}

// Key derives the cache key for (service, method, params). Parameter
// ordering must not affect the key: encoding/json marshals map keys in
// sorted order at every nesting level, which gives us a canonical form
// for free.
func Key(service, method string, params map[string]any) (string, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to normalize params: %w", err)
	}
	sum := sha256.Sum256([]byte(service + "|" + method + "|" + string(canonical)))
	return hex.EncodeToString(sum[:]), nil
}
