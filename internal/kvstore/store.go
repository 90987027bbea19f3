// ABOUTME: Key-value store abstraction backing OAuth proxy state
// ABOUTME: Open selects the memory:// or disk:// implementation by URL scheme

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("key not found")

// ErrUnsupportedScheme is returned by Open for unknown store URLs.
var ErrUnsupportedScheme = errors.New("unsupported store URL scheme")

// Store holds byte values grouped into collections. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, collection, key string) ([]byte, error)
	// Put stores value under key. A ttl of zero keeps the entry forever.
	Put(ctx context.Context, collection, key string, value []byte, ttl time.Duration) error
	// Take reads and removes a key atomically.
	Take(ctx context.Context, collection, key string) ([]byte, error)
	Delete(ctx context.Context, collection, key string) error
	Close() error
}

const diskFileName = "oauth-proxy.db"

// Open parses a store URL. An empty URL and memory:// give a MemoryStore;
// disk://<path> gives a DiskStore at path, or at a file inside path when
// path is an existing directory.
func Open(rawURL string) (Store, error) {
	if rawURL == "" {
		return NewMemoryStore(), nil
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}

	switch scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "disk":
		if rest == "" {
			return nil, fmt.Errorf("disk store URL %q has no path", rawURL)
		}
		path := rest
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, diskFileName)
		}
		return NewDiskStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
