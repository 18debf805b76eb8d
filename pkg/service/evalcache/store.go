package evalcache

import (
	"context"
	"fmt"
	"time"

	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Store persists serialized evaluation results with per-entry expiry.
//
// Keys are laid out as "eval/<framework>/<org>/<fingerprint>" so both
// invalidation paths reduce to a prefix delete: dropping one (organization,
// framework) pair and dropping a whole framework across organizations.
type Store interface {
	// Get returns the value for key, or ok=false when the key is absent or
	// expired
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put stores the value under key with the given time to live
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all keys starting with prefix and returns how
	// many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Sweep reclaims storage held by expired entries and returns how many
	// were removed. Backends that expire natively may treat this as a
	// maintenance hook and return 0.
	Sweep(ctx context.Context) (int, error)

	// Close releases backend resources
	Close() error
}

const keyRoot = "eval"

func entryKey(code types.FrameworkCode, orgID int64, fp model.Fingerprint) string {
	return fmt.Sprintf("%s/%s/%d/%s", keyRoot, code, orgID, fp)
}

func pairPrefix(code types.FrameworkCode, orgID int64) string {
	return fmt.Sprintf("%s/%s/%d/", keyRoot, code, orgID)
}

func frameworkPrefix(code types.FrameworkCode) string {
	return fmt.Sprintf("%s/%s/", keyRoot, code)
}
