package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Key layout (lexicographically sortable):
// - profile/{profile}/activitylog   (one envelope per profile)
var (
	profilePrefix = []byte("profile/")
	logSuffix     = []byte("/activitylog")
)

// KeyActivityLog builds the envelope key for a profile. Profiles get their
// own keys so multiple save slots never collide in one database.
func KeyActivityLog(profile string) []byte {
	k := make([]byte, 0, len(profilePrefix)+len(profile)+len(logSuffix))
	k = append(k, profilePrefix...)
	k = append(k, profile...)
	k = append(k, logSuffix...)
	return k
}

// KVOptions configures the Pebble-backed store backend.
type KVOptions struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Profile scopes all keys to one save profile.
	Profile string
	// Sync forces a WAL fsync on each write. Saves are debounced and rare,
	// so syncing every one is affordable.
	Sync bool
	// PebbleOptions allows advanced tuning. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

// KVBackend is the count-bounded variant backed by a Pebble database. The
// count ceiling itself lives in settings and is enforced by eviction before
// the save reaches this backend.
type KVBackend struct {
	db      *pebble.DB
	key     []byte
	profile string
	sync    bool
}

// OpenKV creates or opens the Pebble database behind a KVBackend.
func OpenKV(opts KVOptions) (*KVBackend, error) {
	if opts.DataDir == "" {
		return nil, errors.New("storage: KVOptions.DataDir is required")
	}
	if opts.Profile == "" {
		return nil, errors.New("storage: KVOptions.Profile is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	db, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("storage: open pebble: %w", err)
	}
	return &KVBackend{
		db:      db,
		key:     KeyActivityLog(opts.Profile),
		profile: opts.Profile,
		sync:    opts.Sync,
	}, nil
}

// Close closes the underlying database.
func (k *KVBackend) Close() error {
	if k == nil || k.db == nil {
		return nil
	}
	return k.db.Close()
}

// Profile returns the profile identifier this backend is scoped to.
func (k *KVBackend) Profile() string { return k.profile }

// Load implements Backend.
func (k *KVBackend) Load(_ context.Context) ([]byte, error) {
	val, closer, err := k.db.Get(k.key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: kv get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// Save implements Backend.
func (k *KVBackend) Save(_ context.Context, data []byte) error {
	b := k.db.NewBatch()
	defer b.Close()
	if err := b.Set(k.key, data, nil); err != nil {
		return fmt.Errorf("storage: kv set: %w", err)
	}
	mode := pebble.NoSync
	if k.sync {
		mode = pebble.Sync
	}
	if err := b.Commit(mode); err != nil {
		return fmt.Errorf("storage: kv commit: %w", err)
	}
	return nil
}

// Capacity implements Backend.
func (*KVBackend) Capacity() Capacity { return Capacity{Kind: CapacityRecords} }
