package cache

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bPayload = []byte("payload") // key = platform 0x00 slug -> entryBytes

// Store caches formatted platform payloads so preview requests do not
// recompute on every hit. Entries carry the source content hash; a
// mismatch means stale and is treated as a miss.
type Store struct {
	db *bolt.DB
}

type OpenOptions struct {
	Path string // e.g. ".crosspost/cache.db"
}

func Open(opt OpenOptions) (*Store, error) {
	if opt.Path == "" {
		return nil, errors.New("cache: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bPayload)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached payload for (platform, slug) if its hash still
// matches contentHash.
func (s *Store) Get(platform, slug, contentHash string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bPayload).Get(makePayloadKey(platform, slug))
		if v == nil {
			return nil
		}
		e, err := decodeEntry(v)
		if err != nil {
			// 坏数据当 miss 处理
			return nil
		}
		if e.ContentHash == contentHash {
			payload = e.Payload
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload, payload != nil, nil
}

func (s *Store) Put(platform, slug, contentHash string, payload []byte) error {
	v, err := encodeEntry(entry{ContentHash: contentHash, Payload: payload})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bPayload).Put(makePayloadKey(platform, slug), v)
	})
}

// GetOrCompute is the usual path: cache hit or compute-and-store. Compute
// errors pass through untouched and nothing is cached for them.
func (s *Store) GetOrCompute(platform, slug, contentHash string, compute func() ([]byte, error)) ([]byte, error) {
	if b, ok, err := s.Get(platform, slug, contentHash); err != nil {
		return nil, err
	} else if ok {
		return b, nil
	}
	b, err := compute()
	if err != nil {
		return nil, err
	}
	if err := s.Put(platform, slug, contentHash, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DropAll empties the payload bucket. Used on full rebuilds, where slugs
// may have disappeared and per-key invalidation cannot catch that.
func (s *Store) DropAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bPayload); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bPayload)
		return err
	})
}
