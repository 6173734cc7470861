package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultBoltBucket = "cache"
	expiryHeaderSize  = 8
)

var errCorruptEntry = errors.New("corrupt cache entry")

// BoltCache implements Backend on a single bbolt bucket.
// Entry layout: 8 bytes big endian expiresAt (unix seconds, 0 = never) || JSON value.
type BoltCache struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// NewBoltCache opens (or creates) the database file at path
func NewBoltCache(path, bucket string) (Backend, error) {
	return newBoltCache(path, bucket)
}

func newBoltCache(path, bucket string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if bucket == "" {
		bucket = defaultBoltBucket
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	return &BoltCache{db: db, bucket: []byte(bucket), now: time.Now}, nil
}

// Store writes value with an absolute expiration computed as now+ttlSeconds
func (b *BoltCache) Store(ctx context.Context, key string, value interface{}, ttlSeconds int) (bool, error) {
	if ttlSeconds < 0 {
		return b.Remove(ctx, key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}

	expiresAt := int64(0)
	if ttlSeconds > 0 {
		expiresAt = expiryUnix(b.now(), ttlSeconds)
	}

	buf := make([]byte, expiryHeaderSize+len(data))
	binary.BigEndian.PutUint64(buf[:expiryHeaderSize], uint64(expiresAt))
	copy(buf[expiryHeaderSize:], data)

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), buf)
	})
	if err != nil {
		return false, fmt.Errorf("bolt put failed: %w", err)
	}

	return true, nil
}

// Fetch returns the decoded value if present and not expired
func (b *BoltCache) Fetch(ctx context.Context, key string) (interface{}, bool, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if len(v) < expiryHeaderSize {
			return errCorruptEntry
		}
		expiresAt := int64(binary.BigEndian.Uint64(v[:expiryHeaderSize]))
		if expiresAt > 0 && b.now().Unix() >= expiresAt {
			return nil
		}
		// v is only valid inside the transaction
		raw = append([]byte(nil), v[expiryHeaderSize:]...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("bolt get failed: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return value, true, nil
}

// Exists reports whether a live entry is stored under key
func (b *BoltCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := b.Fetch(ctx, key)
	return found, err
}

// Remove deletes key from the bucket
func (b *BoltCache) Remove(ctx context.Context, key string) (bool, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("bolt delete failed: %w", err)
	}
	return true, nil
}

// Clear recreates the bucket
func (b *BoltCache) Clear(ctx context.Context) (bool, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(b.bucket)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("bolt clear failed: %w", err)
	}
	return true, nil
}

// Close closes the underlying database
func (b *BoltCache) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
