// Package cache memoises git results that are fixed once a commit exists.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/changectx/internal/errors"
)

// Store is a bbolt-backed key/value cache of JSON values grouped in buckets
type Store struct {
	db     *bolt.DB
	logger logrus.FieldLogger
}

// Open opens (creating if needed) the cache file at path
func Open(path string, logger logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create cache directory for %s", path)
	}

	// A second process holding the file gets a timeout instead of blocking forever.
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "open cache %s", path)
	}

	return &Store{
		db:     db,
		logger: logger.WithField("cache", path),
	}, nil
}

// Close releases the cache file
func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into v. It reports false when the
// key is missing or the stored value cannot be decoded.
func (s *Store) Get(bucket, key string, v interface{}) bool {
	var data []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if raw := b.Get([]byte(key)); raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if data == nil {
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("discarding undecodable cache entry")
		return false
	}
	return true
}

// Put stores v under key as JSON
func (s *Store) Put(bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.InternalErrorf("encode cache entry %s: %v", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return errors.FileSystemErrorf(err, "write cache entry %s", key)
	}
	return nil
}

// Len returns the number of entries in bucket
func (s *Store) Len(bucket string) int {
	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(bucket)); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}
