package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "piggybank"

// BoltStore persists typed snapshots between sandbox runs. It is not a KV:
// callers decode into concrete types instead of casting interface{} values.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

func OpenBoltStore(dbFile string) (*BoltStore, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	s := &BoltStore{db: db, bucket: []byte(defaultBucket)}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return s, nil
}

func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Read decodes the value stored under key into v. The first return value
// reports whether the key was present.
func (s *BoltStore) Read(key string, v interface{}) (bool, error) {
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(s.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, v)
	})
	if err != nil {
		return found, fmt.Errorf("bolt read %q: %w", key, err)
	}
	return found, nil
}

func (s *BoltStore) Write(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("bolt write %q: %w", key, err)
	}
	return nil
}

func (s *BoltStore) Delete(key string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("bolt delete %q: %w", key, err)
	}
	return nil
}

// ForEach calls fn with every key present, decoding is left to the caller
// via Read to keep values typed.
func (s *BoltStore) ForEach(fn func(key string, data []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
