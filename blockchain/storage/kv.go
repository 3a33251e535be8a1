package storage

import (
	"errors"
)

var ErrKeyNotFound error = errors.New("key not found")

// KV is the mapping every piece of chain state lives in: the world state
// (address -> account state) as well as each account's own storage root.
type KV interface {
	Get(key string) (interface{}, error)
	Put(key string, value interface{}) error
	Del(key string) error
	Hash() string
}

type KVFactory func() KV

func CreateSimpleKV() KV {
	return NewSimpleKV()
}
