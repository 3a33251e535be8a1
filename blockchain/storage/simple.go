package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SimpleKV is the in-memory KV used by the sandbox. Values must be
// JSON-serializable: Copy and the persistent snapshots round-trip them
// through encoding/json.
type SimpleKV struct {
	Internal map[string]interface{}
}

func NewSimpleKV() *SimpleKV {
	return &SimpleKV{Internal: make(map[string]interface{})}
}

func (skv *SimpleKV) Get(key string) (interface{}, error) {
	value, ok := skv.Internal[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (skv *SimpleKV) Put(key string, value interface{}) error {
	skv.Internal[key] = value
	return nil
}

func (skv *SimpleKV) Del(key string) error {
	_, ok := skv.Internal[key]
	if !ok {
		return ErrKeyNotFound
	}

	delete(skv.Internal, key)
	return nil
}

func (skv *SimpleKV) Copy() KV {
	serialized, err := json.Marshal(skv)
	if err != nil {
		panic(err)
	}
	ret := &SimpleKV{}
	if err = json.Unmarshal(serialized, ret); err != nil {
		panic(err)
	}
	return ret
}

func (skv *SimpleKV) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, key := range skv.sortedKeys() {
		sb.WriteString(fmt.Sprintf("%s->%v,", key, skv.Internal[key]))
	}
	sb.WriteString("}")
	return sb.String()
}

// Hash walks entries in key order so that two KVs holding the same
// content always hash the same.
func (skv *SimpleKV) Hash() string {
	h := sha256.New()
	for _, key := range skv.sortedKeys() {
		if _, err := h.Write([]byte(key)); err != nil {
			panic(err)
		}
		bytes, err := json.Marshal(skv.Internal[key])
		if err != nil {
			panic(err)
		}
		if _, err = h.Write(bytes); err != nil {
			panic(err)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (skv *SimpleKV) sortedKeys() []string {
	keys := make([]string, 0, len(skv.Internal))
	for key := range skv.Internal {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
