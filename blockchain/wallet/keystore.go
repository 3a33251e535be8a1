package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"go.dedis.ch/piggybank/blockchain/storage"
)

const keyPrefix = "key/"

// LoadOrCreateKey returns the named keypair from the store, generating
// and persisting a fresh one the first time. Wallets that must keep
// their address across sandbox restarts (the owner in particular) load
// their key through here.
func LoadOrCreateKey(store *storage.BoltStore, name string) (*ecdsa.PrivateKey, error) {
	var encoded string
	found, err := store.Read(keyPrefix+name, &encoded)
	if err != nil {
		return nil, err
	}
	if found {
		key, err := crypto.HexToECDSA(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode stored key %q: %w", name, err)
		}
		return key, nil
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key %q: %w", name, err)
	}
	if err := store.Write(keyPrefix+name, hex.EncodeToString(crypto.FromECDSA(key))); err != nil {
		return nil, err
	}
	return key, nil
}
