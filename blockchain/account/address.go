package account

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Address identifies an account: the last 20 bytes of the keccak hash of
// the uncompressed public key, same derivation as Ethereum accounts.
type Address [20]byte

func NewAddress(addr [20]byte) Address {
	return Address(addr)
}

// NewAddressFromPublicKey derives the address from an uncompressed
// 65-byte SEC1 public key (as produced by crypto.FromECDSAPub).
func NewAddressFromPublicKey(pub []byte) Address {
	var a Address
	copy(a[:], crypto.Keccak256(pub[1:])[12:])
	return a
}

func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(raw) != len(Address{}) {
		return Address{}, fmt.Errorf("parse address %q: want %d bytes, got %d", s, len(Address{}), len(raw))
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
