package account

import (
	"fmt"

	"go.dedis.ch/piggybank/blockchain/storage"
)

// Account pairs an address with its host-side state.
type Account struct {
	addr  Address
	state *State
}

func (a *Account) GetAddr() Address {
	return a.addr
}

func (a *Account) GetState() *State {
	return a.state
}

func (a *Account) String() string {
	return fmt.Sprintf("{addr: %s, state: %s}", a.addr, a.state)
}

type AccountBuilder struct {
	addr  Address
	state *StateBuilder
}

func NewAccountBuilder(addr Address, kvFactory storage.KVFactory) *AccountBuilder {
	return &AccountBuilder{addr: addr, state: NewStateBuilder(kvFactory)}
}

func NewAccountBuilderFromPublicKey(pub []byte, kvFactory storage.KVFactory) *AccountBuilder {
	return NewAccountBuilder(NewAddressFromPublicKey(pub), kvFactory)
}

func NewContractAccountBuilder(addr Address, codeHash string, kvFactory storage.KVFactory) *AccountBuilder {
	ab := &AccountBuilder{addr: addr, state: NewStateBuilder(kvFactory)}
	ab.state.SetCodeHash(codeHash)
	return ab
}

func (ab *AccountBuilder) WithBalance(balance uint64) *AccountBuilder {
	ab.state.SetBalance(balance)
	return ab
}

func (ab *AccountBuilder) WithKV(key string, value interface{}) *AccountBuilder {
	ab.state.SetKV(key, value)
	return ab
}

func (ab *AccountBuilder) Build() *Account {
	return &Account{ab.addr, ab.state.Build()}
}
