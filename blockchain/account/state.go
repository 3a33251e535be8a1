package account

import (
	"fmt"

	"go.dedis.ch/piggybank/blockchain/storage"
)

// State is everything the host tracks for one account.
type State struct {
	Nonce       uint64     // number of transactions sent from the account
	Balance     uint64     // coins owned by the account
	StorageRoot storage.KV // the account's own storage
	CodeHash    string     // code identifier, empty for external accounts
}

func NewState(kvFactory storage.KVFactory) *State {
	return &State{StorageRoot: kvFactory()}
}

func (s *State) IsContract() bool {
	return s.CodeHash != ""
}

func (s *State) String() string {
	return fmt.Sprintf("{nonce=%d, balance=%d, storageRoot=%s, codeHash=%s}",
		s.Nonce, s.Balance, s.StorageRoot.Hash(), s.CodeHash)
}

// Snapshot is the JSON-friendly form of State written to the persistent
// store between sandbox runs.
type Snapshot struct {
	Nonce    uint64                 `json:"nonce"`
	Balance  uint64                 `json:"balance"`
	Storage  map[string]interface{} `json:"storage"`
	CodeHash string                 `json:"codeHash"`
}

func (s *State) Snapshot() (*Snapshot, error) {
	skv, ok := s.StorageRoot.(*storage.SimpleKV)
	if !ok {
		return nil, fmt.Errorf("cannot snapshot storage root of type %T", s.StorageRoot)
	}
	snap := &Snapshot{
		Nonce:    s.Nonce,
		Balance:  s.Balance,
		Storage:  make(map[string]interface{}, len(skv.Internal)),
		CodeHash: s.CodeHash,
	}
	for k, v := range skv.Internal {
		snap.Storage[k] = v
	}
	return snap, nil
}

func (snap *Snapshot) Restore() *State {
	skv := storage.NewSimpleKV()
	for k, v := range snap.Storage {
		skv.Internal[k] = v
	}
	return &State{
		Nonce:       snap.Nonce,
		Balance:     snap.Balance,
		StorageRoot: skv,
		CodeHash:    snap.CodeHash,
	}
}

type StateBuilder struct {
	state *State
}

func NewStateBuilder(kvFactory storage.KVFactory) *StateBuilder {
	return &StateBuilder{state: NewState(kvFactory)}
}

func (sb *StateBuilder) SetBalance(balance uint64) *StateBuilder {
	sb.state.Balance = balance
	return sb
}

func (sb *StateBuilder) SetCodeHash(codeHash string) *StateBuilder {
	sb.state.CodeHash = codeHash
	return sb
}

func (sb *StateBuilder) SetKV(key string, value interface{}) *StateBuilder {
	if err := sb.state.StorageRoot.Put(key, value); err != nil {
		panic(err)
	}
	return sb
}

func (sb *StateBuilder) Build() *State {
	return sb.state
}
