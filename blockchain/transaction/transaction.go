package transaction

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"go.dedis.ch/piggybank/blockchain/account"
)

// Transaction is one host invocation: either a plain value transfer, or a
// contract call when To is a contract account. Entry carries the call
// expression ("insert()", "smash()"); Value the attached amount for payable
// entry points.
type Transaction struct {
	Nonce uint64          `json:"nonce"`
	From  account.Address `json:"from"`
	To    account.Address `json:"to"`
	Value uint64          `json:"value"`
	Entry string          `json:"entry,omitempty"`
}

func NewTransaction(nonce uint64, from, to account.Address, value uint64, entry string) *Transaction {
	return &Transaction{Nonce: nonce, From: from, To: to, Value: value, Entry: entry}
}

// Hash returns the keccak digest signed by the sender.
func (t *Transaction) Hash() ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("hash txn: %w", err)
	}
	return crypto.Keccak256(raw), nil
}

func (t *Transaction) String() string {
	return fmt.Sprintf("{nonce=%d, from=%s, to=%s, value=%d, entry=%q}",
		t.Nonce, t.From, t.To, t.Value, t.Entry)
}

// SignedTransaction wraps a Transaction with a recoverable ECDSA signature
// over its hash.
type SignedTransaction struct {
	Txn Transaction `json:"txn"`
	Sig []byte      `json:"sig"`
}

func Sign(txn *Transaction, key *ecdsa.PrivateKey) (*SignedTransaction, error) {
	digest, err := txn.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("sign txn: %w", err)
	}
	return &SignedTransaction{Txn: *txn, Sig: sig}, nil
}

// Verify recovers the signer from the signature and checks it against the
// From address.
func (st *SignedTransaction) Verify() error {
	digest, err := st.Txn.Hash()
	if err != nil {
		return err
	}
	pub, err := crypto.SigToPub(digest, st.Sig)
	if err != nil {
		return fmt.Errorf("recover signer: %w", err)
	}
	signer := account.NewAddressFromPublicKey(crypto.FromECDSAPub(pub))
	if !bytes.Equal(signer.Bytes(), st.Txn.From.Bytes()) {
		return fmt.Errorf("signature by %s does not match sender %s", signer, st.Txn.From)
	}
	return nil
}

func (st *SignedTransaction) String() string {
	return fmt.Sprintf("{txn=%s, sig=%x...}", &st.Txn, st.Sig[:4])
}
