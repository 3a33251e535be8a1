package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/node"
	"go.dedis.ch/piggybank/blockchain/transaction"
	"go.dedis.ch/piggybank/logging"
)

type Conf struct {
	Name       string // label for logs
	PrivateKey *ecdsa.PrivateKey
	Node       *node.Node
}

type PrivateKey struct {
	*ecdsa.PrivateKey
	bytes []byte
}

func (pri *PrivateKey) String() string {
	return hex.EncodeToString(pri.bytes)[:8] + "..."
}

type PublicKey struct {
	*ecdsa.PublicKey
	bytes []byte
}

func (pub *PublicKey) String() string {
	return hex.EncodeToString(pub.bytes)[:8] + "..."
}

// Wallet holds a keypair and submits signed transactions to the sandbox
// node.
type Wallet struct {
	logger zerolog.Logger

	node       *node.Node
	addr       account.Address
	publicKey  PublicKey
	privateKey PrivateKey
}

func NewWallet(conf Conf) *Wallet {
	w := Wallet{}
	w.node = conf.Node
	w.publicKey = PublicKey{&conf.PrivateKey.PublicKey, crypto.FromECDSAPub(&conf.PrivateKey.PublicKey)}
	w.privateKey = PrivateKey{conf.PrivateKey, crypto.FromECDSA(conf.PrivateKey)}
	w.addr = account.NewAddressFromPublicKey(w.publicKey.bytes)
	w.logger = logging.RootLogger.With().Str("Wallet", conf.Name).Logger()
	w.logger.Info().Msgf("wallet created: pubKey=%s, addr=%s", w.publicKey.String(), w.addr)
	return &w
}

func (w *Wallet) Address() account.Address {
	return w.addr
}

func (w *Wallet) Balance() (uint64, error) {
	return w.node.BalanceOf(w.addr)
}

// Transfer moves value to another external account.
func (w *Wallet) Transfer(to account.Address, amount uint64) (*node.Receipt, error) {
	return w.submit(to, amount, "")
}

// Deposit drops amount into the piggy bank through the payable insert
// entry point.
func (w *Wallet) Deposit(amount uint64) (*node.Receipt, error) {
	return w.submit(w.node.ContractAddr(), amount, "insert()")
}

// Smash asks the contract to pay the full balance out to the owner.
func (w *Wallet) Smash() (*node.Receipt, error) {
	return w.submit(w.node.ContractAddr(), 0, "smash()")
}

// Call submits an arbitrary entry-point call expression with an attached
// amount. Used by the CLI.
func (w *Wallet) Call(expr string, attached uint64) (*node.Receipt, error) {
	return w.submit(w.node.ContractAddr(), attached, expr)
}

// View reads the contract state tag and balance without a transaction.
func (w *Wallet) View() (string, uint64, error) {
	return w.node.View()
}

func (w *Wallet) submit(to account.Address, value uint64, entry string) (*node.Receipt, error) {
	nonce, err := w.node.NonceOf(w.addr)
	if err != nil {
		return nil, fmt.Errorf("query nonce: %w", err)
	}
	txn := transaction.NewTransaction(nonce+1, w.addr, to, value, entry)
	signed, err := transaction.Sign(txn, w.privateKey.PrivateKey)
	if err != nil {
		return nil, err
	}
	w.logger.Debug().Msgf("submitting %s", txn)
	return w.node.Submit(signed)
}
