package testing

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"go.dedis.ch/piggybank/blockchain"
	"go.dedis.ch/piggybank/blockchain/node"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/wallet"
	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/contract/piggybank"
)

type configTemplate struct {
	ownerKey     *ecdsa.PrivateKey
	ownerBalance uint64
	kvFactory    storage.KVFactory
	code         contract.SmartContract
	store        *storage.BoltStore
}

func newConfigTemplate() configTemplate {
	return configTemplate{
		ownerBalance: 1000,
		kvFactory:    storage.CreateSimpleKV,
		code:         piggybank.New(),
	}
}

type Option func(*configTemplate)

func WithOwnerKey(key *ecdsa.PrivateKey) Option {
	return func(ct *configTemplate) {
		ct.ownerKey = key
	}
}

func WithOwnerBalance(balance uint64) Option {
	return func(ct *configTemplate) {
		ct.ownerBalance = balance
	}
}

func WithKVFactory(factory storage.KVFactory) Option {
	return func(ct *configTemplate) {
		ct.kvFactory = factory
	}
}

func WithCode(code contract.SmartContract) Option {
	return func(ct *configTemplate) {
		ct.code = code
	}
}

func WithStore(store *storage.BoltStore) Option {
	return func(ct *configTemplate) {
		ct.store = store
	}
}

// NewTestSandbox builds a deployed sandbox for testing purpose.
func NewTestSandbox(t *testing.T, opts ...Option) *blockchain.Sandbox {
	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}
	if template.ownerKey == nil {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		template.ownerKey = key
	}
	sandbox, err := blockchain.NewSandbox(blockchain.SandboxConf{
		Name:         t.Name(),
		OwnerKey:     template.ownerKey,
		OwnerBalance: template.ownerBalance,
		KVFactory:    template.kvFactory,
		Code:         template.code,
		Store:        template.store,
	})
	require.NoError(t, err)
	return sandbox
}

// NewTestWallet funds a fresh external account on the sandbox node and
// wraps it in a wallet.
func NewTestWallet(t *testing.T, n *node.Node, name string, balance uint64) *wallet.Wallet {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := wallet.NewWallet(wallet.Conf{Name: name, PrivateKey: key, Node: n})
	require.NoError(t, n.CreateAccount(w.Address(), balance))
	return w
}
