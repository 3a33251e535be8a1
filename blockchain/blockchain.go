package blockchain

import (
	"crypto/ecdsa"

	"github.com/rs/zerolog"

	"go.dedis.ch/piggybank/blockchain/node"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/wallet"
	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/logging"
)

type SandboxConf struct {
	Name         string
	OwnerKey     *ecdsa.PrivateKey
	OwnerBalance uint64 // genesis funding for the owner account
	KVFactory    storage.KVFactory
	Code         contract.SmartContract
	Store        *storage.BoltStore // optional persistence
}

// Sandbox bundles a host node with the owner's wallet: everything needed
// to deploy and poke the contract in-process.
type Sandbox struct {
	logger zerolog.Logger
	*node.Node
	Owner *wallet.Wallet
}

// NewSandbox assembles the node, funds the owner account (unless restored
// from the store) and deploys the contract.
func NewSandbox(conf SandboxConf) (*Sandbox, error) {
	n, err := node.NewNode(node.Conf{
		Name:      conf.Name,
		KVFactory: conf.KVFactory,
		Code:      conf.Code,
		Store:     conf.Store,
	})
	if err != nil {
		return nil, err
	}

	w := wallet.NewWallet(wallet.Conf{Name: conf.Name + "/owner", PrivateKey: conf.OwnerKey, Node: n})

	if !n.Deployed() {
		if err := n.CreateAccount(w.Address(), conf.OwnerBalance); err != nil {
			return nil, err
		}
		if _, err := n.Deploy(w.Address()); err != nil {
			return nil, err
		}
	}

	s := &Sandbox{Node: n, Owner: w}
	s.logger = logging.RootLogger.With().Str("Sandbox", conf.Name).Logger()
	s.logger.Info().Msgf("sandbox ready: contract=%s, owner=%s", n.ContractAddr(), w.Address())
	return s, nil
}
