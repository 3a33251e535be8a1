package node

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/transaction"
	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/logging"
)

const (
	accountKeyPrefix = "account/"
	deploymentKey    = "meta/deployment"
)

type Conf struct {
	Name      string // label for logs
	KVFactory storage.KVFactory
	Code      contract.SmartContract
	Store     *storage.BoltStore // optional, keeps state across runs
}

// Node is the sandbox host the contract executes on. It owns the world
// state (address -> account state), settles transfers, and applies signed
// transactions strictly one at a time.
type Node struct {
	logger zerolog.Logger

	mu        sync.Mutex
	kvFactory storage.KVFactory
	world     storage.KV
	code      contract.SmartContract
	store     *storage.BoltStore

	deployed     bool
	owner        account.Address
	contractAddr account.Address
	instanceID   string

	receipts []Receipt
}

// Receipt records the outcome of one applied transaction.
type Receipt struct {
	TxnHash string `json:"txnHash"`
	Entry   string `json:"entry,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type deployment struct {
	Owner        account.Address `json:"owner"`
	ContractAddr account.Address `json:"contractAddr"`
	InstanceID   string          `json:"instanceID"`
}

func NewNode(conf Conf) (*Node, error) {
	n := &Node{
		kvFactory: conf.KVFactory,
		world:     conf.KVFactory(),
		code:      conf.Code,
		store:     conf.Store,
	}
	n.logger = logging.RootLogger.With().Str("Node", conf.Name).Logger()
	if err := n.restore(); err != nil {
		return nil, err
	}
	n.logger.Info().Msgf("node created: code=%s, deployed=%v", n.code.CodeID(), n.deployed)
	return n, nil
}

// CreateAccount funds an external account. Used to seed the sandbox.
func (n *Node) CreateAccount(addr account.Address, balance uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := n.world.Get(addr.Hex()); err == nil {
		return xerrors.Errorf("account %s already exists", addr)
	}
	acc := account.NewAccountBuilder(addr, n.kvFactory).WithBalance(balance).Build()
	if err := n.world.Put(acc.GetAddr().Hex(), acc.GetState()); err != nil {
		return xerrors.Errorf("cannot store account %s: %w", addr, err)
	}
	n.logger.Debug().Msgf("account created: %s", acc)
	return n.persistAccount(acc.GetAddr(), acc.GetState())
}

// Deploy creates the contract account owned by owner and runs the
// contract's Init entry point. A sandbox hosts a single deployment.
func (n *Node) Deploy(owner account.Address) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.deployed {
		return "", xerrors.Errorf("contract %s already deployed at %s", n.code.CodeID(), n.contractAddr)
	}
	if _, err := n.stateOf(owner); err != nil {
		return "", xerrors.Errorf("owner %s: %w", owner, err)
	}

	var addr account.Address
	copy(addr[:], crypto.Keccak256(owner.Bytes(), []byte(n.code.CodeID()))[12:])
	acc := account.NewContractAccountBuilder(addr, n.code.CodeID(), n.kvFactory).Build()
	state := acc.GetState()
	if err := n.world.Put(addr.Hex(), state); err != nil {
		return "", xerrors.Errorf("cannot store contract account: %w", err)
	}
	if err := n.code.Init(&contractHost{node: n, addr: addr, state: state}); err != nil {
		return "", xerrors.Errorf("init entry point: %w", err)
	}

	n.deployed = true
	n.owner = owner
	n.contractAddr = addr
	n.instanceID = xid.New().String()
	n.logger.Info().Msgf("contract deployed: id=%s, addr=%s, owner=%s", n.instanceID, addr, owner)

	if err := n.persistAccount(addr, state); err != nil {
		return "", err
	}
	return n.instanceID, n.persistDeployment()
}

// Submit verifies and applies one signed transaction. The receipt is
// recorded whether execution succeeded or not; the execution error, if
// any, is returned alongside it unchanged.
func (n *Node) Submit(st *transaction.SignedTransaction) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	receipt := &Receipt{Entry: st.Txn.Entry}
	if digest, err := st.Txn.Hash(); err == nil {
		receipt.TxnHash = hex.EncodeToString(digest)
	}

	err := n.executeTxn(st)
	receipt.OK = err == nil
	if err != nil {
		receipt.Error = err.Error()
		n.logger.Info().Msgf("txn rejected: %s, err=%v", &st.Txn, err)
	} else {
		n.logger.Info().Msgf("txn applied: %s", &st.Txn)
	}
	n.receipts = append(n.receipts, *receipt)

	if perr := n.persistTouched(st); perr != nil {
		return receipt, perr
	}
	return receipt, err
}

// View reports the contract state tag and balance. Read-only.
func (n *Node) View() (string, uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	state, err := n.contractState()
	if err != nil {
		return "", 0, err
	}
	return n.code.View(&contractHost{node: n, addr: n.contractAddr, state: state})
}

func (n *Node) BalanceOf(addr account.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	state, err := n.stateOf(addr)
	if err != nil {
		return 0, err
	}
	return state.Balance, nil
}

func (n *Node) NonceOf(addr account.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	state, err := n.stateOf(addr)
	if err != nil {
		return 0, err
	}
	return state.Nonce, nil
}

func (n *Node) Deployed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deployed
}

func (n *Node) Owner() account.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owner
}

func (n *Node) ContractAddr() account.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.contractAddr
}

func (n *Node) InstanceID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.instanceID
}

func (n *Node) Receipts() []Receipt {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Receipt, len(n.receipts))
	copy(out, n.receipts)
	return out
}

func (n *Node) stateOf(addr account.Address) (*account.State, error) {
	value, err := n.world.Get(addr.Hex())
	if err != nil {
		return nil, xerrors.Errorf("account %s does not exist: %w", addr, err)
	}
	state, ok := value.(*account.State)
	if !ok {
		return nil, xerrors.Errorf("account %s state is corrupted: %v", addr, value)
	}
	return state, nil
}

func (n *Node) contractState() (*account.State, error) {
	if !n.deployed {
		return nil, xerrors.New("contract not deployed")
	}
	return n.stateOf(n.contractAddr)
}

func (n *Node) persistAccount(addr account.Address, state *account.State) error {
	if n.store == nil {
		return nil
	}
	snap, err := state.Snapshot()
	if err != nil {
		return xerrors.Errorf("snapshot %s: %w", addr, err)
	}
	return n.store.Write(accountKeyPrefix+addr.Hex(), snap)
}

func (n *Node) persistDeployment() error {
	if n.store == nil {
		return nil
	}
	return n.store.Write(deploymentKey, deployment{
		Owner:        n.owner,
		ContractAddr: n.contractAddr,
		InstanceID:   n.instanceID,
	})
}

// persistTouched re-snapshots the accounts a transaction may have changed.
// The world is small enough that from, to and the contract account cover it.
func (n *Node) persistTouched(st *transaction.SignedTransaction) error {
	if n.store == nil {
		return nil
	}
	touched := []account.Address{st.Txn.From, st.Txn.To}
	if n.deployed {
		touched = append(touched, n.contractAddr, n.owner)
	}
	seen := map[string]bool{}
	for _, addr := range touched {
		if seen[addr.Hex()] {
			continue
		}
		seen[addr.Hex()] = true
		state, err := n.stateOf(addr)
		if err != nil {
			continue // unknown recipient, nothing to persist
		}
		if err := n.persistAccount(addr, state); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) restore() error {
	if n.store == nil {
		return nil
	}
	err := n.store.ForEach(func(key string, data []byte) error {
		if !strings.HasPrefix(key, accountKeyPrefix) {
			return nil
		}
		addr, err := account.ParseAddress(strings.TrimPrefix(key, accountKeyPrefix))
		if err != nil {
			return err
		}
		snap := &account.Snapshot{}
		if err := json.Unmarshal(data, snap); err != nil {
			return xerrors.Errorf("decode account %s: %w", addr, err)
		}
		return n.world.Put(addr.Hex(), snap.Restore())
	})
	if err != nil {
		return xerrors.Errorf("restore accounts: %w", err)
	}

	dep := deployment{}
	found, err := n.store.Read(deploymentKey, &dep)
	if err != nil {
		return xerrors.Errorf("restore deployment: %w", err)
	}
	if found {
		n.deployed = true
		n.owner = dep.Owner
		n.contractAddr = dep.ContractAddr
		n.instanceID = dep.InstanceID
		n.logger.Info().Msgf("deployment restored: id=%s, addr=%s", n.instanceID, n.contractAddr)
	}
	return nil
}
