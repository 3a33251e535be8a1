package node

import (
	"golang.org/x/xerrors"

	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/transaction"
	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/contract/parser"
)

// executeTxn applies one verified transaction to the world state. Callers
// hold n.mu: the host serializes invocations, the contract never has to.
func (n *Node) executeTxn(st *transaction.SignedTransaction) error {
	if err := st.Verify(); err != nil {
		return xerrors.Errorf("verify: %w", err)
	}
	txn := &st.Txn

	fromState, err := n.stateOf(txn.From)
	if err != nil {
		return xerrors.Errorf("sender: %w", err)
	}
	if txn.Nonce != fromState.Nonce+1 {
		return xerrors.Errorf("bad nonce for %s: want %d, got %d", txn.From, fromState.Nonce+1, txn.Nonce)
	}
	// The nonce burns as soon as the transaction is accepted for
	// execution, even when the entry point rejects it.
	fromState.Nonce++

	toState, err := n.stateOf(txn.To)
	if err != nil {
		return xerrors.Errorf("recipient: %w", err)
	}
	if toState.IsContract() {
		return n.doContractCall(txn, fromState, toState)
	}
	return n.doValueTransfer(txn, fromState, toState)
}

func (n *Node) doValueTransfer(txn *transaction.Transaction, fromState, toState *account.State) error {
	if fromState.Balance < txn.Value {
		return xerrors.Errorf("insufficient funds: balance %d < value %d", fromState.Balance, txn.Value)
	}
	fromState.Balance -= txn.Value
	toState.Balance += txn.Value
	if err := n.world.Put(txn.From.Hex(), fromState); err != nil {
		return xerrors.Errorf("cannot store sender state: %w", err)
	}
	if err := n.world.Put(txn.To.Hex(), toState); err != nil {
		return xerrors.Errorf("cannot store recipient state: %w", err)
	}
	return nil
}

// doContractCall dispatches an entry-point call. The attached value only
// settles onto the contract balance after the payable call was accepted;
// a rejection leaves it with the sender.
func (n *Node) doContractCall(txn *transaction.Transaction, fromState, contractState *account.State) error {
	call, err := parser.Parse(txn.Entry)
	if err != nil {
		return xerrors.Errorf("parse entry %q: %w", txn.Entry, err)
	}
	if txn.Value > 0 {
		if !n.code.Payable(call.Name) {
			return xerrors.Errorf("entry point %q is not payable", call.Name)
		}
		if fromState.Balance < txn.Value {
			return xerrors.Errorf("insufficient funds: balance %d < attached %d", fromState.Balance, txn.Value)
		}
	}

	ctx := contract.CallContext{Sender: txn.From, Owner: n.owner, Amount: txn.Value}
	host := &contractHost{node: n, addr: txn.To, state: contractState}
	if err := n.code.Receive(ctx, host, call); err != nil {
		return err
	}

	if txn.Value > 0 {
		fromState.Balance -= txn.Value
		contractState.Balance += txn.Value
		if err := n.world.Put(txn.From.Hex(), fromState); err != nil {
			return xerrors.Errorf("cannot store sender state: %w", err)
		}
		if err := n.world.Put(txn.To.Hex(), contractState); err != nil {
			return xerrors.Errorf("cannot store contract state: %w", err)
		}
	}
	return nil
}

// contractHost gives the contract the host view of its own account.
type contractHost struct {
	node  *Node
	addr  account.Address
	state *account.State
}

func (h *contractHost) Storage() storage.KV {
	return h.state.StorageRoot
}

func (h *contractHost) SelfBalance() uint64 {
	return h.state.Balance
}

// Transfer settles funds from the contract account onto the ledger.
func (h *contractHost) Transfer(to account.Address, amount uint64) error {
	toState, err := h.node.stateOf(to)
	if err != nil {
		return xerrors.Errorf("transfer recipient: %w", err)
	}
	if h.state.Balance < amount {
		return xerrors.Errorf("transfer exceeds balance: %d > %d", amount, h.state.Balance)
	}
	h.state.Balance -= amount
	toState.Balance += amount
	if err := h.node.world.Put(h.addr.Hex(), h.state); err != nil {
		return xerrors.Errorf("cannot store contract state: %w", err)
	}
	if err := h.node.world.Put(to.Hex(), toState); err != nil {
		return xerrors.Errorf("cannot store recipient state: %w", err)
	}
	return nil
}
