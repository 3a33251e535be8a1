package contract

import (
	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/contract/parser"
)

// CallContext carries the identities the host resolved for one invocation.
type CallContext struct {
	Sender account.Address // who signed the triggering transaction
	Owner  account.Address // who deployed the contract
	Amount uint64          // value attached to a payable call, 0 otherwise
}

// Host is the read-only view a contract gets of its own account.
type Host interface {
	// Storage is the contract account's storage root.
	Storage() storage.KV
	// SelfBalance is the contract account's current balance.
	SelfBalance() uint64
}

// MutableHost additionally lets the contract move its own funds. The
// transfer settles on the host ledger; the contract only instructs it.
type MutableHost interface {
	Host
	Transfer(to account.Address, amount uint64) error
}

// SmartContract is what the sandbox node executes transactions against.
type SmartContract interface {
	// CodeID identifies the contract code; stored as the account's code hash.
	CodeID() string

	// Payable reports whether an entry point accepts an attached amount.
	// The host rejects value attached to any other entry before dispatch.
	Payable(entry string) bool

	// Init writes the initial contract state. Run once at deployment.
	Init(host MutableHost) error

	// Receive dispatches a parsed entry-point call.
	Receive(ctx CallContext, host MutableHost, call parser.Call) error

	// View reports the observable contract state without mutating anything.
	View(host Host) (string, uint64, error)
}
