// Package piggybank implements the piggy bank contract: anyone can drop
// coins in while it is intact, only the owner can smash it, and smashing
// drains the full balance to the owner once and for all.
package piggybank

import (
	"errors"
	"fmt"

	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/contract/parser"
)

// CodeID tags the contract account's code hash.
const CodeID = "piggybank/v1"

// stateKey is the storage-root slot holding the lifecycle tag.
const stateKey = "piggybank/state"

// State is the two-valued lifecycle tag. Intact is initial, Smashed is
// terminal; there is no way back.
type State string

const (
	Intact  State = "intact"
	Smashed State = "smashed"
)

var (
	// ErrNotOwner rejects a smash signed by anyone but the owner.
	ErrNotOwner = errors.New("smash rejected: sender is not the owner")
	// ErrAlreadySmashed rejects a second smash.
	ErrAlreadySmashed = errors.New("smash rejected: piggy bank already smashed")
	// ErrDepositRejected rejects deposits once the bank is smashed.
	ErrDepositRejected = errors.New("deposit rejected: piggy bank already smashed")
	// ErrTransfer reports that the host failed to settle the payout.
	ErrTransfer = errors.New("payout transfer failed")
)

// Init writes the initial Intact tag into the contract's storage root.
func Init(host contract.MutableHost) error {
	return host.Storage().Put(stateKey, string(Intact))
}

// CurrentState reads the lifecycle tag back out of storage.
func CurrentState(host contract.Host) (State, error) {
	value, err := host.Storage().Get(stateKey)
	if err != nil {
		return "", fmt.Errorf("piggy bank not initialized: %w", err)
	}
	tag, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("piggy bank state is corrupted: %v", value)
	}
	switch state := State(tag); state {
	case Intact, Smashed:
		return state, nil
	default:
		return "", fmt.Errorf("piggy bank state is corrupted: %q", tag)
	}
}

// Insert accepts a deposit iff the bank is intact. The entry point itself
// mutates nothing: crediting the attached amount onto the contract balance
// is the host's side effect of an accepted payable call.
func Insert(ctx contract.CallContext, host contract.Host) error {
	state, err := CurrentState(host)
	if err != nil {
		return err
	}
	if state != Intact {
		return ErrDepositRejected
	}
	return nil
}

// Smash marks the bank spent and pays the full balance out to the owner.
// The Smashed tag is committed before the payout is attempted, so a failed
// transfer leaves the bank smashed with the funds stuck on the contract
// account.
func Smash(ctx contract.CallContext, host contract.MutableHost) error {
	if ctx.Sender != ctx.Owner {
		return ErrNotOwner
	}
	state, err := CurrentState(host)
	if err != nil {
		return err
	}
	if state != Intact {
		return ErrAlreadySmashed
	}

	if err := host.Storage().Put(stateKey, string(Smashed)); err != nil {
		return fmt.Errorf("cannot mark piggy bank smashed: %w", err)
	}

	balance := host.SelfBalance()
	if err := host.Transfer(ctx.Owner, balance); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return nil
}

// View reports the lifecycle tag and the current balance.
func View(host contract.Host) (State, uint64, error) {
	state, err := CurrentState(host)
	if err != nil {
		return "", 0, err
	}
	return state, host.SelfBalance(), nil
}

// PiggyBank adapts the entry points to the contract.SmartContract dispatch
// surface the sandbox node executes against.
type PiggyBank struct{}

func New() *PiggyBank {
	return &PiggyBank{}
}

func (pb *PiggyBank) CodeID() string {
	return CodeID
}

// Payable: only insert takes an attached amount.
func (pb *PiggyBank) Payable(entry string) bool {
	return entry == "insert"
}

func (pb *PiggyBank) Init(host contract.MutableHost) error {
	return Init(host)
}

func (pb *PiggyBank) Receive(ctx contract.CallContext, host contract.MutableHost, call parser.Call) error {
	switch call.Name {
	case "insert":
		return Insert(ctx, host)
	case "smash":
		return Smash(ctx, host)
	default:
		return fmt.Errorf("unknown entry point %q", call.Name)
	}
}

func (pb *PiggyBank) View(host contract.Host) (string, uint64, error) {
	state, balance, err := View(host)
	return string(state), balance, err
}
