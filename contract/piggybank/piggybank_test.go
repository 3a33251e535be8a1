package piggybank

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/contract"
	"go.dedis.ch/piggybank/contract/parser"
)

type transferRecord struct {
	to     account.Address
	amount uint64
}

// testHost records transfer instructions instead of settling them.
type testHost struct {
	storage     storage.KV
	balance     uint64
	transfers   []transferRecord
	transferErr error
}

func newTestHost(balance uint64) *testHost {
	return &testHost{storage: storage.CreateSimpleKV(), balance: balance}
}

func (h *testHost) Storage() storage.KV {
	return h.storage
}

func (h *testHost) SelfBalance() uint64 {
	return h.balance
}

func (h *testHost) Transfer(to account.Address, amount uint64) error {
	if h.transferErr != nil {
		return h.transferErr
	}
	h.balance -= amount
	h.transfers = append(h.transfers, transferRecord{to: to, amount: amount})
	return nil
}

func addr(b byte) account.Address {
	var a account.Address
	a[0] = b
	return a
}

func ownerCtx(owner account.Address) contract.CallContext {
	return contract.CallContext{Sender: owner, Owner: owner}
}

func TestInit(t *testing.T) {
	host := newTestHost(0)

	require.NoError(t, Init(host))

	state, err := CurrentState(host)
	require.NoError(t, err)
	require.Equal(t, Intact, state)
}

func TestCurrentStateUninitialized(t *testing.T) {
	host := newTestHost(0)

	_, err := CurrentState(host)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestInsertIntact(t *testing.T) {
	host := newTestHost(0)
	require.NoError(t, Init(host))

	ctx := contract.CallContext{Sender: addr(1), Owner: addr(0), Amount: 100}
	require.NoError(t, Insert(ctx, host))

	// the entry point itself must not touch state or balance
	state, err := CurrentState(host)
	require.NoError(t, err)
	require.Equal(t, Intact, state)
	require.Equal(t, uint64(0), host.SelfBalance())
}

func TestInsertSmashed(t *testing.T) {
	owner := addr(0)
	host := newTestHost(0)
	require.NoError(t, Init(host))
	require.NoError(t, Smash(ownerCtx(owner), host))

	ctx := contract.CallContext{Sender: addr(1), Owner: owner, Amount: 100}
	require.ErrorIs(t, Insert(ctx, host), ErrDepositRejected)
}

func TestSmashByOwner(t *testing.T) {
	owner := addr(0)
	host := newTestHost(100)
	require.NoError(t, Init(host))

	require.NoError(t, Smash(ownerCtx(owner), host))

	state, err := CurrentState(host)
	require.NoError(t, err)
	require.Equal(t, Smashed, state)
	require.Equal(t, []transferRecord{{to: owner, amount: 100}}, host.transfers)
	require.Equal(t, uint64(0), host.SelfBalance())
}

func TestSmashNotOwner(t *testing.T) {
	owner := addr(0)
	host := newTestHost(100)
	require.NoError(t, Init(host))

	ctx := contract.CallContext{Sender: addr(1), Owner: owner}
	require.ErrorIs(t, Smash(ctx, host), ErrNotOwner)

	// untouched: still intact, nothing transferred
	state, err := CurrentState(host)
	require.NoError(t, err)
	require.Equal(t, Intact, state)
	require.Empty(t, host.transfers)
}

func TestSmashNotOwnerAfterSmash(t *testing.T) {
	// the ownership check fires first, whatever the state
	owner := addr(0)
	host := newTestHost(100)
	require.NoError(t, Init(host))
	require.NoError(t, Smash(ownerCtx(owner), host))

	ctx := contract.CallContext{Sender: addr(1), Owner: owner}
	require.ErrorIs(t, Smash(ctx, host), ErrNotOwner)
}

func TestSmashTwice(t *testing.T) {
	owner := addr(0)
	host := newTestHost(100)
	require.NoError(t, Init(host))

	require.NoError(t, Smash(ownerCtx(owner), host))
	require.ErrorIs(t, Smash(ownerCtx(owner), host), ErrAlreadySmashed)
	require.Len(t, host.transfers, 1)
}

func TestSmashTransferFails(t *testing.T) {
	owner := addr(0)
	host := newTestHost(100)
	host.transferErr = errors.New("settlement refused")
	require.NoError(t, Init(host))

	err := Smash(ownerCtx(owner), host)
	require.ErrorIs(t, err, ErrTransfer)

	// the spent flag is committed before the payout: a failed transfer
	// leaves the bank smashed with the funds stuck
	state, stateErr := CurrentState(host)
	require.NoError(t, stateErr)
	require.Equal(t, Smashed, state)
	require.Equal(t, uint64(100), host.SelfBalance())
}

func TestView(t *testing.T) {
	owner := addr(0)
	host := newTestHost(42)
	require.NoError(t, Init(host))

	state, balance, err := View(host)
	require.NoError(t, err)
	require.Equal(t, Intact, state)
	require.Equal(t, uint64(42), balance)

	require.NoError(t, Smash(ownerCtx(owner), host))

	state, balance, err = View(host)
	require.NoError(t, err)
	require.Equal(t, Smashed, state)
	require.Equal(t, uint64(0), balance)
}

func TestPayableEntries(t *testing.T) {
	pb := New()
	require.True(t, pb.Payable("insert"))
	require.False(t, pb.Payable("smash"))
	require.False(t, pb.Payable("view"))
}

func TestReceiveDispatch(t *testing.T) {
	owner := addr(0)
	host := newTestHost(7)
	pb := New()
	require.NoError(t, pb.Init(host))

	call, err := parser.Parse("insert(7)")
	require.NoError(t, err)
	require.NoError(t, pb.Receive(contract.CallContext{Sender: addr(1), Owner: owner, Amount: 7}, host, call))

	call, err = parser.Parse("open_lid()")
	require.NoError(t, err)
	require.Error(t, pb.Receive(ownerCtx(owner), host, call))

	call, err = parser.Parse("smash()")
	require.NoError(t, err)
	require.NoError(t, pb.Receive(ownerCtx(owner), host, call))

	state, balance, err := pb.View(host)
	require.NoError(t, err)
	require.Equal(t, string(Smashed), state)
	require.Equal(t, uint64(0), balance)
}
