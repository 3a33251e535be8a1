package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"go.dedis.ch/piggybank/blockchain/account"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/wallet"
	z "go.dedis.ch/piggybank/internal/testing"
)

func TestWalletAddressDerivation(t *testing.T) {
	sandbox := z.NewTestSandbox(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := wallet.NewWallet(wallet.Conf{Name: "w", PrivateKey: key, Node: sandbox.Node})

	expected := account.NewAddressFromPublicKey(crypto.FromECDSAPub(&key.PublicKey))
	require.Equal(t, expected, w.Address())
}

func TestWalletTracksNonceAcrossSubmissions(t *testing.T) {
	sandbox := z.NewTestSandbox(t)
	guest := z.NewTestWallet(t, sandbox.Node, "guest", 500)

	for i := 0; i < 3; i++ {
		receipt, err := guest.Deposit(10)
		require.NoError(t, err)
		require.True(t, receipt.OK)
	}

	nonce, err := sandbox.NonceOf(guest.Address())
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)

	_, balance, err := sandbox.View()
	require.NoError(t, err)
	require.Equal(t, uint64(30), balance)
}

func TestLoadOrCreateKeyStable(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "keys.db")

	store, err := storage.OpenBoltStore(dbFile)
	require.NoError(t, err)
	first, err := wallet.LoadOrCreateKey(store, "owner")
	require.NoError(t, err)
	other, err := wallet.LoadOrCreateKey(store, "guest")
	require.NoError(t, err)
	require.NotEqual(t, crypto.FromECDSA(first), crypto.FromECDSA(other))
	require.NoError(t, store.Close())

	store, err = storage.OpenBoltStore(dbFile)
	require.NoError(t, err)
	defer store.Close()
	again, err := wallet.LoadOrCreateKey(store, "owner")
	require.NoError(t, err)
	require.Equal(t, crypto.FromECDSA(first), crypto.FromECDSA(again))
}

func TestRestoredOwnerKeepsControl(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "sandbox.db")

	store, err := storage.OpenBoltStore(dbFile)
	require.NoError(t, err)
	ownerKey, err := wallet.LoadOrCreateKey(store, "owner")
	require.NoError(t, err)
	sandbox := z.NewTestSandbox(t, z.WithOwnerKey(ownerKey), z.WithOwnerBalance(1000), z.WithStore(store))

	_, err = sandbox.Owner.Deposit(200)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// a new process: the owner key comes back from the store, so the
	// restored deployment still answers to the owner wallet
	store, err = storage.OpenBoltStore(dbFile)
	require.NoError(t, err)
	defer store.Close()
	restoredKey, err := wallet.LoadOrCreateKey(store, "owner")
	require.NoError(t, err)
	restarted := z.NewTestSandbox(t, z.WithOwnerKey(restoredKey), z.WithStore(store))

	require.Equal(t, restarted.Owner.Address(), restarted.Node.Owner())

	receipt, err := restarted.Owner.Smash()
	require.NoError(t, err)
	require.True(t, receipt.OK)

	ownerBalance, err := restarted.Owner.Balance()
	require.NoError(t, err)
	require.Equal(t, uint64(1000), ownerBalance)
}

func TestWalletCallExpression(t *testing.T) {
	sandbox := z.NewTestSandbox(t)

	receipt, err := sandbox.Owner.Call("smash()", 0)
	require.NoError(t, err)
	require.True(t, receipt.OK)

	state, _, err := sandbox.Owner.View()
	require.NoError(t, err)
	require.Equal(t, "smashed", state)
}
