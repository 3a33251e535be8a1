package main

import (
	"bufio"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"go.dedis.ch/piggybank/blockchain"
	"go.dedis.ch/piggybank/blockchain/storage"
	"go.dedis.ch/piggybank/blockchain/wallet"
	"go.dedis.ch/piggybank/contract/parser"
	"go.dedis.ch/piggybank/contract/piggybank"
)

func main() {
	app := &cli.App{
		Name:  "piggybank",
		Usage: "run a piggy bank contract in a local sandbox",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "bolt db file keeping the sandbox state across runs",
			},
			&cli.Uint64Flag{
				Name:  "balance",
				Value: 1000,
				Usage: "genesis balance of owner and guest accounts",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	var store *storage.BoltStore
	if dbFile := c.String("db"); dbFile != "" {
		var err error
		if store, err = storage.OpenBoltStore(dbFile); err != nil {
			return err
		}
		defer store.Close()
	}

	// the owner key must outlive the process when a db is in play:
	// a restored deployment still belongs to the previous owner address
	ownerKey, err := loadKey(store, "owner")
	if err != nil {
		return err
	}
	sandbox, err := blockchain.NewSandbox(blockchain.SandboxConf{
		Name:         "cli",
		OwnerKey:     ownerKey,
		OwnerBalance: c.Uint64("balance"),
		KVFactory:    storage.CreateSimpleKV,
		Code:         piggybank.New(),
		Store:        store,
	})
	if err != nil {
		return err
	}

	guestKey, err := loadKey(store, "guest")
	if err != nil {
		return err
	}
	guest := wallet.NewWallet(wallet.Conf{Name: "cli/guest", PrivateKey: guestKey, Node: sandbox.Node})
	if _, err := sandbox.BalanceOf(guest.Address()); err != nil {
		if err := sandbox.CreateAccount(guest.Address(), c.Uint64("balance")); err != nil {
			return err
		}
	}

	fmt.Printf("piggy bank deployed: id=%s, addr=%s\n", sandbox.InstanceID(), sandbox.ContractAddr())
	fmt.Println(`commands: insert(N), smash(), view(), balance(), receipts, exit`)
	fmt.Println(`prefix a call with "guest" to send it from the guest wallet`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		sender := sandbox.Owner
		if rest := strings.TrimPrefix(line, "guest "); rest != line {
			sender = guest
			line = strings.TrimSpace(rest)
		}

		switch line {
		case "exit", "quit":
			return nil
		case "receipts":
			for _, r := range sandbox.Receipts() {
				fmt.Printf("%+v\n", r)
			}
			continue
		}

		if err := dispatch(sender, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func loadKey(store *storage.BoltStore, name string) (*ecdsa.PrivateKey, error) {
	if store == nil {
		return crypto.GenerateKey()
	}
	return wallet.LoadOrCreateKey(store, name)
}

func dispatch(sender *wallet.Wallet, line string) error {
	call, err := parser.Parse(line)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", line, err)
	}

	switch call.Name {
	case "insert":
		amount, err := call.Amount(0)
		if err != nil {
			return err
		}
		if _, err := sender.Deposit(amount); err != nil {
			return err
		}
		fmt.Printf("deposited %d\n", amount)
	case "smash":
		if _, err := sender.Smash(); err != nil {
			return err
		}
		fmt.Println("smashed, balance paid out to owner")
	case "view":
		state, balance, err := sender.View()
		if err != nil {
			return err
		}
		fmt.Printf("state=%s balance=%d\n", state, balance)
	case "balance":
		balance, err := sender.Balance()
		if err != nil {
			return err
		}
		fmt.Printf("balance=%d\n", balance)
	default:
		return fmt.Errorf("unsupported action %q", call.Name)
	}
	return nil
}
