package committee

import (
	"context"
	"log/slog"
	"relay-lab/contracts/ownable"
	"relay-lab/domain"
	"relay-lab/errors"
	"relay-lab/repositories"
	"relay-lab/runtime"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	owner  = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	carole = common.HexToAddress("0x0000000000000000000000000000000000000a04")
)

func deploy(t *testing.T, members ...common.Address) (*Client, *domain.Receipt) {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	ledger, err := runtime.NewLedger(log, repositories.NewStateRepository(db, log), 0)
	req.NoError(err)
	ledger.Register(Kind, New())

	client, receipt, err := Deploy(context.Background(), ledger, domain.TxOpts{From: owner}, owner, members)
	req.NoError(err)
	return client, receipt
}

func Test_Deploy_Registers_Initial_Members(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	client, receipt := deploy(t, alice, bob)

	for _, member := range []common.Address{alice, bob} {
		isMember, err := client.Members(ctx, member)
		req.NoError(err)
		req.True(isMember)
	}
	isMember, err := client.Members(ctx, carole)
	req.NoError(err)
	req.False(isMember)

	// Then the first owner is announced from the zero address
	req.Len(receipt.Logs, 1)
	evt, err := ownable.ParseOwnershipTransferred(receipt.Logs[0])
	req.NoError(err)
	req.Equal(domain.ZeroAddress, evt.PreviousOwner)
	req.Equal(owner, evt.NewOwner)
}

func Test_SetMembers_By_Owner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := deploy(t, alice)

	_, err := client.SetMembers(ctx, domain.TxOpts{From: owner}, []common.Address{alice, carole}, []bool{false, true})
	req.NoError(err)

	isMember, err := client.Members(ctx, alice)
	req.NoError(err)
	req.False(isMember)
	isMember, err = client.Members(ctx, carole)
	req.NoError(err)
	req.True(isMember)
}

func Test_SetMembers_By_Non_Owner_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := deploy(t)

	receipt, err := client.SetMembers(ctx, domain.TxOpts{From: alice}, []common.Address{alice}, []bool{true})

	req.ErrorIs(err, errors.ErrUnauthorized)
	req.False(receipt.Succeeded())
	isMember, err := client.Members(ctx, alice)
	req.NoError(err)
	req.False(isMember)
}

func Test_SetMembers_Length_Mismatch_Reverts_Everything(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := deploy(t)

	receipt, err := client.SetMembers(ctx, domain.TxOpts{From: owner}, []common.Address{alice, bob}, []bool{true})

	req.ErrorIs(err, errors.ErrLengthMismatch)
	req.Equal("Committee#setMembers: LENGTH_MISMATCH", receipt.RevertReason)
	isMember, err := client.Members(ctx, alice)
	req.NoError(err)
	req.False(isMember)
}

func Test_TransferOwnership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := deploy(t)

	// Given the ownership moved to alice
	receipt, err := client.TransferOwnership(ctx, domain.TxOpts{From: owner}, alice)
	req.NoError(err)
	req.Len(receipt.Logs, 1)

	actual, err := client.Owner(ctx)
	req.NoError(err)
	req.Equal(alice, actual)

	// Then the former owner lost its rights
	_, err = client.SetMembers(ctx, domain.TxOpts{From: owner}, []common.Address{bob}, []bool{true})
	req.ErrorIs(err, errors.ErrUnauthorized)
	_, err = client.SetMembers(ctx, domain.TxOpts{From: alice}, []common.Address{bob}, []bool{true})
	req.NoError(err)
}

func Test_TransferOwnership_To_Zero_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := deploy(t)

	_, err := client.TransferOwnership(ctx, domain.TxOpts{From: owner}, domain.ZeroAddress)

	req.ErrorIs(err, errors.ErrZeroOwner)
	actual, err := client.Owner(ctx)
	req.NoError(err)
	req.Equal(owner, actual)
}
