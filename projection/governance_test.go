package projection

import (
	"context"
	"relay-lab/contracts"
	"relay-lab/contracts/forwarder"
	"relay-lab/contracts/ownable"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	forwarderAddress = common.HexToAddress("0x0000000000000000000000000000000000002001")
	owner            = common.HexToAddress("0x0000000000000000000000000000000000002002")
	caller           = common.HexToAddress("0x0000000000000000000000000000000000002003")
)

func callerSetLog(t *testing.T, block uint64, old, next common.Address) *types.Log {
	evt := forwarder.ABI.Events["CallerSet"]
	data, err := evt.Inputs.Pack(old, next)
	require.NoError(t, err)
	return &types.Log{Address: forwarderAddress, Topics: []common.Hash{evt.ID}, Data: data, BlockNumber: block}
}

func ownershipLog(block uint64, previous, next common.Address) *types.Log {
	return &types.Log{
		Address: forwarderAddress,
		Topics: []common.Hash{
			ownable.ABI.Events["OwnershipTransferred"].ID,
			contracts.AddressToWord(previous),
			contracts.AddressToWord(next),
		},
		BlockNumber: block,
	}
}

func TestGovernance_Tracks_Owner_And_Caller(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	governance := NewGovernance(forwarder.DecodeEvent)

	req.NoError(governance.Consume(ctx, ownershipLog(1, common.Address{}, owner)))
	req.NoError(governance.Consume(ctx, callerSetLog(t, 2, common.Address{}, caller)))

	actualOwner, ok := governance.Owner(forwarderAddress)
	req.True(ok)
	req.Equal(owner, actualOwner)
	actualCaller, ok := governance.Caller(forwarderAddress)
	req.True(ok)
	req.Equal(caller, actualCaller)
	req.Len(governance.History(), 2)
}

func TestGovernance_Ignores_Replayed_Logs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	governance := NewGovernance(forwarder.DecodeEvent)

	req.NoError(governance.Consume(ctx, callerSetLog(t, 3, common.Address{}, caller)))
	// an older log arriving late is dropped
	req.NoError(governance.Consume(ctx, callerSetLog(t, 2, common.Address{}, owner)))
	req.NoError(governance.Consume(ctx, callerSetLog(t, 3, common.Address{}, owner)))

	actual, ok := governance.Caller(forwarderAddress)
	req.True(ok)
	req.Equal(caller, actual)
	req.Len(governance.History(), 1)
}

func TestGovernance_Unknown_Logs_Are_Skipped(t *testing.T) {
	req := require.New(t)
	governance := NewGovernance(forwarder.DecodeEvent)

	req.NoError(governance.Consume(context.Background(), &types.Log{BlockNumber: 1}))

	_, ok := governance.Caller(forwarderAddress)
	req.False(ok)
	req.Empty(governance.History())
}
