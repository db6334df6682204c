package ownable

import (
	"relay-lab/contracts"
	"relay-lab/domain"
	"relay-lab/errors"
	"relay-lab/mocks"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	slot     = contracts.Slot(0)
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	newOwner = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

func Test_Init_Stores_Owner_And_Emits(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)

	var topics []common.Hash
	host.EXPECT().GetState(slot).Return(common.Hash{})
	host.EXPECT().SetState(slot, contracts.AddressToWord(owner)).Return(nil)
	host.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(t []common.Hash, data []byte) error {
		topics = t
		req.Empty(data)
		return nil
	})

	req.NoError(New(slot).Init(host, owner))

	evt, err := ParseOwnershipTransferred(&types.Log{Topics: topics})
	req.NoError(err)
	req.Equal(domain.ZeroAddress, evt.PreviousOwner)
	req.Equal(owner, evt.NewOwner)
}

func Test_OnlyOwner(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().GetState(slot).Return(contracts.AddressToWord(owner)).AnyTimes()

	host.EXPECT().Sender().Return(owner)
	req.NoError(New(slot).OnlyOwner(host))

	host.EXPECT().Sender().Return(newOwner)
	req.ErrorIs(New(slot).OnlyOwner(host), errors.ErrUnauthorized)
}

func Test_TransferOwnership_Checks_Before_Writing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().GetState(slot).Return(contracts.AddressToWord(owner)).AnyTimes()

	// Given a non-owner sender, nothing is written
	host.EXPECT().Sender().Return(newOwner)
	req.ErrorIs(New(slot).TransferOwnership(host, newOwner), errors.ErrUnauthorized)

	// Given the zero address, nothing is written either
	host.EXPECT().Sender().Return(owner)
	req.ErrorIs(New(slot).TransferOwnership(host, domain.ZeroAddress), errors.ErrZeroOwner)

	// Given a valid transfer, the slot is written and the event emitted
	host.EXPECT().Sender().Return(owner)
	host.EXPECT().SetState(slot, contracts.AddressToWord(newOwner)).Return(nil)
	host.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	req.NoError(New(slot).TransferOwnership(host, newOwner))
}

func Test_SetState_Failure_Skips_Event(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().GetState(slot).Return(common.Hash{})
	host.EXPECT().SetState(gomock.Any(), gomock.Any()).Return(errors.ErrWriteProtection)

	err := New(slot).Init(host, owner)

	req.ErrorIs(err, errors.ErrWriteProtection)
}

func Test_ParseOwnershipTransferred_Rejects_Other_Logs(t *testing.T) {
	req := require.New(t)

	_, err := ParseOwnershipTransferred(&types.Log{})
	req.ErrorIs(err, errors.ErrUnknownEvent)

	_, ok := DecodeEvent(&types.Log{Topics: []common.Hash{{0x01}, {}, {}}})
	req.False(ok)
}
