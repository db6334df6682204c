package contracts

import (
	"math/big"
	"relay-lab/contract"
	"relay-lab/errors"
	"relay-lab/mocks"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testABI = `[
	{"inputs": [{"name": "x", "type": "uint256"}], "name": "double", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [], "name": "deposit", "outputs": [], "stateMutability": "payable", "type": "function"},
	{"inputs": [], "name": "unbound", "outputs": [], "stateMutability": "view", "type": "function"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "name": "who", "type": "address"},
		{"indexed": false, "name": "amount", "type": "uint256"}
	], "name": "Deposited", "type": "event"}
]`

var parsed = MustParseABI(testABI)

func newDispatcher() *Dispatcher {
	return NewDispatcher(parsed).
		Handle("double", func(_ contract.Host, args []interface{}) ([]interface{}, error) {
			return []interface{}{new(big.Int).Mul(args[0].(*big.Int), big.NewInt(2))}, nil
		}).
		Handle("deposit", func(_ contract.Host, _ []interface{}) ([]interface{}, error) {
			return nil, nil
		})
}

func Test_Dispatch_Routes_By_Selector(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().Value().Return(new(big.Int))

	input, err := parsed.Pack("double", big.NewInt(21))
	req.NoError(err)

	output, err := newDispatcher().Dispatch(host, input)

	req.NoError(err)
	values, err := parsed.Unpack("double", output)
	req.NoError(err)
	req.Equal(int64(42), values[0].(*big.Int).Int64())
}

func Test_Dispatch_Enforces_Payable_Flag(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().Value().Return(big.NewInt(1)).AnyTimes()
	dispatcher := newDispatcher()

	input, err := parsed.Pack("double", big.NewInt(1))
	req.NoError(err)
	_, err = dispatcher.Dispatch(host, input)
	req.ErrorIs(err, errors.ErrNonPayable)

	input, err = parsed.Pack("deposit")
	req.NoError(err)
	_, err = dispatcher.Dispatch(host, input)
	req.NoError(err)
}

func Test_Dispatch_Rejects_Bad_Input(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().Value().Return(new(big.Int)).AnyTimes()
	dispatcher := newDispatcher()

	_, err := dispatcher.Dispatch(host, []byte{0x01})
	req.ErrorIs(err, errors.ErrUnknownMethod)

	_, err = dispatcher.Dispatch(host, []byte{0xff, 0xff, 0xff, 0xff})
	req.ErrorIs(err, errors.ErrUnknownMethod)

	// a method of the abi without handler
	_, err = dispatcher.Dispatch(host, parsed.Methods["unbound"].ID)
	req.ErrorIs(err, errors.ErrUnknownMethod)

	// truncated arguments
	_, err = dispatcher.Dispatch(host, parsed.Methods["double"].ID)
	req.ErrorIs(err, errors.ErrInvalidInput)
}

func Test_Handle_Unknown_Method_Panics(t *testing.T) {
	require.Panics(t, func() {
		NewDispatcher(parsed).Handle("missing", nil)
	})
}

func Test_Emit_Splits_Indexed_Arguments(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	host := mocks.NewMockHost(ctrl)
	who := common.HexToAddress("0x0000000000000000000000000000000000000c01")

	host.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(topics []common.Hash, data []byte) error {
		req.Equal([]common.Hash{parsed.Events["Deposited"].ID, AddressToWord(who)}, topics)
		values, err := parsed.Events["Deposited"].Inputs.NonIndexed().Unpack(data)
		req.NoError(err)
		req.Equal(int64(7), values[0].(*big.Int).Int64())
		return nil
	})

	req.NoError(Emit(host, parsed, "Deposited", who, big.NewInt(7)))
	req.ErrorIs(Emit(host, parsed, "Missing"), errors.ErrUnknownEvent)
}

func Test_MappingSlot_Follows_Solidity_Layout(t *testing.T) {
	req := require.New(t)
	key := common.HexToAddress("0x0000000000000000000000000000000000000c02")

	expected := crypto.Keccak256Hash(append(common.LeftPadBytes(key.Bytes(), 32), common.LeftPadBytes([]byte{1}, 32)...))

	req.Equal(expected, MappingSlot(key, Slot(1)))
	req.NotEqual(MappingSlot(key, Slot(1)), MappingSlot(key, Slot(2)))
}

func Test_Word_Conversions(t *testing.T) {
	req := require.New(t)
	addr := common.HexToAddress("0x0000000000000000000000000000000000000c03")

	req.Equal(addr, WordToAddress(AddressToWord(addr)))
	req.True(WordToBool(BoolToWord(true)))
	req.False(WordToBool(BoolToWord(false)))
	req.Equal(common.Hash{}, BoolToWord(false))
}
