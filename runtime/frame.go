package runtime

import (
	"context"
	"math/big"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// frame is the contract.Host handed to contract code for one invocation.
type frame struct {
	ctx    context.Context
	ledger *Ledger
	self   common.Address
	sender common.Address
	value  *big.Int
	static bool
	depth  int
}

func (f *frame) Context() context.Context { return f.ctx }
func (f *frame) Self() common.Address     { return f.self }
func (f *frame) Sender() common.Address   { return f.sender }
func (f *frame) Value() *big.Int          { return new(big.Int).Set(f.value) }

func (f *frame) GetState(slot common.Hash) common.Hash {
	return f.ledger.state.GetState(f.self, slot)
}

func (f *frame) SetState(slot, value common.Hash) error {
	if f.static {
		return errors.ErrWriteProtection
	}
	f.ledger.state.SetState(f.self, slot, value)
	return nil
}

func (f *frame) Emit(topics []common.Hash, data []byte) error {
	if f.static {
		return errors.ErrWriteProtection
	}
	f.ledger.state.AddLog(&types.Log{
		Address: f.self,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

// Call runs a nested invocation with this frame's contract as sender.
func (f *frame) Call(to common.Address, value *big.Int, input []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	return f.ledger.call(f.ctx, f.self, to, value, input, f.static, f.depth+1)
}
