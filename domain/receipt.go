package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt is the outcome of one transaction. Every transaction is mined in
// its own block.
type Receipt struct {
	TxHash          common.Hash
	BlockNumber     uint64
	From            common.Address
	To              common.Address
	ContractAddress common.Address
	Status          uint64
	ReturnData      []byte
	RevertReason    string
	Logs            []*types.Log
}

func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == types.ReceiptStatusSuccessful
}
