// Package domain contains the core value types of the ledger:
// calls, receipts, state change sets and log queries.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the null identity. It is a valid caller value and disables
// forwarding by a designated caller.
var ZeroAddress = common.Address{}

// Call is a message sent to the ledger, either as a transaction or as a
// read-only query.
type Call struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// TxOpts carries the sender side of a transaction issued by a typed client.
type TxOpts struct {
	From  common.Address
	Value *big.Int
}

// CallOpts carries the sender side of a read-only query.
type CallOpts struct {
	From common.Address
}

func (o TxOpts) ValueOrZero() *big.Int {
	if o.Value == nil {
		return new(big.Int)
	}
	return o.Value
}
