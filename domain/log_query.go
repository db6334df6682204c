package domain

import "github.com/ethereum/go-ethereum/common"

// LogQuery filters persisted logs. Nil fields match everything and a zero
// ToBlock means no upper bound.
type LogQuery struct {
	Address   *common.Address
	Topic     *common.Hash
	FromBlock uint64
	ToBlock   uint64
	Limit     *int
}
