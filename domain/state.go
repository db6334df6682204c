package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type SlotKey struct {
	Address common.Address
	Slot    common.Hash
}

// ChangeSet is everything a committed block writes to the backend.
type ChangeSet struct {
	Head     uint64
	Slots    map[SlotKey]common.Hash
	Balances map[common.Address]*big.Int
	Nonces   map[common.Address]uint64
	Codes    map[common.Address]string
}

func NewChangeSet(head uint64) ChangeSet {
	return ChangeSet{
		Head:     head,
		Slots:    make(map[SlotKey]common.Hash),
		Balances: make(map[common.Address]*big.Int),
		Nonces:   make(map[common.Address]uint64),
		Codes:    make(map[common.Address]string),
	}
}
