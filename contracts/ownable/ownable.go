// Package ownable is the owner capability composed into contracts that need an
// owner-only guard.
package ownable

import (
	"relay-lab/contract"
	"relay-lab/contracts"
	"relay-lab/domain"
	"relay-lab/domain/event"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const abiJSON = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
		],
		"name": "OwnershipTransferred",
		"type": "event"
	}
]`

// ABI only declares the event; contracts embedding the capability declare
// their own owner methods.
var ABI = contracts.MustParseABI(abiJSON)

// Ownable stores the owner in a single storage slot of the host contract.
type Ownable struct {
	slot common.Hash
}

func New(slot common.Hash) Ownable {
	return Ownable{slot: slot}
}

func (o Ownable) Owner(host contract.Host) common.Address {
	return contracts.WordToAddress(host.GetState(o.slot))
}

// Init sets the first owner. It is meant for constructors only.
func (o Ownable) Init(host contract.Host, owner common.Address) error {
	return o.set(host, owner)
}

// OnlyOwner fails with ErrUnauthorized unless the frame sender is the owner.
func (o Ownable) OnlyOwner(host contract.Host) error {
	if host.Sender() != o.Owner(host) {
		return errors.ErrUnauthorized
	}
	return nil
}

func (o Ownable) TransferOwnership(host contract.Host, newOwner common.Address) error {
	if err := o.OnlyOwner(host); err != nil {
		return err
	}
	if newOwner == domain.ZeroAddress {
		return errors.ErrZeroOwner
	}
	return o.set(host, newOwner)
}

func (o Ownable) set(host contract.Host, owner common.Address) error {
	previous := o.Owner(host)
	if err := host.SetState(o.slot, contracts.AddressToWord(owner)); err != nil {
		return err
	}
	return contracts.Emit(host, ABI, "OwnershipTransferred", previous, owner)
}

// ParseOwnershipTransferred decodes an OwnershipTransferred log.
func ParseOwnershipTransferred(log *types.Log) (event.OwnershipTransferred, error) {
	evt := ABI.Events["OwnershipTransferred"]
	if len(log.Topics) != 3 || log.Topics[0] != evt.ID {
		return event.OwnershipTransferred{}, errors.ErrUnknownEvent
	}
	return event.OwnershipTransferred{
		Contract:      log.Address,
		PreviousOwner: contracts.WordToAddress(log.Topics[1]),
		NewOwner:      contracts.WordToAddress(log.Topics[2]),
		Raw:           log,
	}, nil
}

func DecodeEvent(log *types.Log) (event.DomainEvent, bool) {
	evt, err := ParseOwnershipTransferred(log)
	if err != nil {
		return nil, false
	}
	return evt, true
}
