package event

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DomainEvent is a decoded contract log.
type DomainEvent interface {
	Emitter() common.Address
	Name() string
}

// Decoder turns a raw log into a DomainEvent. It reports false when the log
// belongs to another event.
type Decoder func(log *types.Log) (DomainEvent, bool)

type CallerSet struct {
	Contract  common.Address
	OldCaller common.Address
	NewCaller common.Address
	Raw       *types.Log
}

func (c CallerSet) Emitter() common.Address { return c.Contract }
func (c CallerSet) Name() string            { return "CallerSet" }

type OwnershipTransferred struct {
	Contract      common.Address
	PreviousOwner common.Address
	NewOwner      common.Address
	Raw           *types.Log
}

func (o OwnershipTransferred) Emitter() common.Address { return o.Contract }
func (o OwnershipTransferred) Name() string            { return "OwnershipTransferred" }

// Decode runs the decoders in order and returns the first match.
func Decode(log *types.Log, decoders ...Decoder) (DomainEvent, bool) {
	for _, decode := range decoders {
		if evt, ok := decode(log); ok {
			return evt, true
		}
	}
	return nil, false
}
