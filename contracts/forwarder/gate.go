package forwarder

import (
	"relay-lab/contract"
	"relay-lab/contracts"
	"relay-lab/contracts/ownable"
	"relay-lab/domain"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ownerSlot  = contracts.Slot(0)
	callerSlot = contracts.Slot(1)
)

// AccessGate guards the forwarder. The owner check is delegated to the
// Ownable capability; the gate itself only owns the caller slot.
type AccessGate struct {
	owner ownable.Ownable
}

func NewAccessGate() AccessGate {
	return AccessGate{owner: ownable.New(ownerSlot)}
}

func (g AccessGate) init(host contract.Host, owner, caller common.Address) error {
	if err := g.owner.Init(host, owner); err != nil {
		return err
	}
	return host.SetState(callerSlot, contracts.AddressToWord(caller))
}

func (g AccessGate) Owner(host contract.Host) common.Address {
	return g.owner.Owner(host)
}

func (g AccessGate) Caller(host contract.Host) common.Address {
	return contracts.WordToAddress(host.GetState(callerSlot))
}

// SetCaller replaces the caller and emits CallerSet, even when the value does
// not change. Only the owner may call it.
func (g AccessGate) SetCaller(host contract.Host, newCaller common.Address) error {
	if err := g.owner.OnlyOwner(host); err != nil {
		return err
	}
	oldCaller := g.Caller(host)
	if err := host.SetState(callerSlot, contracts.AddressToWord(newCaller)); err != nil {
		return err
	}
	return contracts.Emit(host, ABI, "CallerSet", oldCaller, newCaller)
}

// AuthorizeForward accepts the owner and the current caller. A zero caller
// authorises nobody.
func (g AccessGate) AuthorizeForward(host contract.Host, invoker common.Address) error {
	if invoker == g.Owner(host) {
		return nil
	}
	if caller := g.Caller(host); caller != domain.ZeroAddress && invoker == caller {
		return nil
	}
	return errors.ErrUnauthorizedSender
}
