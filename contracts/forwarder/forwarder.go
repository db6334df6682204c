// Package forwarder relays opaque calls to arbitrary targets on behalf of an
// owner or a single designated caller.
package forwarder

import (
	"fmt"
	"math/big"
	"relay-lab/contract"
	"relay-lab/contracts"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
)

// Options configure the forwarder code registered in a ledger.
type Options struct {
	// ForwardValue relays the value attached to forwardCall to the target.
	// When false, forwardCall rejects value with ErrNonPayable.
	ForwardValue bool
}

// Forwarder is the contract code. All state lives in the host storage.
type Forwarder struct {
	opts       Options
	gate       AccessGate
	dispatcher *contracts.Dispatcher
}

func New(opts Options) *Forwarder {
	f := &Forwarder{opts: opts, gate: NewAccessGate()}
	f.dispatcher = contracts.NewDispatcher(ABI).
		Handle("owner", f.owner).
		Handle("caller", f.caller).
		Handle("setCaller", f.setCaller).
		Handle("forwardCall", f.forwardCall)
	return f
}

func (f *Forwarder) Construct(host contract.Host, args []byte) error {
	values, err := f.dispatcher.Constructor(host, args)
	if err != nil {
		return err
	}
	return f.gate.init(host, values[0].(common.Address), values[1].(common.Address))
}

func (f *Forwarder) Invoke(host contract.Host, input []byte) ([]byte, error) {
	return f.dispatcher.Dispatch(host, input)
}

func (f *Forwarder) owner(host contract.Host, _ []interface{}) ([]interface{}, error) {
	return []interface{}{f.gate.Owner(host)}, nil
}

func (f *Forwarder) caller(host contract.Host, _ []interface{}) ([]interface{}, error) {
	return []interface{}{f.gate.Caller(host)}, nil
}

func (f *Forwarder) setCaller(host contract.Host, args []interface{}) ([]interface{}, error) {
	return nil, f.gate.SetCaller(host, args[0].(common.Address))
}

// forwardCall relays the payload untouched. The target's result is returned
// as is and its failure fails the relay, keeping the original revert.
func (f *Forwarder) forwardCall(host contract.Host, args []interface{}) ([]interface{}, error) {
	target := args[0].(common.Address)
	payload := args[1].([]byte)

	if err := f.gate.AuthorizeForward(host, host.Sender()); err != nil {
		return nil, err
	}
	value := new(big.Int)
	if attached := host.Value(); attached.Sign() != 0 {
		if !f.opts.ForwardValue {
			return nil, fmt.Errorf("%w: forwardCall", errors.ErrNonPayable)
		}
		value = attached
	}
	result, err := host.Call(target, value, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrRelayFailure, err)
	}
	return []interface{}{result}, nil
}
