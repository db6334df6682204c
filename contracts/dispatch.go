// Package contracts holds the plumbing shared by the native contracts:
// ABI parsing, selector dispatch and storage word helpers.
package contracts

import (
	"fmt"
	"math/big"
	"relay-lab/contract"
	"relay-lab/errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Handler runs one ABI method with already decoded arguments and returns the
// values to encode as outputs.
type Handler func(host contract.Host, args []interface{}) ([]interface{}, error)

// Dispatcher routes calldata to handlers by 4-byte selector.
type Dispatcher struct {
	abi      abi.ABI
	handlers map[string]Handler
}

// MustParseABI parses a JSON ABI definition known at compile time.
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("read abi error: %v", err))
	}
	return parsed
}

func NewDispatcher(definition abi.ABI) *Dispatcher {
	return &Dispatcher{abi: definition, handlers: make(map[string]Handler)}
}

// Handle binds a handler to a method of the ABI. Binding an unknown method is
// a programming error and panics.
func (d *Dispatcher) Handle(method string, handler Handler) *Dispatcher {
	if _, ok := d.abi.Methods[method]; !ok {
		panic(fmt.Sprintf("method %q not in abi", method))
	}
	d.handlers[method] = handler
	return d
}

// Dispatch decodes input, enforces the payable flag and encodes the handler
// outputs.
func (d *Dispatcher) Dispatch(host contract.Host, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, errors.ErrUnknownMethod
	}
	method, err := d.abi.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", errors.ErrUnknownMethod, input[:4])
	}
	handler, ok := d.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownMethod, method.Name)
	}
	if !method.IsPayable() && host.Value().Sign() != 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrNonPayable, method.Name)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidInput, method.Name, err)
	}
	outputs, err := handler(host, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

// Constructor decodes constructor arguments and enforces its payable flag.
func (d *Dispatcher) Constructor(host contract.Host, args []byte) ([]interface{}, error) {
	if !d.abi.Constructor.IsPayable() && host.Value().Sign() != 0 {
		return nil, fmt.Errorf("%w: constructor", errors.ErrNonPayable)
	}
	values, err := d.abi.Constructor.Inputs.Unpack(args)
	if err != nil {
		return nil, fmt.Errorf("%w: constructor: %v", errors.ErrInvalidInput, err)
	}
	return values, nil
}

// Emit encodes an event of the ABI and emits it through host.
// values follow the declaration order of the event inputs.
func Emit(host contract.Host, definition abi.ABI, name string, values ...interface{}) error {
	evt, ok := definition.Events[name]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownEvent, name)
	}
	topics := []common.Hash{evt.ID}
	var data []interface{}
	for i, input := range evt.Inputs {
		if !input.Indexed {
			data = append(data, values[i])
			continue
		}
		addr, ok := values[i].(common.Address)
		if !ok {
			return fmt.Errorf("indexed argument %s of %s must be an address", input.Name, name)
		}
		topics = append(topics, AddressToWord(addr))
	}
	packed, err := evt.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return err
	}
	return host.Emit(topics, packed)
}

// Slot returns the storage slot of a fixed state variable.
func Slot(index uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(index))
}

// MappingSlot returns the slot of key in a mapping stored at base, with the
// Solidity layout keccak256(pad32(key) . base).
func MappingSlot(key common.Address, base common.Hash) common.Hash {
	return crypto.Keccak256Hash(common.LeftPadBytes(key.Bytes(), 32), base.Bytes())
}

func AddressToWord(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func WordToAddress(word common.Hash) common.Address {
	return common.BytesToAddress(word.Bytes())
}

func BoolToWord(value bool) common.Hash {
	if value {
		return common.BigToHash(big.NewInt(1))
	}
	return common.Hash{}
}

func WordToBool(word common.Hash) bool {
	return word != (common.Hash{})
}
