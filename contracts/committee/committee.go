// Package committee is a membership registry governed by its owner. It is the
// collaborator the forwarder is usually put in charge of.
package committee

import (
	"relay-lab/contract"
	"relay-lab/contracts"
	"relay-lab/contracts/ownable"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ownerSlot   = contracts.Slot(0)
	membersSlot = contracts.Slot(1)
)

type Committee struct {
	owner      ownable.Ownable
	dispatcher *contracts.Dispatcher
}

func New() *Committee {
	c := &Committee{owner: ownable.New(ownerSlot)}
	c.dispatcher = contracts.NewDispatcher(ABI).
		Handle("owner", c.getOwner).
		Handle("transferOwnership", c.transferOwnership).
		Handle("members", c.members).
		Handle("setMembers", c.setMembers)
	return c
}

func (c *Committee) Construct(host contract.Host, args []byte) error {
	values, err := c.dispatcher.Constructor(host, args)
	if err != nil {
		return err
	}
	if err := c.owner.Init(host, values[0].(common.Address)); err != nil {
		return err
	}
	for _, member := range values[1].([]common.Address) {
		if err := host.SetState(contracts.MappingSlot(member, membersSlot), contracts.BoolToWord(true)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Committee) Invoke(host contract.Host, input []byte) ([]byte, error) {
	return c.dispatcher.Dispatch(host, input)
}

func (c *Committee) getOwner(host contract.Host, _ []interface{}) ([]interface{}, error) {
	return []interface{}{c.owner.Owner(host)}, nil
}

func (c *Committee) transferOwnership(host contract.Host, args []interface{}) ([]interface{}, error) {
	return nil, c.owner.TransferOwnership(host, args[0].(common.Address))
}

func (c *Committee) members(host contract.Host, args []interface{}) ([]interface{}, error) {
	word := host.GetState(contracts.MappingSlot(args[0].(common.Address), membersSlot))
	return []interface{}{contracts.WordToBool(word)}, nil
}

func (c *Committee) setMembers(host contract.Host, args []interface{}) ([]interface{}, error) {
	if err := c.owner.OnlyOwner(host); err != nil {
		return nil, err
	}
	members := args[0].([]common.Address)
	values := args[1].([]bool)
	if len(members) != len(values) {
		return nil, errors.ErrLengthMismatch
	}
	for i, member := range members {
		if err := host.SetState(contracts.MappingSlot(member, membersSlot), contracts.BoolToWord(values[i])); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
