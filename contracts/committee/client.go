package committee

import (
	"context"
	"relay-lab/contract"
	"relay-lab/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Client is a typed binding to a deployed committee.
type Client struct {
	address common.Address
	backend contract.Backend
}

func NewClient(address common.Address, backend contract.Backend) *Client {
	return &Client{address: address, backend: backend}
}

func Deploy(ctx context.Context, backend contract.Backend, opts domain.TxOpts, owner common.Address, members []common.Address) (*Client, *domain.Receipt, error) {
	if members == nil {
		members = []common.Address{}
	}
	args, err := ABI.Pack("", owner, members)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := backend.Deploy(ctx, opts, Kind, args)
	if err != nil {
		return nil, receipt, err
	}
	return NewClient(receipt.ContractAddress, backend), receipt, nil
}

func (c *Client) Address() common.Address {
	return c.address
}

func (c *Client) Owner(ctx context.Context) (common.Address, error) {
	values, err := c.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func (c *Client) Members(ctx context.Context, who common.Address) (bool, error) {
	values, err := c.call(ctx, "members", who)
	if err != nil {
		return false, err
	}
	return values[0].(bool), nil
}

func (c *Client) SetMembers(ctx context.Context, opts domain.TxOpts, members []common.Address, values []bool) (*domain.Receipt, error) {
	input, err := PackSetMembers(members, values)
	if err != nil {
		return nil, err
	}
	return c.transact(ctx, opts, input)
}

func (c *Client) TransferOwnership(ctx context.Context, opts domain.TxOpts, newOwner common.Address) (*domain.Receipt, error) {
	input, err := ABI.Pack("transferOwnership", newOwner)
	if err != nil {
		return nil, err
	}
	return c.transact(ctx, opts, input)
}

// PackSetMembers encodes a setMembers call, ready to be relayed by a forwarder.
func PackSetMembers(members []common.Address, values []bool) ([]byte, error) {
	return ABI.Pack("setMembers", members, values)
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	output, err := c.backend.Call(ctx, domain.Call{To: c.address, Data: input})
	if err != nil {
		return nil, err
	}
	return ABI.Unpack(method, output)
}

func (c *Client) transact(ctx context.Context, opts domain.TxOpts, input []byte) (*domain.Receipt, error) {
	return c.backend.Transact(ctx, domain.Call{
		From:  opts.From,
		To:    c.address,
		Value: opts.ValueOrZero(),
		Data:  input,
	})
}
