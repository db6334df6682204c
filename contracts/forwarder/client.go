package forwarder

import (
	"context"
	"relay-lab/contract"
	"relay-lab/contracts/ownable"
	"relay-lab/domain"
	"relay-lab/domain/event"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
)

// Client is a typed binding to a deployed forwarder.
type Client struct {
	address common.Address
	backend contract.Backend
}

func NewClient(address common.Address, backend contract.Backend) *Client {
	return &Client{address: address, backend: backend}
}

// Deploy creates a forwarder owned by owner with caller as designated caller.
// The receipt is returned even when deployment fails.
func Deploy(ctx context.Context, backend contract.Backend, opts domain.TxOpts, owner, caller common.Address) (*Client, *domain.Receipt, error) {
	args, err := ABI.Pack("", owner, caller)
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
	return c.callAddress(ctx, "owner")
}

func (c *Client) Caller(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "caller")
}

func (c *Client) SetCaller(ctx context.Context, opts domain.TxOpts, newCaller common.Address) (*domain.Receipt, error) {
	return c.transact(ctx, opts, "setCaller", newCaller)
}

// ForwardCall relays payload to target. The target's raw result is available
// through UnpackForwardResult on the receipt's return data.
func (c *Client) ForwardCall(ctx context.Context, opts domain.TxOpts, target common.Address, payload []byte) (*domain.Receipt, error) {
	return c.transact(ctx, opts, "forwardCall", target, payload)
}

// UnpackForwardResult decodes the bytes returned by forwardCall.
func UnpackForwardResult(returnData []byte) ([]byte, error) {
	values, err := ABI.Unpack("forwardCall", returnData)
	if err != nil {
		return nil, err
	}
	return values[0].([]byte), nil
}

// ParseCallerSet decodes a CallerSet log.
func ParseCallerSet(log *types.Log) (event.CallerSet, error) {
	evt := ABI.Events["CallerSet"]
	if len(log.Topics) == 0 || log.Topics[0] != evt.ID {
		return event.CallerSet{}, errors.ErrUnknownEvent
	}
	values, err := evt.Inputs.Unpack(log.Data)
	if err != nil {
		return event.CallerSet{}, err
	}
	return event.CallerSet{
		Contract:  log.Address,
		OldCaller: values[0].(common.Address),
		NewCaller: values[1].(common.Address),
		Raw:       log,
	}, nil
}

// FilterCallerSet reads the CallerSet history of this forwarder from the
// persisted logs, oldest first.
func (c *Client) FilterCallerSet(repository contract.IEventLogRepository, fromBlock uint64) ([]event.CallerSet, error) {
	logs, err := repository.GetLogs(domain.LogQuery{
		Address:   lo.ToPtr(c.address),
		Topic:     lo.ToPtr(ABI.Events["CallerSet"].ID),
		FromBlock: fromBlock,
	})
	if err != nil {
		return nil, err
	}
	events := make([]event.CallerSet, 0, len(logs))
	for _, log := range logs {
		evt, err := ParseCallerSet(log)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

// DecodeEvent decodes every event the forwarder emits.
func DecodeEvent(log *types.Log) (event.DomainEvent, bool) {
	if evt, err := ParseCallerSet(log); err == nil {
		return evt, true
	}
	return ownable.DecodeEvent(log)
}

func (c *Client) callAddress(ctx context.Context, method string) (common.Address, error) {
	input, err := ABI.Pack(method)
	if err != nil {
		return common.Address{}, err
	}
	output, err := c.backend.Call(ctx, domain.Call{To: c.address, Data: input})
	if err != nil {
		return common.Address{}, err
	}
	values, err := ABI.Unpack(method, output)
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func (c *Client) transact(ctx context.Context, opts domain.TxOpts, method string, args ...interface{}) (*domain.Receipt, error) {
	input, err := ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	return c.backend.Transact(ctx, domain.Call{
		From:  opts.From,
		To:    c.address,
		Value: opts.ValueOrZero(),
		Data:  input,
	})
}
