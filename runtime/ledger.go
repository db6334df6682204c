// Package runtime executes native contracts against the journaled state.
// It owns ordering, atomicity and log delivery; it holds no business rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"relay-lab/contract"
	"relay-lab/domain"
	"relay-lab/errors"
	"relay-lab/storage"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultMaxCallDepth = 1024

type subscription struct {
	id   uuid.UUID
	sink contract.EventSink
}

// Ledger applies transactions one at a time, each in its own block.
// A transaction either commits all its writes and logs or none of them.
//
// Sinks are called synchronously under the ledger lock, in commit order.
// A sink must not call back into the ledger; wrap it in a workers.EventFanout
// when it needs to.
type Ledger struct {
	mu           sync.Mutex
	log          *slog.Logger
	state        *storage.StateDB
	codes        map[string]contract.Contract
	head         uint64
	maxCallDepth int

	sinksMu sync.RWMutex
	sinks   []subscription
}

func NewLedger(log *slog.Logger, repository contract.IStateRepository, maxCallDepth int) (*Ledger, error) {
	head, err := repository.GetHead()
	if err != nil {
		return nil, fmt.Errorf("unable to read ledger head: %w", err)
	}
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	return &Ledger{
		log:          log,
		state:        storage.NewStateDB(repository),
		codes:        make(map[string]contract.Contract),
		head:         head,
		maxCallDepth: maxCallDepth,
	}, nil
}

// Register makes a contract implementation deployable under kind. Code is not
// persisted: a reopened ledger needs the same registrations to run the
// contracts recorded in its state.
func (l *Ledger) Register(kind string, code contract.Contract) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.codes[kind] = code
	return l
}

func (l *Ledger) Subscribe(sink contract.EventSink) uuid.UUID {
	l.sinksMu.Lock()
	defer l.sinksMu.Unlock()
	id := uuid.New()
	l.sinks = append(l.sinks, subscription{id: id, sink: sink})
	return id
}

func (l *Ledger) Unsubscribe(id uuid.UUID) bool {
	l.sinksMu.Lock()
	defer l.sinksMu.Unlock()
	remaining := lo.Reject(l.sinks, func(s subscription, _ int) bool { return s.id == id })
	removed := len(remaining) != len(l.sinks)
	l.sinks = remaining
	return removed
}

func (l *Ledger) Head() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

func (l *Ledger) BalanceOf(addr common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.state.GetBalance(addr)
	if err := l.state.Error(); err != nil {
		l.state.Discard()
		return nil, err
	}
	return balance, nil
}

// CodeAt returns the kind of contract deployed at addr, "" when there is none.
func (l *Ledger) CodeAt(addr common.Address) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kind := l.state.GetCode(addr)
	if err := l.state.Error(); err != nil {
		l.state.Discard()
		return "", err
	}
	return kind, nil
}

// Mint credits amount to addr in a block of its own. It is the faucet used by
// tests and the demo command.
func (l *Ledger) Mint(ctx context.Context, addr common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	l.state.AddBalance(addr, amount)
	return l.commit()
}

// Deploy creates a contract of the given kind. The address derives from the
// sender and its nonce, as on Ethereum.
func (l *Ledger) Deploy(ctx context.Context, opts domain.TxOpts, kind string, args []byte) (*domain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	code, ok := l.codes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrCodeNotRegistered, kind)
	}
	value := opts.ValueOrZero()
	nonce := l.state.GetNonce(opts.From)
	address := crypto.CreateAddress(opts.From, nonce)
	receipt := &domain.Receipt{
		TxHash:          txHash(opts.From, nonce, domain.ZeroAddress, value, append([]byte(kind), args...)),
		From:            opts.From,
		ContractAddress: address,
	}

	execErr := l.create(ctx, opts.From, address, kind, code, value, args)
	l.state.SetNonce(opts.From, nonce+1)
	return l.finalize(ctx, receipt, nil, execErr)
}

func (l *Ledger) create(ctx context.Context, from, address common.Address, kind string, code contract.Contract, value *big.Int, args []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := l.state.Snapshot()
	if l.state.GetCode(address) != "" {
		return fmt.Errorf("%w: %s", errors.ErrContractCollision, address)
	}
	l.state.SetCode(address, kind)
	if value.Sign() != 0 {
		if err := l.state.Transfer(from, address, value); err != nil {
			l.state.RevertToSnapshot(snapshot)
			return err
		}
	}
	host := &frame{ctx: ctx, ledger: l, self: address, sender: from, value: value}
	if err := code.Construct(host, args); err != nil {
		l.state.RevertToSnapshot(snapshot)
		return errors.NewRevert(err)
	}
	return nil
}

// Transact executes call as a transaction. The receipt is returned even when
// execution fails, together with the execution error.
func (l *Ledger) Transact(ctx context.Context, call domain.Call) (*domain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value := lo.Ternary(call.Value == nil, new(big.Int), call.Value)
	nonce := l.state.GetNonce(call.From)
	receipt := &domain.Receipt{
		TxHash: txHash(call.From, nonce, call.To, value, call.Data),
		From:   call.From,
		To:     call.To,
	}

	ret, execErr := l.call(ctx, call.From, call.To, value, call.Data, false, 0)
	l.state.SetNonce(call.From, nonce+1)
	return l.finalize(ctx, receipt, ret, execErr)
}

// Call executes a read-only query against the latest state. Writes, logs and
// value transfers are rejected with ErrWriteProtection.
func (l *Ledger) Call(ctx context.Context, call domain.Call) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.state.Snapshot()
	value := lo.Ternary(call.Value == nil, new(big.Int), call.Value)
	ret, err := l.call(ctx, call.From, call.To, value, call.Data, true, 0)
	l.state.RevertToSnapshot(snapshot)
	if dbErr := l.state.Error(); dbErr != nil {
		l.state.Discard()
		return nil, dbErr
	}
	return ret, err
}

// call runs one frame. A failing frame reverts its own writes and logs only;
// the caller decides what to do with the error.
func (l *Ledger) call(ctx context.Context, from, to common.Address, value *big.Int, input []byte, static bool, depth int) ([]byte, error) {
	if depth >= l.maxCallDepth {
		return nil, errors.ErrCallDepth
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot := l.state.Snapshot()
	if value.Sign() != 0 {
		if static {
			return nil, errors.ErrWriteProtection
		}
		if err := l.state.Transfer(from, to, value); err != nil {
			return nil, err
		}
	}

	kind := l.state.GetCode(to)
	if kind == "" {
		// plain account: the call succeeds without running anything
		return nil, nil
	}
	code, ok := l.codes[kind]
	if !ok {
		l.state.RevertToSnapshot(snapshot)
		return nil, fmt.Errorf("%w: %q at %s", errors.ErrCodeNotRegistered, kind, to)
	}

	host := &frame{ctx: ctx, ledger: l, self: to, sender: from, value: value, static: static, depth: depth}
	ret, err := code.Invoke(host, input)
	if err != nil {
		l.state.RevertToSnapshot(snapshot)
		return nil, errors.NewRevert(err)
	}
	return ret, nil
}

// finalize mines the block holding receipt. Execution errors still produce a
// block (the nonce moved); backend errors discard everything.
func (l *Ledger) finalize(ctx context.Context, receipt *domain.Receipt, ret []byte, execErr error) (*domain.Receipt, error) {
	if dbErr := l.state.Error(); dbErr != nil {
		l.state.Discard()
		return nil, dbErr
	}
	receipt.BlockNumber = l.head + 1
	blockHash := blockHash(receipt.BlockNumber, receipt.TxHash)
	if execErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.RevertReason = revertReason(execErr)
		receipt.ContractAddress = domain.ZeroAddress
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
		receipt.ReturnData = ret
		for i, log := range l.state.Logs() {
			log.BlockNumber = receipt.BlockNumber
			log.BlockHash = blockHash
			log.TxHash = receipt.TxHash
			log.Index = uint(i)
		}
		receipt.Logs = append([]*types.Log{}, l.state.Logs()...)
	}
	if err := l.commit(); err != nil {
		return nil, err
	}
	l.log.Debug("Block committed",
		"block", receipt.BlockNumber, "tx", receipt.TxHash.Hex(),
		"status", receipt.Status, "logs", len(receipt.Logs))
	l.deliver(ctx, receipt.Logs)
	return receipt, execErr
}

func (l *Ledger) commit() error {
	if err := l.state.Commit(l.head + 1); err != nil {
		return err
	}
	l.head++
	return nil
}

func (l *Ledger) deliver(ctx context.Context, logs []*types.Log) {
	l.sinksMu.RLock()
	defer l.sinksMu.RUnlock()
	for _, log := range logs {
		for _, s := range l.sinks {
			if err := s.sink.Consume(ctx, log); err != nil {
				l.log.Warn("Sink failed to consume log",
					"subscription", s.id, "block", log.BlockNumber, "index", log.Index, "error", err)
			}
		}
	}
}

func revertReason(err error) string {
	revert := errors.NewRevert(err)
	if revert == nil {
		return ""
	}
	return revert.Reason
}

func txHash(from common.Address, nonce uint64, to common.Address, value *big.Int, data []byte) common.Hash {
	encoded, err := rlp.EncodeToBytes([]interface{}{from, nonce, to, value, data})
	if err != nil {
		panic(fmt.Sprintf("unable to encode transaction: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}

func blockHash(number uint64, tx common.Hash) common.Hash {
	encoded, err := rlp.EncodeToBytes([]interface{}{number, tx})
	if err != nil {
		panic(fmt.Sprintf("unable to encode block: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}
