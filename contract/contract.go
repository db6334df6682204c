//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"math/big"
	"reflect"
	"relay-lab/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Host is the execution frame a contract runs in. It is only valid for the
// duration of one Construct or Invoke call.
type Host interface {
	Context() context.Context
	Self() common.Address
	Sender() common.Address
	Value() *big.Int
	GetState(slot common.Hash) common.Hash
	SetState(slot, value common.Hash) error
	Emit(topics []common.Hash, data []byte) error
	Call(to common.Address, value *big.Int, input []byte) ([]byte, error)
}

// Contract is native contract code. Implementations keep no state of their
// own: everything lives in the Host storage so that the ledger can journal it.
type Contract interface {
	Construct(host Host, args []byte) error
	Invoke(host Host, input []byte) ([]byte, error)
}

// Backend is what typed contract clients need from a ledger.
type Backend interface {
	Deploy(ctx context.Context, opts domain.TxOpts, kind string, args []byte) (*domain.Receipt, error)
	Transact(ctx context.Context, call domain.Call) (*domain.Receipt, error)
	Call(ctx context.Context, call domain.Call) ([]byte, error)
}

// EventSink receives committed logs in commit order.
type EventSink interface {
	Consume(ctx context.Context, log *types.Log) error
}

type IStateRepository interface {
	GetSlot(addr common.Address, slot common.Hash) (common.Hash, error)
	GetBalance(addr common.Address) (*big.Int, error)
	GetNonce(addr common.Address) (uint64, error)
	GetCode(addr common.Address) (string, error)
	GetHead() (uint64, error)
	Commit(changes domain.ChangeSet) error
}

type IEventLogRepository interface {
	StoreLog(log *types.Log) error
	GetLogs(query domain.LogQuery) ([]*types.Log, error)
}

type WorkerName string

// Worker doesn't protect itself, the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
