package sink

import (
	"context"
	"log/slog"
	"relay-lab/contract"

	"github.com/ethereum/go-ethereum/core/types"
)

// LogSink persists committed logs so they can be filtered after the fact.
type LogSink struct {
	repository contract.IEventLogRepository
	log        *slog.Logger
}

func NewLogSink(repository contract.IEventLogRepository, log *slog.Logger) LogSink {
	return LogSink{repository: repository, log: log}
}

func (s LogSink) Consume(_ context.Context, log *types.Log) error {
	if err := s.repository.StoreLog(log); err != nil {
		return err
	}
	s.log.Debug("Log persisted", "block", log.BlockNumber, "index", log.Index, "address", log.Address.Hex())
	return nil
}
