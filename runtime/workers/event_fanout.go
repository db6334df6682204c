package workers

import (
	"context"
	"log/slog"
	"relay-lab/contract"

	"github.com/ethereum/go-ethereum/core/types"
)

// EventFanout decouples ledger commits from slow consumers. It is itself an
// EventSink: Consume only enqueues, Run delivers to the downstream sinks in
// the order logs were committed.
//
// Logs still buffered when Run's context is cancelled are delivered before
// Run returns. Nothing is retried: a failing sink is logged and skipped.
type EventFanout struct {
	log   *slog.Logger
	logs  chan *types.Log
	sinks []contract.EventSink
}

func NewEventFanout(log *slog.Logger, bufferSize int, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, logs: make(chan *types.Log, bufferSize), sinks: sinks}
}

// Consume blocks while the buffer is full, so the ledger slows down instead of
// losing logs.
func (w *EventFanout) Consume(ctx context.Context, log *types.Log) error {
	select {
	case w.logs <- log:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case log := <-w.logs:
			w.Fanout(ctx, log)
		case <-ctx.Done():
			w.drain()
			w.log.Debug("Context done, event fanout stopped")
			return nil
		}
	}
}

func (w *EventFanout) drain() {
	for {
		select {
		case log := <-w.logs:
			w.Fanout(context.Background(), log)
		default:
			return
		}
	}
}

// Fanout delivers one log to every sink.
func (w *EventFanout) Fanout(ctx context.Context, log *types.Log) {
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, log); err != nil {
			w.log.Warn("Sink failed", "block", log.BlockNumber, "index", log.Index, "error", err)
		}
	}
}
