package sink

import (
	"context"
	"fmt"
	"log/slog"
	"relay-lab/domain/event"

	"github.com/ethereum/go-ethereum/core/types"
)

// ConsoleSink logs the events it knows how to decode and ignores the rest.
type ConsoleSink struct {
	log      *slog.Logger
	decoders []event.Decoder
}

func NewConsoleSink(log *slog.Logger, decoders ...event.Decoder) ConsoleSink {
	return ConsoleSink{log: log, decoders: decoders}
}

func (s ConsoleSink) Consume(_ context.Context, log *types.Log) error {
	evt, ok := event.Decode(log, s.decoders...)
	if !ok {
		s.log.Debug(fmt.Sprintf("Not decodable log : %s#%d", log.Address.Hex(), log.Index))
		return nil
	}
	switch e := evt.(type) {
	case event.CallerSet:
		s.log.Info("Caller set",
			"forwarder", e.Contract.Hex(), "old", e.OldCaller.Hex(), "new", e.NewCaller.Hex(), "block", log.BlockNumber)
	case event.OwnershipTransferred:
		s.log.Info("Ownership transferred",
			"contract", e.Contract.Hex(), "previous", e.PreviousOwner.Hex(), "new", e.NewOwner.Hex(), "block", log.BlockNumber)
	default:
		s.log.Info(evt.Name(), "contract", evt.Emitter().Hex(), "block", log.BlockNumber)
	}
	return nil
}
