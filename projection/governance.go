// Package projection builds local views from committed contract logs.
// Handles ordering and deduplication of replayed logs.
// Does not write to the ledger.
package projection

import (
	"context"
	"relay-lab/domain/event"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type position struct {
	block uint64
	index uint
}

// Governance tracks the current owner of every contract and the current
// caller of every forwarder, as seen through their events.
type Governance struct {
	mu       sync.RWMutex
	decoders []event.Decoder
	last     position
	seen     bool
	owners   map[common.Address]common.Address
	callers  map[common.Address]common.Address
	history  []event.DomainEvent
}

func NewGovernance(decoders ...event.Decoder) *Governance {
	return &Governance{
		decoders: decoders,
		owners:   make(map[common.Address]common.Address),
		callers:  make(map[common.Address]common.Address),
	}
}

// Consume applies a log. Logs at or before the last applied position are
// ignored, so the projection can be fed from a replay and the live stream.
func (g *Governance) Consume(_ context.Context, log *types.Log) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	at := position{block: log.BlockNumber, index: log.Index}
	if g.seen && !after(at, g.last) {
		return nil
	}
	g.last, g.seen = at, true

	evt, ok := event.Decode(log, g.decoders...)
	if !ok {
		return nil
	}
	switch e := evt.(type) {
	case event.CallerSet:
		g.callers[e.Contract] = e.NewCaller
	case event.OwnershipTransferred:
		g.owners[e.Contract] = e.NewOwner
	}
	g.history = append(g.history, evt)
	return nil
}

func (g *Governance) Owner(contract common.Address) (common.Address, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	owner, ok := g.owners[contract]
	return owner, ok
}

// Caller is only known once the forwarder emitted a CallerSet.
func (g *Governance) Caller(forwarder common.Address) (common.Address, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	caller, ok := g.callers[forwarder]
	return caller, ok
}

// History returns the decoded events in the order they were applied.
func (g *Governance) History() []event.DomainEvent {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]event.DomainEvent{}, g.history...)
}

func after(a, b position) bool {
	if a.block != b.block {
		return a.block > b.block
	}
	return a.index > b.index
}
