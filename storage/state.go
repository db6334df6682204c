// Package storage holds the journaled world state the ledger executes against.
// Reads go through to a repository, writes stay in memory until Commit.
package storage

import (
	"fmt"
	"math/big"
	"relay-lab/contract"
	"relay-lab/domain"
	"relay-lab/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type journalEntry func(s *StateDB)

// StateDB caches state read from a repository and records every write in a
// journal so that a failing frame can be rolled back to a snapshot.
// It is not safe for concurrent use; the ledger serialises access.
type StateDB struct {
	backend contract.IStateRepository

	slots    map[domain.SlotKey]common.Hash
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address]string
	logs     []*types.Log

	dirtySlots    map[domain.SlotKey]struct{}
	dirtyBalances map[common.Address]struct{}
	dirtyNonces   map[common.Address]struct{}
	dirtyCodes    map[common.Address]struct{}

	journal []journalEntry
	// first error returned by the backend, see Error
	dbErr error
}

func NewStateDB(backend contract.IStateRepository) *StateDB {
	s := &StateDB{backend: backend}
	s.reset()
	return s
}

func (s *StateDB) reset() {
	s.slots = make(map[domain.SlotKey]common.Hash)
	s.balances = make(map[common.Address]*big.Int)
	s.nonces = make(map[common.Address]uint64)
	s.codes = make(map[common.Address]string)
	s.logs = nil
	s.journal = nil
	s.dbErr = nil
	s.resetDirty()
}

func (s *StateDB) resetDirty() {
	s.dirtySlots = make(map[domain.SlotKey]struct{})
	s.dirtyBalances = make(map[common.Address]struct{})
	s.dirtyNonces = make(map[common.Address]struct{})
	s.dirtyCodes = make(map[common.Address]struct{})
}

func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the first backend error met since the last Commit or Discard.
// Reads that failed returned zero values, so the execution that observed them
// must not be committed.
func (s *StateDB) Error() error {
	return s.dbErr
}

func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	key := domain.SlotKey{Address: addr, Slot: slot}
	if value, ok := s.slots[key]; ok {
		return value
	}
	value, err := s.backend.GetSlot(addr, slot)
	if err != nil {
		s.setError(fmt.Errorf("unable to read slot %x of %s: %w", slot, addr, err))
		return common.Hash{}
	}
	s.slots[key] = value
	return value
}

func (s *StateDB) SetState(addr common.Address, slot, value common.Hash) {
	key := domain.SlotKey{Address: addr, Slot: slot}
	prev := s.GetState(addr, slot)
	s.journal = append(s.journal, func(s *StateDB) { s.slots[key] = prev })
	s.slots[key] = value
	s.dirtySlots[key] = struct{}{}
}

func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if balance, ok := s.balances[addr]; ok {
		return new(big.Int).Set(balance)
	}
	balance, err := s.backend.GetBalance(addr)
	if err != nil {
		s.setError(fmt.Errorf("unable to read balance of %s: %w", addr, err))
		return new(big.Int)
	}
	s.balances[addr] = balance
	return new(big.Int).Set(balance)
}

func (s *StateDB) setBalance(addr common.Address, balance *big.Int) {
	prev := s.GetBalance(addr)
	s.journal = append(s.journal, func(s *StateDB) { s.balances[addr] = prev })
	s.balances[addr] = balance
	s.dirtyBalances[addr] = struct{}{}
}

func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	s.setBalance(addr, new(big.Int).Add(s.GetBalance(addr), amount))
}

// Transfer moves amount from one account to another. A transfer to self only
// checks the balance.
func (s *StateDB) Transfer(from, to common.Address, amount *big.Int) error {
	balance := s.GetBalance(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", errors.ErrInsufficientBalance, from, balance, amount)
	}
	if from == to {
		return nil
	}
	s.setBalance(from, balance.Sub(balance, amount))
	s.AddBalance(to, amount)
	return nil
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if nonce, ok := s.nonces[addr]; ok {
		return nonce
	}
	nonce, err := s.backend.GetNonce(addr)
	if err != nil {
		s.setError(fmt.Errorf("unable to read nonce of %s: %w", addr, err))
		return 0
	}
	s.nonces[addr] = nonce
	return nonce
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	prev := s.GetNonce(addr)
	s.journal = append(s.journal, func(s *StateDB) { s.nonces[addr] = prev })
	s.nonces[addr] = nonce
	s.dirtyNonces[addr] = struct{}{}
}

// GetCode returns the kind of contract deployed at addr, or "" for accounts
// without code.
func (s *StateDB) GetCode(addr common.Address) string {
	if kind, ok := s.codes[addr]; ok {
		return kind
	}
	kind, err := s.backend.GetCode(addr)
	if err != nil {
		s.setError(fmt.Errorf("unable to read code of %s: %w", addr, err))
		return ""
	}
	s.codes[addr] = kind
	return kind
}

func (s *StateDB) SetCode(addr common.Address, kind string) {
	prev := s.GetCode(addr)
	s.journal = append(s.journal, func(s *StateDB) { s.codes[addr] = prev })
	s.codes[addr] = kind
	s.dirtyCodes[addr] = struct{}{}
}

func (s *StateDB) AddLog(log *types.Log) {
	size := len(s.logs)
	s.journal = append(s.journal, func(s *StateDB) { s.logs = s.logs[:size] })
	s.logs = append(s.logs, log)
}

// Logs returns the logs emitted since the last Commit or Discard.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

func (s *StateDB) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every write made after the snapshot was taken.
func (s *StateDB) RevertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i](s)
	}
	s.journal = s.journal[:id]
}

// Commit flushes every dirty entry to the backend together with the new head.
// On success the journal and the pending logs are cleared; the cache is kept.
func (s *StateDB) Commit(head uint64) error {
	if s.dbErr != nil {
		return s.dbErr
	}
	changes := domain.NewChangeSet(head)
	for key := range s.dirtySlots {
		changes.Slots[key] = s.slots[key]
	}
	for addr := range s.dirtyBalances {
		changes.Balances[addr] = new(big.Int).Set(s.balances[addr])
	}
	for addr := range s.dirtyNonces {
		changes.Nonces[addr] = s.nonces[addr]
	}
	for addr := range s.dirtyCodes {
		changes.Codes[addr] = s.codes[addr]
	}
	if err := s.backend.Commit(changes); err != nil {
		// cache may now disagree with the backend
		s.reset()
		return fmt.Errorf("unable to commit block %d: %w", head, err)
	}
	s.journal = nil
	s.logs = nil
	s.resetDirty()
	return nil
}

// Discard drops every uncommitted write and the whole cache.
func (s *StateDB) Discard() {
	s.reset()
}
