package repositories

import (
	"encoding/binary"
	goerrors "errors"
	"fmt"
	"log/slog"
	"math/big"
	"relay-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
)

const headKey = "meta:head"

// StateRepository persists committed world state in BadgerDB.
// Keys are namespaced by kind and hex address:
//
//	slot:{address}:{slot}   32 byte word
//	bal:{address}           big-endian balance
//	nonce:{address}         8 byte big-endian nonce
//	code:{address}          contract kind
//	meta:head               8 byte big-endian block number
type StateRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStateRepository(db *badger.DB, log *slog.Logger) StateRepository {
	return StateRepository{db: db, log: log}
}

func slotKey(addr common.Address, slot common.Hash) []byte {
	return []byte(fmt.Sprintf("slot:%s:%s", addr.Hex(), slot.Hex()))
}

func balanceKey(addr common.Address) []byte {
	return []byte("bal:" + addr.Hex())
}

func nonceKey(addr common.Address) []byte {
	return []byte("nonce:" + addr.Hex())
}

func codeKey(addr common.Address) []byte {
	return []byte("code:" + addr.Hex())
}

// get returns nil for missing keys.
func (r StateRepository) get(key []byte) ([]byte, error) {
	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (r StateRepository) GetSlot(addr common.Address, slot common.Hash) (common.Hash, error) {
	value, err := r.get(slotKey(addr, slot))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(value), nil
}

func (r StateRepository) GetBalance(addr common.Address) (*big.Int, error) {
	value, err := r.get(balanceKey(addr))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(value), nil
}

func (r StateRepository) GetNonce(addr common.Address) (uint64, error) {
	value, err := r.get(nonceKey(addr))
	if err != nil || value == nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(value), nil
}

func (r StateRepository) GetCode(addr common.Address) (string, error) {
	value, err := r.get(codeKey(addr))
	return string(value), err
}

func (r StateRepository) GetHead() (uint64, error) {
	value, err := r.get([]byte(headKey))
	if err != nil || value == nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(value), nil
}

// Commit writes a whole change set in a single badger transaction, so a block
// is either fully persisted or not at all.
func (r StateRepository) Commit(changes domain.ChangeSet) error {
	return r.db.Update(func(txn *badger.Txn) error {
		for key, value := range changes.Slots {
			k := slotKey(key.Address, key.Slot)
			// zero words are not stored
			if value == (common.Hash{}) {
				if err := txn.Delete(k); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(k, value.Bytes()); err != nil {
				return err
			}
		}
		for addr, balance := range changes.Balances {
			if err := txn.Set(balanceKey(addr), balance.Bytes()); err != nil {
				return err
			}
		}
		for addr, nonce := range changes.Nonces {
			if err := txn.Set(nonceKey(addr), binary.BigEndian.AppendUint64(nil, nonce)); err != nil {
				return err
			}
		}
		for addr, kind := range changes.Codes {
			if err := txn.Set(codeKey(addr), []byte(kind)); err != nil {
				return err
			}
		}
		r.log.Debug("Committing block", "head", changes.Head, "slots", len(changes.Slots))
		return txn.Set([]byte(headKey), binary.BigEndian.AppendUint64(nil, changes.Head))
	})
}
