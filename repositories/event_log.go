package repositories

import (
	"fmt"
	"log/slog"
	"relay-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/samber/lo"
)

const (
	logPrefix          = "log:"
	addressIndexPrefix = "idx:addr:"
)

type EventLogRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewEventLogRepository(db *badger.DB, log *slog.Logger) EventLogRepository {
	return EventLogRepository{db: db, log: log}
}

// storedLog is the RLP layout of a persisted log.
type storedLog struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint64
	BlockHash   common.Hash
	Index       uint64
}

// position formats "{block}:{index}" with 19 and 6 digit zero padding so that
// lexicographical key order is chain order.
func position(block uint64, index uint) string {
	return fmt.Sprintf("%019d:%06d", block, index)
}

func logKey(block uint64, index uint) []byte {
	return []byte(logPrefix + position(block, index))
}

func addressPrefix(addr common.Address) string {
	return addressIndexPrefix + addr.Hex() + ":"
}

// StoreLog persists a committed log under its chain position and indexes it
// by emitting contract.
func (r EventLogRepository) StoreLog(log *types.Log) error {
	bytes, err := rlp.EncodeToBytes(fromLog(log))
	if err != nil {
		return err
	}
	key := logKey(log.BlockNumber, log.Index)
	indexKey := []byte(addressPrefix(log.Address) + position(log.BlockNumber, log.Index))
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey, key)
	})
}

// GetLogs scans logs in chain order. With an address filter it walks the
// address index instead of the whole log space.
func (r EventLogRepository) GetLogs(query domain.LogQuery) ([]*types.Log, error) {
	var logs []*types.Log
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := logPrefix
		if query.Address != nil {
			prefix = addressPrefix(*query.Address)
		}
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		seek := append([]byte(prefix), []byte(position(query.FromBlock, 0))...)
		for it.Seek(seek); it.ValidForPrefix(prefixBytes); it.Next() {
			if query.Limit != nil && len(logs) == *query.Limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d logs reached", *query.Limit))
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if query.Address != nil {
				value, err = r.valueAt(txn, value)
				if err != nil {
					return err
				}
			}
			log, err := decodeLog(value)
			if err != nil {
				return err
			}
			if query.ToBlock != 0 && log.BlockNumber > query.ToBlock {
				break
			}
			if query.Topic != nil && (len(log.Topics) == 0 || log.Topics[0] != *query.Topic) {
				continue
			}
			logs = append(logs, log)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r EventLogRepository) valueAt(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, fmt.Errorf("dangling index entry %s: %w", key, err)
	}
	return item.ValueCopy(nil)
}

func decodeLog(value []byte) (*types.Log, error) {
	var stored storedLog
	if err := rlp.DecodeBytes(value, &stored); err != nil {
		return nil, err
	}
	return toLog(stored), nil
}

func fromLog(log *types.Log) storedLog {
	return storedLog{
		Address:     log.Address,
		Topics:      lo.Ternary(log.Topics == nil, []common.Hash{}, log.Topics),
		Data:        log.Data,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		TxIndex:     uint64(log.TxIndex),
		BlockHash:   log.BlockHash,
		Index:       uint64(log.Index),
	}
}

func toLog(stored storedLog) *types.Log {
	return &types.Log{
		Address:     stored.Address,
		Topics:      stored.Topics,
		Data:        stored.Data,
		BlockNumber: stored.BlockNumber,
		TxHash:      stored.TxHash,
		TxIndex:     uint(stored.TxIndex),
		BlockHash:   stored.BlockHash,
		Index:       uint(stored.Index),
	}
}
