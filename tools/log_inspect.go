package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"relay-lab/contracts/forwarder"
	"relay-lab/domain"
	"relay-lab/domain/event"
	"relay-lab/repositories"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	address := flag.String("address", "", "Only logs emitted by this contract")
	from := flag.Uint64("from", 0, "First block")
	limit := flag.Int("limit", 0, "Maximum number of logs, 0 for all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	query := domain.LogQuery{FromBlock: *from}
	if *address != "" {
		if !common.IsHexAddress(*address) {
			log.Fatalf("Invalid address %q", *address)
		}
		addr := common.HexToAddress(*address)
		query.Address = &addr
	}
	if *limit > 0 {
		query.Limit = limit
	}

	repository := repositories.NewEventLogRepository(db, slog.Default())
	logs, err := repository.GetLogs(query)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Block", "Index", "Contract", "Event", "Detail", "Tx"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, l := range logs {
		name, detail := "UNKNOWN", fmt.Sprintf("%d topics, %d bytes", len(l.Topics), len(l.Data))
		if evt, ok := event.Decode(l, forwarder.DecodeEvent); ok {
			name, detail = evt.Name(), describe(evt)
		}
		table.Append([]string{
			fmt.Sprintf("%d", l.BlockNumber),
			fmt.Sprintf("%d", l.Index),
			l.Address.Hex(),
			name,
			detail,
			// first bytes are enough to tell transactions apart
			l.TxHash.Hex()[:10],
		})
	}
	table.Render()
}

func describe(evt event.DomainEvent) string {
	switch e := evt.(type) {
	case event.CallerSet:
		return fmt.Sprintf("%s -> %s", e.OldCaller.Hex(), e.NewCaller.Hex())
	case event.OwnershipTransferred:
		return fmt.Sprintf("%s -> %s", e.PreviousOwner.Hex(), e.NewOwner.Hex())
	default:
		return ""
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			// a write open truncates the value log, then read-only again
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
