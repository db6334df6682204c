package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"relay-lab/contracts/committee"
	"relay-lab/contracts/forwarder"
	"relay-lab/domain"
	"relay-lab/internal"
	"relay-lab/projection"
	"relay-lab/repositories"
	"relay-lab/runtime"
	"relay-lab/runtime/workers"
	"relay-lab/services"
	"relay-lab/sink"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the ledger, deploys a committee governed through a forwarder and
// relays one membership change. Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	members, err := config.Members()
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(config.BadgerOptions())
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Ledger & contract codes
	stateRepository := repositories.NewStateRepository(db, log)
	eventLogRepository := repositories.NewEventLogRepository(db, log)
	ledger, err := runtime.NewLedger(log, stateRepository, config.MaxCallDepth)
	if err != nil {
		return err
	}
	ledger.
		Register(forwarder.Kind, forwarder.New(forwarder.Options{ForwardValue: config.ForwardValue})).
		Register(committee.Kind, committee.New())

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised event delivery
	registry := prometheus.NewRegistry()
	metrics, err := sink.NewMetricsSink(registry, forwarder.DecodeEvent)
	if err != nil {
		return fmt.Errorf("metrics registration failed: %w", err)
	}
	if config.DebugPort > 0 {
		internal.StartDebugServer(ctx, log, config.DebugPort, registry)
	}
	governance := projection.NewGovernance(forwarder.DecodeEvent)
	fanout := workers.NewEventFanout(log, config.FanoutBufferSize,
		sink.NewLogSink(eventLogRepository, log),
		sink.NewConsoleSink(log, forwarder.DecodeEvent),
		metrics,
		governance,
	)
	subscription := ledger.Subscribe(fanout)
	defer ledger.Unsubscribe(subscription)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	supervisorDone := make(chan struct{})
	go func() {
		sup.Add(fanout).Run(ctx)
		close(supervisorDone)
	}()

	// 6. Governance scenario
	scenarioErr := scenario(ctx, services.NewGovernanceService(ledger, log), config.Owner(), config.Caller(), members)

	// 7. Final Cleanup, the fanout drains before the supervisor returns
	sup.Stop()
	<-supervisorDone
	if scenarioErr != nil {
		return scenarioErr
	}
	for _, evt := range governance.History() {
		color.Gray.Printf("%s emitted %s\n", evt.Emitter().Hex(), evt.Name())
	}
	log.Info("Program stopped cleanly", "head", ledger.Head())
	return nil
}

func scenario(ctx context.Context, service *services.GovernanceService, owner, caller common.Address, members []common.Address) error {
	if err := service.Setup(ctx, owner, caller, members); err != nil {
		return err
	}
	color.Green.Printf("Committee %s governed by forwarder %s\n",
		service.Committee.Address().Hex(), service.Forwarder.Address().Hex())

	// the designated caller adds itself, or the owner does when there is none
	sender := caller
	if caller == domain.ZeroAddress {
		sender = owner
	}
	receipt, err := service.SetMembers(ctx, domain.TxOpts{From: sender}, []common.Address{sender}, []bool{true})
	if err != nil {
		if receipt != nil {
			color.Red.Printf("setMembers relayed by %s reverted: %s\n", sender.Hex(), receipt.RevertReason)
		}
		return err
	}
	isMember, err := service.IsMember(ctx, sender)
	if err != nil {
		return err
	}
	color.Cyan.Printf("Block %d: %s member=%t\n", receipt.BlockNumber, sender.Hex(), isMember)
	return nil
}
