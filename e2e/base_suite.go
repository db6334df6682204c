package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"relay-lab/contracts/committee"
	"relay-lab/contracts/forwarder"
	"relay-lab/projection"
	"relay-lab/repositories"
	"relay-lab/runtime"
	"relay-lab/runtime/workers"
	"relay-lab/sink"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseLedgerSuite gives every test a fresh ledger with the forwarder and
// committee codes registered and committed logs persisted through a
// supervised fanout.
type BaseLedgerSuite struct {
	suite.Suite
	Config Config

	Log        *slog.Logger
	DB         *badger.DB
	Ledger     *runtime.Ledger
	Logs       repositories.EventLogRepository
	Governance *projection.Governance
	supervisor *workers.Supervisor
	done       chan struct{}
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseLedgerSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.Log = logs.GetLoggerFromLevel(slog.LevelDebug)
}

func (s *BaseLedgerSuite) SetupTest() {
	options := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	if s.Config.BadgerDir != "" {
		options = badger.DefaultOptions(filepath.Join(s.Config.BadgerDir, uuid.NewString())).WithLogger(nil)
	}
	db, err := badger.Open(options)
	s.Require().NoError(err)
	s.DB = db

	s.Logs = repositories.NewEventLogRepository(db, s.Log)
	s.Ledger, err = runtime.NewLedger(s.Log, repositories.NewStateRepository(db, s.Log), 0)
	s.Require().NoError(err)
	s.Ledger.
		Register(forwarder.Kind, forwarder.New(forwarder.Options{ForwardValue: s.Config.ForwardValue})).
		Register(committee.Kind, committee.New())

	s.Governance = projection.NewGovernance(forwarder.DecodeEvent)
	fanout := workers.NewEventFanout(s.Log, 16,
		sink.NewLogSink(s.Logs, s.Log),
		sink.NewConsoleSink(s.Log, forwarder.DecodeEvent),
		s.Governance)
	s.Ledger.Subscribe(fanout)

	s.supervisor = workers.NewSupervisor(s.Log, 10*time.Millisecond)
	s.done = make(chan struct{})
	go func() {
		s.supervisor.Add(fanout).Run(context.Background())
		close(s.done)
	}()
}

func (s *BaseLedgerSuite) TearDownTest() {
	s.Flush()
	s.Require().NoError(s.DB.Close())
}

// Flush stops the fanout once every committed log is persisted.
func (s *BaseLedgerSuite) Flush() {
	if s.done == nil {
		return
	}
	s.supervisor.Stop()
	<-s.done
	s.done = nil
}

// Step prints a header and runs fn as a subtest.
func (s *BaseLedgerSuite) Step(name string, fn func(ctx context.Context)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	s.Run(name, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		fn(ctx)
	})
}
