package e2e

import (
	"context"
	"relay-lab/contracts/committee"
	"relay-lab/contracts/forwarder"
	"relay-lab/domain"
	"relay-lab/errors"
	"relay-lab/services"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

var (
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	initial   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	rotated   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	stranger  = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	newMember = common.HexToAddress("0x00000000000000000000000000000000000000e5")
)

type testGovernanceSuite struct {
	BaseLedgerSuite
	service *services.GovernanceService
}

func TestGovernanceSuite(t *testing.T) {
	suite.Run(t, &testGovernanceSuite{})
}

func (s *testGovernanceSuite) SetupTest() {
	s.BaseLedgerSuite.SetupTest()
	s.service = services.NewGovernanceService(s.Ledger, s.Log)
	s.Require().NoError(s.service.Setup(context.Background(), owner, initial, []common.Address{owner}))
}

func (s *testGovernanceSuite) TestCallerRotation() {
	setMembers, err := committee.PackSetMembers([]common.Address{newMember}, []bool{true})
	s.Require().NoError(err)

	s.Step("Step 1: the caller cannot replace itself", func(ctx context.Context) {
		receipt, err := s.service.RotateCaller(ctx, domain.TxOpts{From: initial}, rotated)
		s.Require().ErrorIs(err, errors.ErrUnauthorized)
		s.Require().Equal("Ownable: caller is not the owner", receipt.RevertReason)
		s.Require().Empty(receipt.Logs)

		caller, err := s.service.Forwarder.Caller(ctx)
		s.Require().NoError(err)
		s.Require().Equal(initial, caller)
	})

	s.Step("Step 2: the owner rotates the caller", func(ctx context.Context) {
		receipt, err := s.service.RotateCaller(ctx, domain.TxOpts{From: owner}, rotated)
		s.Require().NoError(err)
		s.Require().Len(receipt.Logs, 1)

		evt, err := forwarder.ParseCallerSet(receipt.Logs[0])
		s.Require().NoError(err)
		s.Require().Equal(initial, evt.OldCaller)
		s.Require().Equal(rotated, evt.NewCaller)

		caller, err := s.service.Forwarder.Caller(ctx)
		s.Require().NoError(err)
		s.Require().Equal(rotated, caller)
	})

	s.Step("Step 3: the previous caller is rejected", func(ctx context.Context) {
		receipt, err := s.service.Forwarder.ForwardCall(ctx, domain.TxOpts{From: initial}, s.service.Committee.Address(), setMembers)
		s.Require().ErrorIs(err, errors.ErrUnauthorizedSender)
		s.Require().Equal("Owner#forwardCall: UNAUTHORIZED_SENDER", receipt.RevertReason)

		isMember, err := s.service.IsMember(ctx, newMember)
		s.Require().NoError(err)
		s.Require().False(isMember)
	})

	s.Step("Step 4: the owner still forwards", func(ctx context.Context) {
		receipt, err := s.service.Forwarder.ForwardCall(ctx, domain.TxOpts{From: owner}, s.service.Committee.Address(), setMembers)
		s.Require().NoError(err)
		s.Require().True(receipt.Succeeded())

		isMember, err := s.service.IsMember(ctx, newMember)
		s.Require().NoError(err)
		s.Require().True(isMember)
	})

	s.Step("Step 5: the rotation is in the persisted history", func(ctx context.Context) {
		s.Flush()
		events, err := s.service.Forwarder.FilterCallerSet(s.Logs, 0)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Require().Equal(initial, events[0].OldCaller)
		s.Require().Equal(rotated, events[0].NewCaller)

		projected, ok := s.Governance.Caller(s.service.Forwarder.Address())
		s.Require().True(ok)
		s.Require().Equal(rotated, projected)
		committeeOwner, ok := s.Governance.Owner(s.service.Committee.Address())
		s.Require().True(ok)
		s.Require().Equal(s.service.Forwarder.Address(), committeeOwner)
	})
}

func (s *testGovernanceSuite) TestMembershipThroughForwarder() {
	s.Step("Step 1: committee ownership belongs to the forwarder", func(ctx context.Context) {
		committeeOwner, err := s.service.Committee.Owner(ctx)
		s.Require().NoError(err)
		s.Require().Equal(s.service.Forwarder.Address(), committeeOwner)

		// the former owner lost direct control
		_, err = s.service.Committee.SetMembers(ctx, domain.TxOpts{From: owner}, []common.Address{newMember}, []bool{true})
		s.Require().ErrorIs(err, errors.ErrUnauthorized)
	})

	s.Step("Step 2: an unrelated identity cannot relay", func(ctx context.Context) {
		_, err := s.service.SetMembers(ctx, domain.TxOpts{From: stranger}, []common.Address{stranger}, []bool{true})
		s.Require().ErrorIs(err, errors.ErrUnauthorizedSender)

		isMember, err := s.service.IsMember(ctx, stranger)
		s.Require().NoError(err)
		s.Require().False(isMember)
	})

	s.Step("Step 3: the designated caller relays a membership change", func(ctx context.Context) {
		receipt, err := s.service.SetMembers(ctx, domain.TxOpts{From: initial}, []common.Address{newMember}, []bool{true})
		s.Require().NoError(err)

		result, err := forwarder.UnpackForwardResult(receipt.ReturnData)
		s.Require().NoError(err)
		s.Require().Empty(result)

		isMember, err := s.service.IsMember(ctx, newMember)
		s.Require().NoError(err)
		s.Require().True(isMember)
	})

	s.Step("Step 4: a target failure surfaces its own reason", func(ctx context.Context) {
		receipt, err := s.service.SetMembers(ctx, domain.TxOpts{From: initial}, []common.Address{newMember}, []bool{false, true})
		s.Require().ErrorIs(err, errors.ErrRelayFailure)
		s.Require().ErrorIs(err, errors.ErrLengthMismatch)
		s.Require().Equal("Committee#setMembers: LENGTH_MISMATCH", receipt.RevertReason)

		isMember, err := s.service.IsMember(ctx, newMember)
		s.Require().NoError(err)
		s.Require().True(isMember)
	})
}
