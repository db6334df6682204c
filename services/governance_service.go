package services

import (
	"context"
	"fmt"
	"log/slog"
	"relay-lab/contract"
	"relay-lab/contracts/committee"
	"relay-lab/contracts/forwarder"
	"relay-lab/domain"

	"github.com/ethereum/go-ethereum/common"
)

type IGovernanceService interface {
	Setup(ctx context.Context, owner, caller common.Address, members []common.Address) error
	SetMembers(ctx context.Context, opts domain.TxOpts, members []common.Address, values []bool) (*domain.Receipt, error)
	RotateCaller(ctx context.Context, opts domain.TxOpts, newCaller common.Address) (*domain.Receipt, error)
	IsMember(ctx context.Context, who common.Address) (bool, error)
}

// GovernanceService puts a committee under the control of a forwarder and
// drives membership changes through it.
type GovernanceService struct {
	backend   contract.Backend
	log       *slog.Logger
	Committee *committee.Client
	Forwarder *forwarder.Client
}

func NewGovernanceService(backend contract.Backend, log *slog.Logger) *GovernanceService {
	return &GovernanceService{backend: backend, log: log}
}

// Setup deploys a committee owned by owner, a forwarder owned by owner with
// caller as designated caller, then hands the committee to the forwarder.
func (s *GovernanceService) Setup(ctx context.Context, owner, caller common.Address, members []common.Address) error {
	opts := domain.TxOpts{From: owner}

	committeeClient, _, err := committee.Deploy(ctx, s.backend, opts, owner, members)
	if err != nil {
		return fmt.Errorf("committee deployment failed: %w", err)
	}
	forwarderClient, _, err := forwarder.Deploy(ctx, s.backend, opts, owner, caller)
	if err != nil {
		return fmt.Errorf("forwarder deployment failed: %w", err)
	}
	if _, err = committeeClient.TransferOwnership(ctx, opts, forwarderClient.Address()); err != nil {
		return fmt.Errorf("committee ownership transfer failed: %w", err)
	}

	s.Committee = committeeClient
	s.Forwarder = forwarderClient
	s.log.Info("Governance ready",
		"committee", committeeClient.Address().Hex(),
		"forwarder", forwarderClient.Address().Hex(),
		"owner", owner.Hex(), "caller", caller.Hex())
	return nil
}

// SetMembers relays a setMembers call through the forwarder on behalf of
// opts.From.
func (s *GovernanceService) SetMembers(ctx context.Context, opts domain.TxOpts, members []common.Address, values []bool) (*domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	payload, err := committee.PackSetMembers(members, values)
	if err != nil {
		return nil, err
	}
	return s.Forwarder.ForwardCall(ctx, opts, s.Committee.Address(), payload)
}

func (s *GovernanceService) RotateCaller(ctx context.Context, opts domain.TxOpts, newCaller common.Address) (*domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Forwarder.SetCaller(ctx, opts, newCaller)
}

func (s *GovernanceService) IsMember(ctx context.Context, who common.Address) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.Committee.Members(ctx, who)
}

func (s *GovernanceService) ready() error {
	if s.Committee == nil || s.Forwarder == nil {
		return fmt.Errorf("governance not set up")
	}
	return nil
}
