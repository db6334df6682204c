package errors

import (
	goerrors "errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Revert reasons are part of the wire contract: clients match on them.
var (
	ErrUnauthorized       = fmt.Errorf("Ownable: caller is not the owner")
	ErrZeroOwner          = fmt.Errorf("Ownable: new owner is the zero address")
	ErrUnauthorizedSender = fmt.Errorf("Owner#forwardCall: UNAUTHORIZED_SENDER")
	ErrLengthMismatch     = fmt.Errorf("Committee#setMembers: LENGTH_MISMATCH")
	ErrRelayFailure       = fmt.Errorf("relayed call failed")
)

var (
	ErrUnknownMethod       = fmt.Errorf("unknown method selector")
	ErrNonPayable          = fmt.Errorf("non-payable method received value")
	ErrInvalidInput        = fmt.Errorf("invalid call input")
	ErrWriteProtection     = fmt.Errorf("write protection")
	ErrCallDepth           = fmt.Errorf("max call depth exceeded")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance for transfer")
	ErrCodeNotRegistered   = fmt.Errorf("contract code not registered")
	ErrContractCollision   = fmt.Errorf("contract address collision")
	ErrUnknownEvent        = fmt.Errorf("log does not match event")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
)

// revertSelector is the 4-byte selector of Error(string).
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var revertArgs = func() abi.Arguments {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: stringType}}
}()

// RevertError is the failure of a contract frame. Reason and Data always hold
// the innermost revert so that relays surface it unchanged, while the wrapped
// chain keeps every sentinel for errors.Is.
type RevertError struct {
	Reason string
	Data   []byte
	cause  error
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error {
	return e.cause
}

// NewRevert converts a contract failure into a RevertError. If err already
// carries a revert somewhere in its chain, that revert's reason and data are
// kept verbatim.
func NewRevert(err error) *RevertError {
	if err == nil {
		return nil
	}
	var inner *RevertError
	if goerrors.As(err, &inner) {
		return &RevertError{Reason: inner.Reason, Data: inner.Data, cause: err}
	}
	return &RevertError{Reason: err.Error(), Data: EncodeRevert(err.Error()), cause: err}
}

// EncodeRevert builds Error(string) revert data.
func EncodeRevert(reason string) []byte {
	packed, err := revertArgs.Pack(reason)
	if err != nil {
		return nil
	}
	return append(append([]byte{}, revertSelector...), packed...)
}

// DecodeRevert extracts the reason from Error(string) revert data.
func DecodeRevert(data []byte) (string, error) {
	return abi.UnpackRevert(data)
}
