package ledger

import "errors"

// ErrorCode identifies why a ledger operation was refused. The string values
// are part of the external contract and must not change.
type ErrorCode string

const (
	ErrNotFound          ErrorCode = "not-found"
	ErrOwnerOnly         ErrorCode = "owner-only"
	ErrUnauthorized      ErrorCode = "unauthorized"
	ErrInsufficientFunds ErrorCode = "insufficient-funds"
)

// Error makes ErrorCode usable as a Go error inside transactions.
func (c ErrorCode) Error() string {
	return string(c)
}

// Result is the outcome descriptor returned by every state transition
type Result struct {
	Success bool      `json:"success"`
	Error   ErrorCode `json:"error,omitempty"`
}

// OK returns a successful result
func OK() Result {
	return Result{Success: true}
}

// Fail returns a failed result carrying code
func Fail(code ErrorCode) Result {
	return Result{Success: false, Error: code}
}

// Resolve turns the error returned by a transaction into a result. Error codes
// become failed results; any other error is returned unchanged.
func Resolve(err error) (Result, error) {
	if err == nil {
		return OK(), nil
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return Fail(code), nil
	}
	return Result{}, err
}
