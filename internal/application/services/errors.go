package services

import "errors"

var (
	// ErrForbidden indicates the caller does not own the resource or
	// is not the party allowed to perform the transition
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrInvalidTransition indicates the resource is not in a state
	// the requested transition applies to
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInsufficientFunds indicates the sender's balance does not
	// cover the requested amount
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTarget indicates a request or transfer aimed at oneself
	ErrSelfTarget = errors.New("cannot target yourself")
)
