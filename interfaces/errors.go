package interfaces

import "errors"

// Ledger operation errors. Operations report exactly one of these (possibly
// wrapped) and never partially apply: a failed call leaves state and the
// event log untouched.
var (
	// ErrUnauthorized is returned when a role precondition fails.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced course, enrollment or record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a course id is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyFinalized is returned when a mutation targets a finalized
	// record. Finalization is terminal; nothing resets it.
	ErrAlreadyFinalized = errors.New("record already finalized")

	// ErrInvalidArgument is returned for an empty course name, a zero
	// address, an out-of-range attendance status or a negative amount.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRegistered is returned when enrolling a student the registrar
	// has not registered.
	ErrNotRegistered = errors.New("student not registered")

	// ErrInsufficientPayment is returned when a verification payment does
	// not exactly match the current fee. Overpayment rejects too; there are
	// no partial refunds.
	ErrInsufficientPayment = errors.New("payment does not match verification fee")

	// ErrInsufficientBalance is returned when withdrawing with nothing
	// escrowed.
	ErrInsufficientBalance = errors.New("no escrowed fees to withdraw")
)
