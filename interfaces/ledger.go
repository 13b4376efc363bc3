package interfaces

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferFunc settles an outbound payment from the ledger to an external
// address. The ledger invokes it exactly once per successful withdrawal,
// after the escrowed balance has already been zeroed, so an implementation
// that calls back into the ledger observes the post-withdrawal state.
type TransferFunc func(to common.Address, amount *big.Int) error

// Ledger is the permissioned academic record ledger. All mutating operations
// are serialized with respect to each other; each call is atomic: it either
// commits all of its state changes plus exactly one event, or none.
//
// The caller address on every method is supplied by the identity layer and
// is treated as authenticated. Role preconditions are checked first; a
// violation fails with ErrUnauthorized and performs no state change.
type Ledger interface {
	// HasRole reports whether addr holds the role. Pure lookup.
	HasRole(role Role, addr common.Address) bool

	// GrantRole grants role to addr. Registrar only. Granting an already
	// held role is a no-op success.
	GrantRole(caller common.Address, role Role, addr common.Address) error

	// RevokeRole removes role from addr. Registrar only.
	RevokeRole(caller common.Address, role Role, addr common.Address) error

	// AddCourse creates a course and assigns its teacher. Registrar only.
	// Fails with ErrAlreadyExists for a duplicate id and ErrInvalidArgument
	// for an empty name or zero teacher address. The teacher is granted
	// RoleTeacher as part of the same operation.
	AddCourse(caller common.Address, id CourseID, name string, teacher common.Address) error

	// GetCourse returns the course and whether it exists. Pure read.
	GetCourse(id CourseID) (Course, bool)

	// RegisterStudent marks student as a known student. Registrar only.
	// Idempotent: re-registering is a success, so client retries are safe.
	RegisterStudent(caller, student common.Address) error

	// EnrollInCourse enrolls a registered student in an existing course.
	// Registrar only. Fails with ErrNotFound for a missing course and
	// ErrNotRegistered for an unregistered student. Idempotent for an
	// already enrolled pair.
	EnrollInCourse(caller, student common.Address, id CourseID) error

	// IsStudentEnrolled reports enrollment. Pure read.
	IsStudentEnrolled(student common.Address, id CourseID) bool

	// IssueGrade sets or overwrites the grade for an enrolled pair. Only the
	// teacher assigned to the course may call it. Re-issue is permitted
	// until the record is finalized; afterwards it fails with
	// ErrAlreadyFinalized.
	IssueGrade(caller, student common.Address, id CourseID, grade, proofRef string) error

	// FinalizeRecord freezes an issued record. Registrar only. This is a
	// one-way terminal transition.
	FinalizeRecord(caller, student common.Address, id CourseID) error

	// ViewRecord returns the record for the pair. Readable by the student
	// themself, the registrar and the assigned teacher; anyone else fails
	// with ErrUnauthorized. A pair with no issued record fails with
	// ErrNotFound rather than returning zero-valued fields.
	ViewRecord(caller, student common.Address, id CourseID) (Record, error)

	// MarkAttendance appends one attendance entry for an enrolled pair.
	// Only the assigned teacher may call it. Entries are never merged,
	// deduplicated or overwritten.
	MarkAttendance(caller, student common.Address, id CourseID, date int64, status AttendanceStatus, proofRef string) error

	// ViewAttendance returns the entries for the pair in insertion order,
	// which is not necessarily date order since teachers may backfill.
	// Same readability policy as ViewRecord.
	ViewAttendance(caller, student common.Address, id CourseID) ([]AttendanceEntry, error)

	// SetVerificationFee replaces the fee outright. Registrar only. Takes
	// effect for all subsequent verification payments.
	SetVerificationFee(caller common.Address, amount *big.Int) error

	// VerificationFee returns the current fee. Pure read.
	VerificationFee() *big.Int

	// VerifyTranscript verifies a finalized record against an exact-fee
	// payment from any caller. Payment mismatch fails with
	// ErrInsufficientPayment; a pair without a finalized record fails with
	// ErrNotFound. On success the payment is escrowed and the verified
	// record is returned to the caller.
	VerifyTranscript(caller, student common.Address, id CourseID, payment *big.Int) (Record, error)

	// WithdrawFees drains the entire escrowed balance to the treasury.
	// Registrar only. Fails with ErrInsufficientBalance when the balance is
	// zero. Returns the transferred amount.
	WithdrawFees(caller common.Address) (*big.Int, error)

	// EscrowedBalance returns the current escrowed balance. Pure read.
	EscrowedBalance() *big.Int

	// Treasury returns the fixed treasury address set at construction.
	Treasury() common.Address
}
