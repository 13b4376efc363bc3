package api

import (
	"fmt"
	"math/big"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// CallerAddressHeader carries the authenticated caller address on every
// request. The identity layer in front of the service sets it; the server
// trusts it.
const CallerAddressHeader = "X-Ledger-Caller-Address"

// AddCourseRequest creates a course and assigns its teacher.
type AddCourseRequest struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
}

// CourseResponse is the directory view of a course.
type CourseResponse struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
}

// EnrollRequest enrolls a registered student in a course.
type EnrollRequest struct {
	Student  string `json:"student"`
	CourseID uint64 `json:"course_id"`
}

// RoleRequest grants or revokes a role on an address. Role is one of
// "registrar", "teacher", "student".
type RoleRequest struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

// SetFeeRequest replaces the verification fee. Fee is a decimal string in
// wei.
type SetFeeRequest struct {
	Fee string `json:"fee"`
}

// FeeResponse reports the current verification fee.
type FeeResponse struct {
	Fee string `json:"fee"`
}

// WithdrawResponse reports a completed escrow withdrawal.
type WithdrawResponse struct {
	Amount   string `json:"amount"`
	Treasury string `json:"treasury"`
}

// BalanceResponse reports the current escrowed balance.
type BalanceResponse struct {
	Balance  string `json:"balance"`
	Treasury string `json:"treasury"`
}

// IssueGradeRequest sets or overwrites a grade for an enrolled pair.
type IssueGradeRequest struct {
	Student  string `json:"student"`
	CourseID uint64 `json:"course_id"`
	Grade    string `json:"grade"`
	ProofRef string `json:"proof_ref,omitempty"`
}

// MarkAttendanceRequest appends one attendance entry. Date is a Unix
// timestamp and Status one of "present", "absent", "excused".
type MarkAttendanceRequest struct {
	Student  string `json:"student"`
	CourseID uint64 `json:"course_id"`
	Date     int64  `json:"date"`
	Status   string `json:"status"`
	ProofRef string `json:"proof_ref,omitempty"`
}

// RecordResponse is a grade record as served to authorized readers and
// paying verifiers.
type RecordResponse struct {
	Grade     string `json:"grade"`
	ProofRef  string `json:"proof_ref,omitempty"`
	Finalized bool   `json:"finalized"`
}

// RecordFromLedger converts a ledger record to its wire form.
func RecordFromLedger(rec interfaces.Record) RecordResponse {
	return RecordResponse{
		Grade:     rec.Grade,
		ProofRef:  rec.ProofRef,
		Finalized: rec.Finalized,
	}
}

// AttendanceResponse lists a pair's attendance entries in insertion order.
type AttendanceResponse struct {
	Entries []interfaces.AttendanceEntry `json:"entries"`
}

// EnrolledResponse reports an enrollment lookup.
type EnrolledResponse struct {
	Enrolled bool `json:"enrolled"`
}

// HasRoleResponse reports a role lookup.
type HasRoleResponse struct {
	HasRole bool `json:"has_role"`
}

// VerifyRequest pays for verification of a finalized record. Payment is a
// decimal string in wei and must match the current fee exactly.
type VerifyRequest struct {
	Student  string `json:"student"`
	CourseID uint64 `json:"course_id"`
	Payment  string `json:"payment"`
}

// EventsResponse is a tail of the durable event log.
type EventsResponse struct {
	Events  []interfaces.Event `json:"events"`
	LastSeq uint64             `json:"last_seq"`
}

// UploadAttachmentResponse returns the content-addressed proof reference
// for an uploaded attachment.
type UploadAttachmentResponse struct {
	ProofRef string `json:"proof_ref"`
}

// StatusResponse is the generic acknowledgement for mutations without a
// richer payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseAmount parses a non-empty decimal wei string.
func ParseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount %q", interfaces.ErrInvalidArgument, s)
	}
	return amount, nil
}
