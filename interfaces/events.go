package interfaces

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names the durable record a mutating operation emits.
type EventType string

const (
	EventCourseCreated      EventType = "course-created"
	EventStudentRegistered  EventType = "student-registered"
	EventStudentEnrolled    EventType = "student-enrolled"
	EventRoleGranted        EventType = "role-granted"
	EventRoleRevoked        EventType = "role-revoked"
	EventFeeChanged         EventType = "fee-changed"
	EventGradeIssued        EventType = "grade-issued"
	EventRecordFinalized    EventType = "record-finalized"
	EventAttendanceMarked   EventType = "attendance-marked"
	EventTranscriptVerified EventType = "transcript-verified"
	EventFeesWithdrawn      EventType = "fees-withdrawn"
)

// Event is one entry in the append-only event log. The ledger fills every
// field relevant to the operation and leaves the rest zero; the sink assigns
// the sequence number.
//
// Sequence numbers are strictly increasing and gap-free within a log. Since
// all mutating operations are serialized, the sequence is also the total
// order of mutations.
type Event struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Caller   common.Address `json:"caller"`
	Account  common.Address `json:"account"`
	Student  common.Address `json:"student"`
	Teacher  common.Address `json:"teacher"`
	Treasury common.Address `json:"treasury"`

	CourseID   CourseID `json:"course_id,omitempty"`
	CourseName string   `json:"course_name,omitempty"`
	Role       string   `json:"role,omitempty"`
	Grade      string   `json:"grade,omitempty"`
	ProofRef   string   `json:"proof_ref,omitempty"`
	Status     string   `json:"status,omitempty"`
	Date       int64    `json:"date,omitempty"`
	Amount     *big.Int `json:"amount,omitempty"`
}

// EventSink accepts events for durable storage.
type EventSink interface {
	// Append stores the event and returns its assigned sequence number.
	// Append must be atomic: either the event is durably recorded or an
	// error is returned and nothing is written.
	Append(ev Event) (uint64, error)
}

// EventReader serves the event log to external observers.
type EventReader interface {
	// EventsSince returns all events with Seq >= from, in sequence order.
	EventsSince(from uint64) ([]Event, error)

	// LastSeq returns the highest assigned sequence number, or 0 when the
	// log is empty.
	LastSeq() uint64
}

// EventLog combines the write and read halves of the durable log.
type EventLog interface {
	EventSink
	EventReader

	// Close releases underlying resources. Append after Close errors.
	Close() error
}
