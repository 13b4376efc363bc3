package interfaces

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role identifies a permission category. The value is the keccak256 hash of
// the role name, so role identifiers are stable across deployments and match
// what on-chain clients compute locally.
type Role [32]byte

// RoleFromName computes the role tag for a role name such as "REGISTRAR_ROLE".
func RoleFromName(name string) Role {
	return Role(crypto.Keccak256Hash([]byte(name)))
}

var (
	// RoleRegistrar can manage the directory, finalize records, set the
	// verification fee and withdraw escrowed fees.
	RoleRegistrar = RoleFromName("REGISTRAR_ROLE")

	// RoleTeacher can issue grades and mark attendance for the courses it is
	// assigned to.
	RoleTeacher = RoleFromName("TEACHER_ROLE")

	// RoleStudent marks an address as a registered student, which is a
	// precondition for enrollment. Students may read their own records.
	RoleStudent = RoleFromName("STUDENT_ROLE")
)

// String returns the human-readable role name for the well-known roles, or
// the hex tag otherwise.
func (r Role) String() string {
	switch r {
	case RoleRegistrar:
		return "registrar"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	default:
		return fmt.Sprintf("%x", r[:])
	}
}

// ParseRole resolves a role name ("registrar", "teacher", "student") to its
// tag. It also accepts the raw *_ROLE names used by on-chain clients.
func ParseRole(name string) (Role, error) {
	switch strings.ToLower(name) {
	case "registrar", "registrar_role":
		return RoleRegistrar, nil
	case "teacher", "teacher_role":
		return RoleTeacher, nil
	case "student", "student_role":
		return RoleStudent, nil
	default:
		return Role{}, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, name)
	}
}

// CourseID identifies a course. IDs are assigned once by the registrar and
// are immutable.
type CourseID uint64

// ParseCourseID parses a decimal course ID.
func ParseCourseID(s string) (CourseID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid course id %q", ErrInvalidArgument, s)
	}
	return CourseID(id), nil
}

// ParseAddress parses a hex-encoded 20-byte address, with or without the 0x
// prefix.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", ErrInvalidArgument, s)
	}
	return common.HexToAddress(s), nil
}

// Course holds the directory metadata for a single course.
type Course struct {
	ID      CourseID       `json:"id"`
	Name    string         `json:"name"`
	Teacher common.Address `json:"teacher"`
}

// Record is a grade record for one (student, course) pair. Once Finalized is
// set the grade and proof reference are frozen forever.
type Record struct {
	Grade     string `json:"grade"`
	ProofRef  string `json:"proof_ref"`
	Finalized bool   `json:"finalized"`
}

// AttendanceStatus enumerates the three attendance states. The numeric
// values match the original contract's enum ordering (Present == 0).
type AttendanceStatus int

const (
	StatusPresent AttendanceStatus = iota
	StatusAbsent
	StatusExcused
)

// Valid reports whether the status is inside the three-value enumeration.
func (s AttendanceStatus) Valid() bool {
	return s >= StatusPresent && s <= StatusExcused
}

// String returns the status name.
func (s AttendanceStatus) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusExcused:
		return "excused"
	default:
		return fmt.Sprintf("invalid(%d)", int(s))
	}
}

// ParseAttendanceStatus resolves a status name to its enum value.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch strings.ToLower(s) {
	case "present":
		return StatusPresent, nil
	case "absent":
		return StatusAbsent, nil
	case "excused":
		return StatusExcused, nil
	default:
		return 0, fmt.Errorf("%w: unknown attendance status %q", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler so statuses serialize as
// their names rather than bare integers.
func (s AttendanceStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New("attendance status out of range")
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AttendanceStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAttendanceStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AttendanceEntry is one dated attendance observation. Entries are
// append-only: a (student, course, date) triple may legitimately accumulate
// multiple entries, and corrections are additive records.
type AttendanceEntry struct {
	Date     int64            `json:"date"`
	Status   AttendanceStatus `json:"status"`
	ProofRef string           `json:"proof_ref"`
}
