package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// MarkAttendance appends one dated status entry for an enrolled pair. Only
// the course's assigned teacher may call it. The log is strictly
// append-only: same-date entries accumulate, corrections are additive, and
// no entry is ever edited or removed.
func (l *Ledger) MarkAttendance(caller, student common.Address, id interfaces.CourseID, date int64, status interfaces.AttendanceStatus, proofRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleTeacher, caller) {
		return fmt.Errorf("%w: caller %s is not a teacher", interfaces.ErrUnauthorized, caller.Hex())
	}
	if !status.Valid() {
		return fmt.Errorf("%w: attendance status %d out of range", interfaces.ErrInvalidArgument, int(status))
	}
	course, ok := l.courses[id]
	if !ok {
		return fmt.Errorf("%w: course %d", interfaces.ErrNotFound, id)
	}
	if course.Teacher != caller {
		return fmt.Errorf("%w: caller %s is not assigned to course %d", interfaces.ErrUnauthorized, caller.Hex(), id)
	}
	key := pairKey{student, id}
	if !l.enrollments[key] {
		return fmt.Errorf("%w: student %s is not enrolled in course %d", interfaces.ErrNotFound, student.Hex(), id)
	}

	if err := l.emit(interfaces.Event{
		Type:     interfaces.EventAttendanceMarked,
		Caller:   caller,
		Student:  student,
		CourseID: id,
		Status:   status.String(),
		Date:     date,
		ProofRef: proofRef,
	}); err != nil {
		return err
	}

	l.attendance[key] = append(l.attendance[key], interfaces.AttendanceEntry{
		Date:     date,
		Status:   status,
		ProofRef: proofRef,
	})
	return nil
}

// ViewAttendance returns the pair's entries in insertion order. Insertion
// order is the order of MarkAttendance calls, not date order: a teacher may
// backfill a past date after later dates already exist, and callers must not
// assume the two coincide. Same readability policy as ViewRecord.
func (l *Ledger) ViewAttendance(caller, student common.Address, id interfaces.CourseID) ([]interfaces.AttendanceEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.canReadPairLocked(caller, student, id); err != nil {
		return nil, err
	}

	entries := l.attendance[pairKey{student, id}]
	out := make([]interfaces.AttendanceEntry, len(entries))
	copy(out, entries)
	return out, nil
}
