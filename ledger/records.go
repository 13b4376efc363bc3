package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// IssueGrade sets the grade and proof reference for an enrolled pair. Only
// the teacher assigned to the course may call it, and only while that
// teacher still holds RoleTeacher. The record stays mutable until it is
// finalized: re-issuing overwrites the grade and proof reference in place.
func (l *Ledger) IssueGrade(caller, student common.Address, id interfaces.CourseID, grade, proofRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleTeacher, caller) {
		return fmt.Errorf("%w: caller %s is not a teacher", interfaces.ErrUnauthorized, caller.Hex())
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
	if rec := l.records[key]; rec != nil && rec.Finalized {
		return fmt.Errorf("%w: record for student %s course %d", interfaces.ErrAlreadyFinalized, student.Hex(), id)
	}

	if err := l.emit(interfaces.Event{
		Type:     interfaces.EventGradeIssued,
		Caller:   caller,
		Student:  student,
		CourseID: id,
		Grade:    grade,
		ProofRef: proofRef,
	}); err != nil {
		return err
	}

	l.records[key] = &interfaces.Record{Grade: grade, ProofRef: proofRef}
	l.log.Info("Grade issued", "student", student.Hex(), "courseID", uint64(id))
	return nil
}

// FinalizeRecord freezes an issued record. Registrar only. The transition is
// terminal: no operation ever clears the finalized flag, and the grade and
// proof reference read back unchanged forever after.
func (l *Ledger) FinalizeRecord(caller, student common.Address, id interfaces.CourseID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	key := pairKey{student, id}
	rec := l.records[key]
	if rec == nil {
		return fmt.Errorf("%w: no record issued for student %s course %d", interfaces.ErrNotFound, student.Hex(), id)
	}
	if rec.Finalized {
		return fmt.Errorf("%w: record for student %s course %d", interfaces.ErrAlreadyFinalized, student.Hex(), id)
	}

	if err := l.emit(interfaces.Event{
		Type:     interfaces.EventRecordFinalized,
		Caller:   caller,
		Student:  student,
		CourseID: id,
		Grade:    rec.Grade,
	}); err != nil {
		return err
	}

	rec.Finalized = true
	l.log.Info("Record finalized", "student", student.Hex(), "courseID", uint64(id))
	return nil
}

// ViewRecord returns the record for the pair. Readable by the student
// themself, any registrar and the course's assigned teacher. A pair with no
// issued record fails with ErrNotFound so callers can tell "does not exist"
// apart from an empty grade.
func (l *Ledger) ViewRecord(caller, student common.Address, id interfaces.CourseID) (interfaces.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.canReadPairLocked(caller, student, id); err != nil {
		return interfaces.Record{}, err
	}
	rec := l.records[pairKey{student, id}]
	if rec == nil {
		return interfaces.Record{}, fmt.Errorf("%w: no record for student %s course %d", interfaces.ErrNotFound, student.Hex(), id)
	}
	return *rec, nil
}

// canReadPairLocked enforces the shared readability policy for records and
// attendance: the subject student, a registrar, or the assigned teacher.
func (l *Ledger) canReadPairLocked(caller, student common.Address, id interfaces.CourseID) error {
	if caller == student {
		return nil
	}
	if l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return nil
	}
	if course, ok := l.courses[id]; ok && course.Teacher == caller && l.hasRoleLocked(interfaces.RoleTeacher, caller) {
		return nil
	}
	return fmt.Errorf("%w: caller %s may not read records of student %s", interfaces.ErrUnauthorized, caller.Hex(), student.Hex())
}
