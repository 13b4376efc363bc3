package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// AddCourse creates a course and assigns its teacher. Registrar only.
// The id is immutable once assigned; a duplicate id fails with
// ErrAlreadyExists. The assigned teacher is granted RoleTeacher within the
// same atomic operation.
func (l *Ledger) AddCourse(caller common.Address, id interfaces.CourseID, name string, teacher common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: course name must not be empty", interfaces.ErrInvalidArgument)
	}
	if teacher == (common.Address{}) {
		return fmt.Errorf("%w: teacher address must not be zero", interfaces.ErrInvalidArgument)
	}
	if _, ok := l.courses[id]; ok {
		return fmt.Errorf("%w: course %d", interfaces.ErrAlreadyExists, id)
	}

	if err := l.emit(interfaces.Event{
		Type:       interfaces.EventCourseCreated,
		Caller:     caller,
		Teacher:    teacher,
		CourseID:   id,
		CourseName: name,
	}); err != nil {
		return err
	}

	l.courses[id] = interfaces.Course{ID: id, Name: name, Teacher: teacher}
	l.grantLocked(interfaces.RoleTeacher, teacher)
	l.log.Info("Course created", "courseID", uint64(id), "name", name, "teacher", teacher.Hex())
	return nil
}

// GetCourse returns the course and whether it exists. The boolean
// distinguishes a missing course from zero-valued fields.
func (l *Ledger) GetCourse(id interfaces.CourseID) (interfaces.Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	course, ok := l.courses[id]
	return course, ok
}

// RegisterStudent marks the address as a known student by granting
// RoleStudent. Registrar only. Re-registering an already registered address
// succeeds, so client retries are safe.
func (l *Ledger) RegisterStudent(caller, student common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if student == (common.Address{}) {
		return fmt.Errorf("%w: student address must not be zero", interfaces.ErrInvalidArgument)
	}

	if err := l.emit(interfaces.Event{
		Type:    interfaces.EventStudentRegistered,
		Caller:  caller,
		Student: student,
	}); err != nil {
		return err
	}

	l.grantLocked(interfaces.RoleStudent, student)
	return nil
}

// EnrollInCourse enrolls a registered student in an existing course.
// Registrar only. Enrolling an already enrolled pair succeeds without
// creating a duplicate relation.
func (l *Ledger) EnrollInCourse(caller, student common.Address, id interfaces.CourseID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if _, ok := l.courses[id]; !ok {
		return fmt.Errorf("%w: course %d", interfaces.ErrNotFound, id)
	}
	if !l.hasRoleLocked(interfaces.RoleStudent, student) {
		return fmt.Errorf("%w: %s", interfaces.ErrNotRegistered, student.Hex())
	}

	if err := l.emit(interfaces.Event{
		Type:     interfaces.EventStudentEnrolled,
		Caller:   caller,
		Student:  student,
		CourseID: id,
	}); err != nil {
		return err
	}

	l.enrollments[pairKey{student, id}] = true
	return nil
}

// IsStudentEnrolled reports whether the pair is enrolled.
func (l *Ledger) IsStudentEnrolled(student common.Address, id interfaces.CourseID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enrollments[pairKey{student, id}]
}
