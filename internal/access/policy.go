// Package access centralizes role and relationship checks. Every handler and
// engine asks the Policy instead of inspecting roles directly.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

// Directory answers enrollment questions for the policy.
type Directory interface {
	IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
	// IsTaughtBy reports whether the student is enrolled in any course the instructor teaches.
	IsTaughtBy(ctx context.Context, studentID, instructorID uuid.UUID) (bool, error)
}

// Policy evaluates named access predicates.
type Policy struct {
	dir Directory
}

// NewPolicy creates a policy backed by dir.
func NewPolicy(dir Directory) *Policy {
	return &Policy{dir: dir}
}

// IsAdmin reports whether p is a platform administrator.
func IsAdmin(p Principal) bool {
	return p.Role == models.RoleAdmin
}

// IsInstructor reports whether p has the instructor role.
func IsInstructor(p Principal) bool {
	return p.Role == models.RoleInstructor
}

// IsPrivileged reports whether p may grade and review other users' work.
func IsPrivileged(p Principal) bool {
	return IsAdmin(p) || IsInstructor(p)
}

// InstructorOf reports whether p teaches the course owned by instructorID.
func InstructorOf(p Principal, instructorID uuid.UUID) bool {
	return IsInstructor(p) && p.UserID == instructorID
}

// CanManageCourse reports whether p may change a course and its content.
func CanManageCourse(p Principal, instructorID uuid.UUID) bool {
	return IsAdmin(p) || InstructorOf(p, instructorID)
}

// EnrolledIn reports whether p is enrolled in the course.
func (pol *Policy) EnrolledIn(ctx context.Context, p Principal, courseID uuid.UUID) (bool, error) {
	return pol.dir.IsEnrolled(ctx, courseID, p.UserID)
}

// CanViewCourse reports whether p may see a course and its quizzes.
func (pol *Policy) CanViewCourse(ctx context.Context, p Principal, courseID, instructorID uuid.UUID) (bool, error) {
	if CanManageCourse(p, instructorID) {
		return true, nil
	}
	if IsInstructor(p) {
		return false, nil
	}
	return pol.EnrolledIn(ctx, p, courseID)
}

// CanViewUser reports whether p may see the identity card of target.
// Admins, instructors and the user themself always can; students may look up
// instructors of courses they are enrolled in.
func (pol *Policy) CanViewUser(ctx context.Context, p Principal, target *models.User) (bool, error) {
	if IsPrivileged(p) || p.UserID == target.ID {
		return true, nil
	}
	if target.Role != models.RoleInstructor {
		return false, nil
	}
	return pol.dir.IsTaughtBy(ctx, p.UserID, target.ID)
}
