package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

var (
	ErrNotFound    = errors.New("course not found")
	ErrNotEligible = errors.New("eligible student not found")
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
)

// Repository handles course and enrollment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a course repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `c.id, c.title, c.description, c.instructor_id, c.created_at`

func scanCourses(rows pgx.Rows) ([]models.Course, error) {
	defer rows.Close()
	list := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// List returns the courses p can see: everything for admins, owned courses for
// instructors, enrolled courses for students.
func (r *Repository) List(ctx context.Context, p access.Principal) ([]models.Course, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case access.IsAdmin(p):
		rows, err = r.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses c ORDER BY c.created_at DESC`)
	case access.IsInstructor(p):
		rows, err = r.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses c
			WHERE c.instructor_id = $1 ORDER BY c.created_at DESC`, p.UserID)
	default:
		rows, err = r.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses c
			JOIN enrollments e ON e.course_id = c.id
			WHERE e.user_id = $1 ORDER BY c.created_at DESC`, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return scanCourses(rows)
}

// Get returns a course by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a course.
func (r *Repository) Create(ctx context.Context, c *models.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, description, instructor_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.Title, c.Description, c.InstructorID).Scan(&c.ID, &c.CreatedAt)
}

// Update changes a course's title and description.
func (r *Repository) Update(ctx context.Context, c *models.Course) error {
	tag, err := r.pool.Exec(ctx, `UPDATE courses SET title = $2, description = $3 WHERE id = $1`,
		c.ID, c.Title, c.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a course and everything hanging off it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnrolledStudents returns the course's enrollments with student cards.
func (r *Repository) EnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.name, u.surname, u.role, e.percent_complete, e.completed, e.created_at
		FROM enrollments e JOIN users u ON u.id = e.user_id
		WHERE e.course_id = $1 ORDER BY u.surname, u.name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Enrollment{}
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.Student.ID, &e.Student.Name, &e.Student.Surname, &e.Student.Role,
			&e.PercentComplete, &e.Completed, &e.EnrolledAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// EligibleStudents returns active students not yet enrolled in the course.
func (r *Repository) EligibleStudents(ctx context.Context, courseID uuid.UUID) ([]models.UserInfo, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.name, u.surname, u.role FROM users u
		WHERE u.is_active AND u.role = $2
		AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = $1 AND e.user_id = u.id)
		ORDER BY u.surname, u.name`, courseID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.UserInfo{}
	for rows.Next() {
		var u models.UserInfo
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Role); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Enroll adds an active student to the course. created is false when the
// student was already enrolled.
func (r *Repository) Enroll(ctx context.Context, courseID, studentID uuid.UUID) (created bool, err error) {
	var eligible bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active AND role = $2)`,
		studentID, models.RoleStudent).Scan(&eligible)
	if err != nil {
		return false, err
	}
	if !eligible {
		return false, ErrNotEligible
	}
	tag, err := r.pool.Exec(ctx, `INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING`, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("enroll: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Unenroll removes a student from the course.
func (r *Repository) Unenroll(ctx context.Context, courseID, studentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1 AND user_id = $2`, courseID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// IsEnrolled reports whether the user is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = $1 AND user_id = $2)`,
		courseID, userID).Scan(&ok)
	return ok, err
}

// IsTaughtBy reports whether the student is enrolled in any course the instructor teaches.
func (r *Repository) IsTaughtBy(ctx context.Context, studentID, instructorID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1 AND c.instructor_id = $2)`, studentID, instructorID).Scan(&ok)
	return ok, err
}
