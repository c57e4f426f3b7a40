package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a unit of teaching owned by one instructor.
type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID uuid.UUID `json:"instructor"`
	CreatedAt    time.Time `json:"created_at"`
}

// Enrollment links a student to a course along with their progress.
type Enrollment struct {
	Student         UserInfo  `json:"student"`
	PercentComplete float64   `json:"percent_complete"`
	Completed       bool      `json:"completed"`
	EnrolledAt      time.Time `json:"enrolled_at"`
}

// Module is a piece of course content with an optional image attachment.
type Module struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageKey  *string   `json:"image_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
