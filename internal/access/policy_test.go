package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

type fakeDirectory struct {
	enrolled map[[2]uuid.UUID]bool // course, user
	taught   map[[2]uuid.UUID]bool // student, instructor
}

func (d *fakeDirectory) IsEnrolled(_ context.Context, courseID, userID uuid.UUID) (bool, error) {
	return d.enrolled[[2]uuid.UUID{courseID, userID}], nil
}

func (d *fakeDirectory) IsTaughtBy(_ context.Context, studentID, instructorID uuid.UUID) (bool, error) {
	return d.taught[[2]uuid.UUID{studentID, instructorID}], nil
}

func TestRolePredicates(t *testing.T) {
	admin := Principal{UserID: uuid.New(), Role: models.RoleAdmin}
	teacher := Principal{UserID: uuid.New(), Role: models.RoleInstructor}
	student := Principal{UserID: uuid.New(), Role: models.RoleStudent}

	assert.True(t, IsPrivileged(admin))
	assert.True(t, IsPrivileged(teacher))
	assert.False(t, IsPrivileged(student))

	assert.True(t, InstructorOf(teacher, teacher.UserID))
	assert.False(t, InstructorOf(teacher, uuid.New()))
	assert.False(t, InstructorOf(admin, admin.UserID))

	assert.True(t, CanManageCourse(admin, uuid.New()))
	assert.True(t, CanManageCourse(teacher, teacher.UserID))
	assert.False(t, CanManageCourse(student, student.UserID))
}

func TestCanViewCourse(t *testing.T) {
	ctx := context.Background()
	courseID := uuid.New()
	owner := Principal{UserID: uuid.New(), Role: models.RoleInstructor}
	other := Principal{UserID: uuid.New(), Role: models.RoleInstructor}
	enrolled := Principal{UserID: uuid.New(), Role: models.RoleStudent}
	stranger := Principal{UserID: uuid.New(), Role: models.RoleStudent}

	pol := NewPolicy(&fakeDirectory{enrolled: map[[2]uuid.UUID]bool{{courseID, enrolled.UserID}: true}})

	for _, tc := range []struct {
		name string
		p    Principal
		want bool
	}{
		{"owner", owner, true},
		{"other instructor", other, false},
		{"enrolled student", enrolled, true},
		{"stranger", stranger, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := pol.CanViewCourse(ctx, tc.p, courseID, owner.UserID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestCanViewUser(t *testing.T) {
	ctx := context.Background()
	student := Principal{UserID: uuid.New(), Role: models.RoleStudent}
	teacher := &models.User{ID: uuid.New(), Role: models.RoleInstructor}
	otherTeacher := &models.User{ID: uuid.New(), Role: models.RoleInstructor}
	classmate := &models.User{ID: uuid.New(), Role: models.RoleStudent}

	pol := NewPolicy(&fakeDirectory{taught: map[[2]uuid.UUID]bool{{student.UserID, teacher.ID}: true}})

	ok, err := pol.CanViewUser(ctx, student, teacher)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pol.CanViewUser(ctx, student, otherTeacher)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = pol.CanViewUser(ctx, student, classmate)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = pol.CanViewUser(ctx, student, &models.User{ID: student.UserID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, ok)
}
