package quizzes

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

// testPool connects to DATABASE_URL and applies the schema.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

func seedOpenQuestion(t *testing.T, pool *pgxpool.Pool) (questionID, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, role)
		VALUES ($1, 'x', 'student') RETURNING id`, uuid.NewString()+"@school.io").Scan(&userID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO questions (text, is_open_ended)
		VALUES ('explain', TRUE) RETURNING id`).Scan(&questionID))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM questions WHERE id = $1`, questionID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})
	return questionID, userID
}

func TestRepositoryResubmitKeepsGrade(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	qid, uid := seedOpenQuestion(t, pool)

	draft := "first draft"
	require.NoError(t, repo.UpsertAnswer(ctx, Answer{QuestionID: qid, UserID: uid, Text: &draft}))
	list, err := repo.ListResponses(ctx, uid, []uuid.UUID{qid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	points, comment := 2.5, "good start"
	graded, err := repo.UpdateGrade(ctx, id, &points, &comment)
	require.NoError(t, err)
	assert.Equal(t, 2.5, graded.Points)

	// comment only; points stay
	next := "see me"
	graded, err = repo.UpdateGrade(ctx, id, nil, &next)
	require.NoError(t, err)
	assert.Equal(t, 2.5, graded.Points)
	assert.Equal(t, "see me", *graded.InstructorComment)

	final := "final answer"
	require.NoError(t, repo.UpsertAnswer(ctx, Answer{QuestionID: qid, UserID: uid, Text: &final}))
	list, err = repo.ListResponses(ctx, uid, []uuid.UUID{qid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "final answer", *list[0].ResponseText)
	assert.Equal(t, 2.5, list[0].Points)
	assert.Equal(t, "see me", *list[0].InstructorComment)

	created, err := repo.EnsureResponse(ctx, qid, uid)
	require.NoError(t, err)
	assert.False(t, created)
	list, err = repo.ListResponses(ctx, uid, []uuid.UUID{qid})
	require.NoError(t, err)
	assert.Equal(t, "final answer", *list[0].ResponseText)
	assert.Equal(t, 2.5, list[0].Points)
}

func TestRepositoryEnsureResponseInsertsOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	qid, uid := seedOpenQuestion(t, pool)

	created, err := repo.EnsureResponse(ctx, qid, uid)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.EnsureResponse(ctx, qid, uid)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := repo.ListResponses(ctx, uid, []uuid.UUID{qid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].Points)
	assert.Nil(t, list[0].ResponseText)
	assert.Empty(t, list[0].SelectedOptions)

	_, err = repo.UpdateGrade(ctx, uuid.New(), nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
