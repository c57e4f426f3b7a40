package quizzes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/questions"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

const quizColumns = `z.id, z.course_id, z.title, z.description, z.time_limit_in_minutes,
	z.randomize_question_order, z.show_correct_answers_on_completion, z.created_at, z.updated_at,
	c.title, c.instructor_id,
	ARRAY(SELECT qb.bank_id FROM quiz_banks qb WHERE qb.quiz_id = z.id ORDER BY qb.position)`

const responseColumns = `id, question_id, user_id, response_text, selected_option, selected_options,
	instructor_comment, points, created_at, updated_at`

// Repository is the PostgreSQL Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quiz repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	var q models.Quiz
	err := row.Scan(&q.ID, &q.CourseID, &q.Title, &q.Description, &q.TimeLimitInMinutes,
		&q.RandomizeQuestionOrder, &q.ShowCorrectAnswersOnCompletion, &q.CreatedAt, &q.UpdatedAt,
		&q.CourseTitle, &q.InstructorID, &q.QuestionBankIDs)
	if err != nil {
		return nil, err
	}
	if q.QuestionBankIDs == nil {
		q.QuestionBankIDs = []uuid.UUID{}
	}
	return &q, nil
}

// GetQuiz returns a quiz joined with its course.
func (r *Repository) GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, err := scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+`
		FROM quizzes z JOIN courses c ON c.id = z.course_id WHERE z.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListQuizzes returns quizzes of courses visible to p, optionally narrowed to one course.
func (r *Repository) ListQuizzes(ctx context.Context, p access.Principal, courseID *uuid.UUID) ([]models.Quiz, error) {
	var (
		where []string
		args  []interface{}
	)
	switch {
	case access.IsAdmin(p):
	case access.IsInstructor(p):
		args = append(args, p.UserID)
		where = append(where, fmt.Sprintf("c.instructor_id = $%d", len(args)))
	default:
		args = append(args, p.UserID)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.user_id = $%d)", len(args)))
	}
	if courseID != nil {
		args = append(args, *courseID)
		where = append(where, fmt.Sprintf("z.course_id = $%d", len(args)))
	}
	query := `SELECT ` + quizColumns + ` FROM quizzes z JOIN courses c ON c.id = z.course_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY z.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()
	list := []models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// CreateQuiz inserts a quiz and its bank links.
func (r *Repository) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	return r.writeQuiz(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `INSERT INTO quizzes
			(course_id, title, description, time_limit_in_minutes, randomize_question_order, show_correct_answers_on_completion)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
			q.CourseID, q.Title, q.Description, q.TimeLimitInMinutes, q.RandomizeQuestionOrder, q.ShowCorrectAnswersOnCompletion).
			Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	}, q)
}

// UpdateQuiz replaces a quiz's fields and bank links.
func (r *Repository) UpdateQuiz(ctx context.Context, q *models.Quiz) error {
	return r.writeQuiz(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `UPDATE quizzes SET course_id = $2, title = $3, description = $4,
			time_limit_in_minutes = $5, randomize_question_order = $6, show_correct_answers_on_completion = $7,
			updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
			q.ID, q.CourseID, q.Title, q.Description, q.TimeLimitInMinutes, q.RandomizeQuestionOrder, q.ShowCorrectAnswersOnCompletion).
			Scan(&q.UpdatedAt)
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM quiz_banks WHERE quiz_id = $1`, q.ID)
		return err
	}, q)
}

// writeQuiz runs write then links q's banks in order, all in one transaction.
func (r *Repository) writeQuiz(ctx context.Context, write func(tx pgx.Tx) error, q *models.Quiz) error {
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := write(tx); err != nil {
			return err
		}
		for i, bankID := range q.QuestionBankIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO quiz_banks (quiz_id, bank_id, position) VALUES ($1, $2, $3)`,
				q.ID, bankID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if database.IsForeignKeyViolation(err) {
		return ErrInvalidBanks
	}
	return err
}

// DeleteQuiz removes a quiz.
func (r *Repository) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCourse returns a course.
func (r *Repository) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var c models.Course
	err := r.pool.QueryRow(ctx, `SELECT id, title, description, instructor_id, created_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetUser returns a user.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name, surname, role, is_active, created_at, updated_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Surname, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// QuizBanks returns the quiz's non-empty banks in link order with questions in insertion order.
func (r *Repository) QuizBanks(ctx context.Context, quizID uuid.UUID) ([]models.QuestionBank, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questions.Columns+`, b.id, b.title, b.owner_id
		FROM quiz_banks qb
		JOIN question_banks b ON b.id = qb.bank_id
		JOIN question_bank_members m ON m.bank_id = b.id
		JOIN questions q ON q.id = m.question_id
		LEFT JOIN choice_details cd ON cd.question_id = q.id
		WHERE qb.quiz_id = $1
		ORDER BY qb.position, m.position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz banks: %w", err)
	}
	defer rows.Close()

	banks := []models.QuestionBank{}
	for rows.Next() {
		var b models.QuestionBank
		q, err := questions.ScanQuestion(rows, &b.ID, &b.Title, &b.OwnerID)
		if err != nil {
			return nil, err
		}
		if n := len(banks); n == 0 || banks[n-1].ID != b.ID {
			banks = append(banks, b)
		}
		last := &banks[len(banks)-1]
		last.Questions = append(last.Questions, *q)
		last.NumberOfQuestions = len(last.Questions)
	}
	return banks, rows.Err()
}

func scanResponse(row pgx.Row) (*models.Response, error) {
	var (
		resp     models.Response
		selected *int32
		multi    []int32
	)
	err := row.Scan(&resp.ID, &resp.QuestionID, &resp.UserID, &resp.ResponseText, &selected, &multi,
		&resp.InstructorComment, &resp.Points, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if selected != nil {
		v := int(*selected)
		resp.SelectedOption = &v
	}
	resp.SelectedOptions = questions.IntsFromDB(multi)
	return &resp, nil
}

// UpsertAnswer writes the answer fields of the (question, user) response.
func (r *Repository) UpsertAnswer(ctx context.Context, a Answer) error {
	var selected *int32
	if a.SelectedOption != nil {
		v := int32(*a.SelectedOption)
		selected = &v
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO question_responses
		(question_id, user_id, response_text, selected_option, selected_options)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (question_id, user_id) DO UPDATE SET
			response_text = EXCLUDED.response_text,
			selected_option = EXCLUDED.selected_option,
			selected_options = EXCLUDED.selected_options,
			updated_at = NOW()`,
		a.QuestionID, a.UserID, a.Text, selected, questions.IntsToDB(a.SelectedOptions))
	return err
}

// EnsureResponse inserts an empty response unless one exists.
func (r *Repository) EnsureResponse(ctx context.Context, questionID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO question_responses (question_id, user_id) VALUES ($1, $2)
		ON CONFLICT (question_id, user_id) DO NOTHING`, questionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListResponses returns the user's responses to the given questions.
func (r *Repository) ListResponses(ctx context.Context, userID uuid.UUID, questionIDs []uuid.UUID) ([]models.Response, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+responseColumns+` FROM question_responses
		WHERE user_id = $1 AND question_id = ANY($2)`, userID, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Response{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *resp)
	}
	return list, rows.Err()
}

// UpdateGrade sets the provided grading fields and returns the updated response.
func (r *Repository) UpdateGrade(ctx context.Context, responseID uuid.UUID, points *float64, comment *string) (*models.Response, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx, `UPDATE question_responses SET
		points = COALESCE($2::numeric, points),
		instructor_comment = COALESCE($3::text, instructor_comment),
		updated_at = NOW()
		WHERE id = $1 RETURNING `+responseColumns, responseID, points, comment))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return resp, nil
}

// ListRespondents returns distinct users who answered any of the questions.
func (r *Repository) ListRespondents(ctx context.Context, questionIDs []uuid.UUID) ([]models.UserSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT u.id, u.name, u.surname, u.email
		FROM question_responses qr JOIN users u ON u.id = qr.user_id
		WHERE qr.question_id = ANY($1)
		ORDER BY u.surname, u.name, u.email`, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.UserSummary{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Email); err != nil {
			return nil, err
		}
		list = append(list, models.UserSummary{UserID: u.ID, Name: u.FullName(), Email: u.Email})
	}
	return list, rows.Err()
}
