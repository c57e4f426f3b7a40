package questionbanks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/questions"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

// ErrNotFound is returned when the bank does not exist.
var ErrNotFound = errors.New("question bank not found")

const bankColumns = `b.id, b.title, b.owner_id, b.created_at,
	(SELECT COUNT(*) FROM question_bank_members m WHERE m.bank_id = b.id)`

// Repository handles question bank persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a question bank repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanBank(row pgx.Row) (*models.QuestionBank, error) {
	var b models.QuestionBank
	if err := row.Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt, &b.NumberOfQuestions); err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns every bank for admins and the caller's own banks otherwise.
func (r *Repository) List(ctx context.Context, p access.Principal) ([]models.QuestionBank, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if access.IsAdmin(p) {
		rows, err = r.pool.Query(ctx, `SELECT `+bankColumns+` FROM question_banks b ORDER BY b.created_at DESC`)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+bankColumns+` FROM question_banks b
			WHERE b.owner_id = $1 ORDER BY b.created_at DESC`, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()
	list := []models.QuestionBank{}
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// Get returns a bank by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.QuestionBank, error) {
	b, err := scanBank(r.pool.QueryRow(ctx, `SELECT `+bankColumns+` FROM question_banks b WHERE b.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Create inserts a bank.
func (r *Repository) Create(ctx context.Context, b *models.QuestionBank) error {
	return r.pool.QueryRow(ctx, `INSERT INTO question_banks (title, owner_id) VALUES ($1, $2) RETURNING id, created_at`,
		b.Title, b.OwnerID).Scan(&b.ID, &b.CreatedAt)
}

// Rename changes the bank title.
func (r *Repository) Rename(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE question_banks SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the bank and its memberships. The questions themselves stay in the catalog.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_banks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddQuestion appends a question to the bank. Re-adding keeps the original position.
func (r *Repository) AddQuestion(ctx context.Context, bankID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO question_bank_members (bank_id, question_id) VALUES ($1, $2)
		ON CONFLICT (bank_id, question_id) DO NOTHING`, bankID, questionID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return questions.ErrNotFound
		}
		return fmt.Errorf("add question: %w", err)
	}
	return nil
}

// RemoveQuestion drops a question from the bank.
func (r *Repository) RemoveQuestion(ctx context.Context, bankID, questionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_bank_members WHERE bank_id = $1 AND question_id = $2`,
		bankID, questionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return questions.ErrNotFound
	}
	return nil
}

// Questions returns the bank's questions in insertion order.
func (r *Repository) Questions(ctx context.Context, bankID uuid.UUID) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questions.Columns+questions.From+`
		JOIN question_bank_members m ON m.question_id = q.id
		WHERE m.bank_id = $1 ORDER BY m.position`, bankID)
	if err != nil {
		return nil, fmt.Errorf("bank questions: %w", err)
	}
	defer rows.Close()
	list := []models.Question{}
	for rows.Next() {
		q, err := questions.ScanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}
