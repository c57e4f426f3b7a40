package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

// ErrNotFound is returned when the question does not exist.
var ErrNotFound = errors.New("question not found")

// Columns selects a question with its optional choice detail. Use with From.
const Columns = `q.id, q.text, q.tags, q.is_open_ended, q.created_at,
	cd.question_id IS NOT NULL,
	COALESCE(cd.option1, ''), COALESCE(cd.option2, ''), COALESCE(cd.option3, ''), COALESCE(cd.option4, ''),
	COALESCE(cd.is_multiple_choice, FALSE), COALESCE(cd.correct_option, 1), COALESCE(cd.correct_options, '{}')`

// From is the FROM clause matching Columns.
const From = ` FROM questions q LEFT JOIN choice_details cd ON cd.question_id = q.id`

// ScanQuestion scans one row selected with Columns. Extra destinations are scanned after the question.
func ScanQuestion(row pgx.Row, extra ...interface{}) (*models.Question, error) {
	var (
		q         models.Question
		hasChoice bool
		d         models.ChoiceDetail
		correct   int32
		corrects  []int32
	)
	dest := []interface{}{&q.ID, &q.Text, &q.Tags, &q.IsOpenEnded, &q.CreatedAt,
		&hasChoice, &d.Options[0], &d.Options[1], &d.Options[2], &d.Options[3],
		&d.IsMultipleChoice, &correct, &corrects}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if hasChoice {
		d.CorrectOption = int(correct)
		d.CorrectOptions = IntsFromDB(corrects)
		q.Choice = &d
	}
	return &q, nil
}

// IntsFromDB converts a SMALLINT[] scan target into option indices.
func IntsFromDB(v []int32) []int {
	out := make([]int, len(v))
	for i, n := range v {
		out[i] = int(n)
	}
	return out
}

// IntsToDB converts option indices into a SMALLINT[] parameter.
func IntsToDB(v []int) []int32 {
	out := make([]int32, len(v))
	for i, n := range v {
		out[i] = int32(n)
	}
	return out
}

// Filter narrows List.
type Filter struct {
	Search    string     // matches text or tags
	Tag       string     // matches any tag
	BankID    *uuid.UUID // only members of this bank
	OpenEnded *bool
}

// Repository handles question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a question repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns a question with its choice detail.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := ScanQuestion(r.pool.QueryRow(ctx, `SELECT `+Columns+From+` WHERE q.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// List returns questions matching f, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Question, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(q.text ILIKE "+p+" OR array_to_string(q.tags, ',') ILIKE "+p+")")
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM unnest(q.tags) t WHERE t ILIKE "+arg("%"+f.Tag+"%")+")")
	}
	if f.BankID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM question_bank_members m WHERE m.question_id = q.id AND m.bank_id = "+arg(*f.BankID)+")")
	}
	if f.OpenEnded != nil {
		where = append(where, "q.is_open_ended = "+arg(*f.OpenEnded))
	}
	query := `SELECT ` + Columns + From
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY q.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	list := []models.Question{}
	for rows.Next() {
		q, err := ScanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// Create inserts a question, its choice detail, and optionally a bank membership.
func (r *Repository) Create(ctx context.Context, q *models.Question, bankID *uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO questions (text, tags, is_open_ended) VALUES ($1, $2, $3)
			RETURNING id, created_at`, q.Text, q.Tags, q.IsOpenEnded).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		if q.Choice != nil {
			if err := upsertChoice(ctx, tx, q.ID, q.Choice); err != nil {
				return err
			}
		}
		if bankID != nil {
			_, err := tx.Exec(ctx, `INSERT INTO question_bank_members (bank_id, question_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, *bankID, q.ID)
			if err != nil {
				return fmt.Errorf("add to bank: %w", err)
			}
		}
		return nil
	})
}

// Update writes text, tags, and the choice detail of an existing question.
func (r *Repository) Update(ctx context.Context, q *models.Question) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE questions SET text = $2, tags = $3 WHERE id = $1`, q.ID, q.Text, q.Tags)
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if q.Choice != nil {
			return upsertChoice(ctx, tx, q.ID, q.Choice)
		}
		return nil
	})
}

func upsertChoice(ctx context.Context, tx pgx.Tx, id uuid.UUID, d *models.ChoiceDetail) error {
	_, err := tx.Exec(ctx, `INSERT INTO choice_details
		(question_id, option1, option2, option3, option4, is_multiple_choice, correct_option, correct_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (question_id) DO UPDATE SET
			option1 = EXCLUDED.option1, option2 = EXCLUDED.option2,
			option3 = EXCLUDED.option3, option4 = EXCLUDED.option4,
			is_multiple_choice = EXCLUDED.is_multiple_choice,
			correct_option = EXCLUDED.correct_option,
			correct_options = EXCLUDED.correct_options`,
		id, d.Options[0], d.Options[1], d.Options[2], d.Options[3],
		d.IsMultipleChoice, int32(d.CorrectOption), IntsToDB(d.CorrectOptions))
	if err != nil {
		return fmt.Errorf("upsert choice detail: %w", err)
	}
	return nil
}

// Delete removes a question along with its responses and bank memberships.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
