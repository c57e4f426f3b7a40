package questions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Question types accepted from clients. "closed" defers to isMultipleChoice.
const (
	TypeOpen           = "open"
	TypeClosed         = "closed"
	TypeSingleChoice   = "single_choice"
	TypeMultipleChoice = "multiple_choice"
)

var (
	ErrEmptyText   = errors.New("text is required")
	ErrUnknownType = errors.New("unknown question type")
)

// QuestionRequest is the body for creating and updating questions. Correct
// answers arrive as 0-based indices into options.
type QuestionRequest struct {
	Text             string     `json:"text"`
	Tags             []string   `json:"tags"`
	Type             string     `json:"type"`
	Options          []string   `json:"options"`
	IsMultipleChoice *bool      `json:"isMultipleChoice"`
	CorrectOption    *int       `json:"correctOption"`
	CorrectOptions   []int      `json:"correctOptions"`
	QuestionBank     *uuid.UUID `json:"question_bank"`
}

// Build turns a create request into a question.
func (r QuestionRequest) Build() (*models.Question, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	q := &models.Question{Text: text, Tags: normalizeTags(r.Tags)}

	var multi bool
	switch r.Type {
	case "", TypeOpen:
		q.IsOpenEnded = true
		return q, nil
	case TypeSingleChoice:
	case TypeMultipleChoice:
		multi = true
	case TypeClosed:
		multi = r.IsMultipleChoice != nil && *r.IsMultipleChoice
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, r.Type)
	}

	correct := 1
	if r.CorrectOption != nil {
		correct = *r.CorrectOption + 1
	}
	d, err := models.NewChoiceDetail(r.Options, multi, correct, oneBased(r.CorrectOptions))
	if err != nil {
		return nil, err
	}
	q.Choice = &d
	return q, nil
}

// Apply merges an update request into q. Only present fields change; the
// single/multi invariant of the choice detail is re-established.
func (r QuestionRequest) Apply(q *models.Question) error {
	if text := strings.TrimSpace(r.Text); text != "" {
		q.Text = text
	}
	if r.Tags != nil {
		q.Tags = normalizeTags(r.Tags)
	}
	if q.Choice == nil {
		return nil
	}
	d := *q.Choice
	options := d.Options[:]
	if len(r.Options) > 0 {
		options = r.Options
	}
	multi := d.IsMultipleChoice
	if r.IsMultipleChoice != nil {
		multi = *r.IsMultipleChoice
	}
	correct, corrects := d.CorrectOption, d.CorrectOptions
	if r.CorrectOption != nil {
		correct = *r.CorrectOption + 1
	}
	if r.CorrectOptions != nil {
		corrects = oneBased(r.CorrectOptions)
	}
	next, err := models.NewChoiceDetail(options, multi, correct, corrects)
	if err != nil {
		return err
	}
	q.Choice = &next
	return nil
}

func oneBased(indices []int) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = v + 1
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// OptionView is one answer option as shown in the catalog.
type OptionView struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// View is the catalog representation of a question, correct answers included.
type View struct {
	ID               uuid.UUID    `json:"id"`
	Text             string       `json:"text"`
	Tags             []string     `json:"tags"`
	IsOpenEnded      bool         `json:"is_open_ended"`
	Type             string       `json:"type"`
	IsMultipleChoice bool         `json:"is_multiple_choice"`
	Options          []OptionView `json:"options"`
	CorrectOption    *int         `json:"correct_option"`
	CorrectOptions   []int        `json:"correct_options"`
}

// NewView renders q for instructors.
func NewView(q *models.Question) View {
	v := View{ID: q.ID, Text: q.Text, Tags: q.Tags, IsOpenEnded: q.IsOpenEnded, Type: string(q.Kind())}
	if q.Choice == nil {
		return v
	}
	v.IsMultipleChoice = q.Choice.IsMultipleChoice
	v.Options = make([]OptionView, models.OptionCount)
	for i, text := range q.Choice.Options {
		v.Options[i] = OptionView{ID: i + 1, Text: text}
	}
	if q.Choice.IsMultipleChoice {
		v.CorrectOptions = q.Choice.CorrectOptions
	} else {
		correct := q.Choice.CorrectOption
		v.CorrectOption = &correct
	}
	return v
}
