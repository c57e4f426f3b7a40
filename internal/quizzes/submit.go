package quizzes

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// SubmissionItem is one {question_id, answer} pair as sent by the client.
type SubmissionItem struct {
	QuestionID json.RawMessage `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

// SubmitRequest is the body for POST /api/quizzes/:id/submit.
type SubmitRequest struct {
	Responses []SubmissionItem `json:"responses"`
}

var (
	errNoAnswer      = errors.New("answer is missing")
	errBadQuestionID = errors.New("question_id is not a valid id")
	errBadAnswer     = errors.New("answer does not fit the question type")
)

func parseQuestionID(raw json.RawMessage) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, errBadQuestionID
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, errBadQuestionID
	}
	return id, nil
}

// decodeAnswer shapes raw into the fields q's type stores. The payload shape
// only matters for choice questions: a list fills selected_options, a scalar
// fills selected_option.
func decodeAnswer(q *models.Question, raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Answer{}, errNoAnswer
	}
	a := Answer{QuestionID: q.ID}

	if q.Choice == nil {
		text, err := decodeText(raw)
		if err != nil {
			return Answer{}, err
		}
		a.Text = &text
		return a, nil
	}

	if raw[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return Answer{}, errBadAnswer
		}
		indices := make([]int, 0, len(elems))
		for _, e := range elems {
			i, err := decodeIndex(e)
			if err != nil {
				return Answer{}, err
			}
			indices = append(indices, i)
		}
		set, err := models.NormalizeOptionSet(indices)
		if err != nil {
			return Answer{}, errBadAnswer
		}
		a.SelectedOptions = set
		return a, nil
	}

	i, err := decodeIndex(raw)
	if err != nil {
		return Answer{}, err
	}
	a.SelectedOption = &i
	a.SelectedOptions = []int{}
	return a, nil
}

// decodeText accepts a JSON string, or a number kept as its literal text.
func decodeText(raw json.RawMessage) (string, error) {
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errBadAnswer
		}
		return s, nil
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", errBadAnswer
		}
		return n.String(), nil
	}
	return "", errBadAnswer
}

// decodeIndex accepts an integer or a numeric string naming an option slot.
func decodeIndex(raw json.RawMessage) (int, error) {
	var (
		n   int64
		err error
	)
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err = json.Unmarshal(raw, &s); err != nil {
			return 0, errBadAnswer
		}
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	} else {
		var num json.Number
		if err = json.Unmarshal(raw, &num); err != nil {
			return 0, errBadAnswer
		}
		n, err = num.Int64()
	}
	if err != nil || !models.ValidOptionIndex(int(n)) {
		return 0, errBadAnswer
	}
	return int(n), nil
}
