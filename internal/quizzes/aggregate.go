package quizzes

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Aggregate flattens banks into one question list: banks in order, questions
// in bank order, each question kept at its first occurrence.
func Aggregate(banks []models.QuestionBank) []models.Question {
	seen := make(map[uuid.UUID]struct{})
	out := []models.Question{}
	for _, b := range banks {
		for _, q := range b.Questions {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			out = append(out, q)
		}
	}
	return out
}

// Shuffle permutes questions uniformly in place.
func Shuffle(questions []models.Question) {
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

func questionIDs(questions []models.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}
	return ids
}

func indexQuestions(questions []models.Question) map[uuid.UUID]*models.Question {
	m := make(map[uuid.UUID]*models.Question, len(questions))
	for i := range questions {
		m[questions[i].ID] = &questions[i]
	}
	return m
}
