package quizzes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// fakeStore is an in-memory Store keyed like the real unique (question, user) constraint.
type fakeStore struct {
	mu        sync.Mutex
	quizzes   map[uuid.UUID]*models.Quiz
	courses   map[uuid.UUID]*models.Course
	users     map[uuid.UUID]*models.User
	banks     map[uuid.UUID]*models.QuestionBank
	responses map[[2]uuid.UUID]*models.Response // question, user
	enrolled  map[[2]uuid.UUID]bool             // course, user
	ensured   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quizzes:   map[uuid.UUID]*models.Quiz{},
		courses:   map[uuid.UUID]*models.Course{},
		users:     map[uuid.UUID]*models.User{},
		banks:     map[uuid.UUID]*models.QuestionBank{},
		responses: map[[2]uuid.UUID]*models.Response{},
		enrolled:  map[[2]uuid.UUID]bool{},
	}
}

func (f *fakeStore) GetQuiz(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	c := f.courses[q.CourseID]
	cp.CourseTitle, cp.InstructorID = c.Title, c.InstructorID
	return &cp, nil
}

func (f *fakeStore) ListQuizzes(ctx context.Context, p access.Principal, courseID *uuid.UUID) ([]models.Quiz, error) {
	var out []models.Quiz
	for id := range f.quizzes {
		q, _ := f.GetQuiz(ctx, id)
		if courseID != nil && q.CourseID != *courseID {
			continue
		}
		if access.IsAdmin(p) || q.InstructorID == p.UserID || f.enrolled[[2]uuid.UUID{q.CourseID, p.UserID}] {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateQuiz(_ context.Context, q *models.Quiz) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range q.QuestionBankIDs {
		if _, ok := f.banks[id]; !ok {
			return ErrInvalidBanks
		}
	}
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	cp := *q
	f.quizzes[q.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateQuiz(_ context.Context, q *models.Quiz) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *q
	f.quizzes[q.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteQuiz(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quizzes, id)
	return nil
}

func (f *fakeStore) GetCourse(_ context.Context, id uuid.UUID) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) QuizBanks(_ context.Context, quizID uuid.UUID) ([]models.QuestionBank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[quizID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []models.QuestionBank
	for _, id := range q.QuestionBankIDs {
		b := *f.banks[id]
		b.Questions = append([]models.Question(nil), b.Questions...)
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) UpsertAnswer(_ context.Context, a Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{a.QuestionID, a.UserID}
	r, ok := f.responses[key]
	if !ok {
		r = &models.Response{ID: uuid.New(), QuestionID: a.QuestionID, UserID: a.UserID, CreatedAt: time.Now()}
		f.responses[key] = r
	}
	r.ResponseText = a.Text
	r.SelectedOption = a.SelectedOption
	r.SelectedOptions = append([]int{}, a.SelectedOptions...)
	r.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) EnsureResponse(_ context.Context, questionID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{questionID, userID}
	if _, ok := f.responses[key]; ok {
		return false, nil
	}
	f.responses[key] = &models.Response{ID: uuid.New(), QuestionID: questionID, UserID: userID, SelectedOptions: []int{}}
	f.ensured++
	return true, nil
}

func (f *fakeStore) ListResponses(_ context.Context, userID uuid.UUID, questionIDs []uuid.UUID) ([]models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Response
	for _, qid := range questionIDs {
		if r, ok := f.responses[[2]uuid.UUID{qid, userID}]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateGrade(_ context.Context, responseID uuid.UUID, points *float64, comment *string) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.responses {
		if r.ID != responseID {
			continue
		}
		if points != nil {
			r.Points = *points
		}
		if comment != nil {
			r.InstructorComment = comment
		}
		cp := *r
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListRespondents(_ context.Context, questionIDs []uuid.UUID) ([]models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range questionIDs {
		want[id] = true
	}
	seen := map[uuid.UUID]bool{}
	var out []models.UserSummary
	for key := range f.responses {
		if !want[key[0]] || seen[key[1]] {
			continue
		}
		seen[key[1]] = true
		u := f.users[key[1]]
		out = append(out, models.UserSummary{UserID: u.ID, Name: u.FullName(), Email: u.Email})
	}
	return out, nil
}

func (f *fakeStore) IsEnrolled(_ context.Context, courseID, userID uuid.UUID) (bool, error) {
	return f.enrolled[[2]uuid.UUID{courseID, userID}], nil
}

func (f *fakeStore) IsTaughtBy(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeStore) responseFor(questionID, userID uuid.UUID) *models.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses[[2]uuid.UUID{questionID, userID}]
}

// fixture is a course with one quiz, an instructor, and an enrolled student.
type fixture struct {
	store      *fakeStore
	svc        *Service
	quiz       *models.Quiz
	instructor access.Principal
	student    access.Principal
	notes      *recordingNotifier
}

type published struct {
	quizID uuid.UUID
	event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(quizID uuid.UUID, event string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{quizID, event})
}

func newFixture(opts Options, banks ...*models.QuestionBank) *fixture {
	store := newFakeStore()
	instructor := &models.User{ID: uuid.New(), Email: "teach@school.io", Name: "Ada", Surname: "Teacher", Role: models.RoleInstructor}
	student := &models.User{ID: uuid.New(), Email: "kid@school.io", Name: "Sam", Surname: "Student", Role: models.RoleStudent}
	store.users[instructor.ID] = instructor
	store.users[student.ID] = student

	course := &models.Course{ID: uuid.New(), Title: "Mathematics", InstructorID: instructor.ID}
	store.courses[course.ID] = course
	store.enrolled[[2]uuid.UUID{course.ID, student.ID}] = true

	quiz := &models.Quiz{ID: uuid.New(), CourseID: course.ID, Title: "Week 1"}
	for _, b := range banks {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		store.banks[b.ID] = b
		quiz.QuestionBankIDs = append(quiz.QuestionBankIDs, b.ID)
	}
	store.quizzes[quiz.ID] = quiz

	notes := &recordingNotifier{}
	svc := NewService(store, access.NewPolicy(store), notes, nil, opts, nil)
	return &fixture{
		store:      store,
		svc:        svc,
		quiz:       quiz,
		instructor: access.Principal{UserID: instructor.ID, Role: models.RoleInstructor},
		student:    access.Principal{UserID: student.ID, Role: models.RoleStudent},
		notes:      notes,
	}
}

func openQuestion(text string) models.Question {
	return models.Question{ID: uuid.New(), Text: text, IsOpenEnded: true}
}

func singleChoice(text string, correct int) models.Question {
	d, err := models.NewChoiceDetail([]string{"A", "B", "C", "D"}, false, correct, nil)
	if err != nil {
		panic(err)
	}
	return models.Question{ID: uuid.New(), Text: text, Choice: &d}
}

func multiChoice(text string, corrects ...int) models.Question {
	d, err := models.NewChoiceDetail([]string{"A", "B", "C", "D"}, true, 1, corrects)
	if err != nil {
		panic(err)
	}
	return models.Question{ID: uuid.New(), Text: text, Choice: &d}
}

func bank(questions ...models.Question) *models.QuestionBank {
	return &models.QuestionBank{ID: uuid.New(), Title: "bank", Questions: questions}
}
