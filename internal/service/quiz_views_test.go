package service

import (
	"errors"
	"testing"
	"time"

	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/util"
)

func TestGetActiveQuizWindow(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)

	env.setNow(quiz.OpensAt.Add(-time.Hour))
	view, err := env.quiz.GetActiveQuiz()
	if err != nil {
		t.Fatalf("active before open: %v", err)
	}
	if view.Active || view.Quiz != nil {
		t.Fatalf("got active view before open: %+v", view)
	}

	env.setNow(quiz.OpensAt.Add(time.Hour))
	user := env.createUser(t, "alice")
	if err := env.quiz.JoinQuiz(quiz.ID, user.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	view, err = env.quiz.GetActiveQuiz()
	if err != nil {
		t.Fatalf("active in window: %v", err)
	}
	if !view.Active || view.Quiz == nil {
		t.Fatalf("expected active quiz, got %+v", view)
	}
	if view.Quiz.ID != quiz.ID {
		t.Fatalf("active quiz id = %d, want %d", view.Quiz.ID, quiz.ID)
	}
	if view.Participants != 1 {
		t.Fatalf("participants = %d, want 1", view.Participants)
	}
}

func TestQuizPaperAdminRevealsPublicHides(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)

	admin, err := env.quiz.GetQuizPaperAdmin(quiz.ID)
	if err != nil {
		t.Fatalf("admin paper: %v", err)
	}
	if len(admin.Questions) != 1 {
		t.Fatalf("admin questions = %d, want 1", len(admin.Questions))
	}
	q := admin.Questions[0]
	if q.Difficulty != model.DifficultyMedium || q.Points != 10 {
		t.Fatalf("admin view lost grading fields: %+v", q)
	}
	var correct int
	for _, opt := range q.Options {
		if opt.IsCorrect == nil {
			t.Fatalf("admin option %d missing correctness", opt.ID)
		}
		if *opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		t.Fatalf("admin view marks %d correct options, want 1", correct)
	}

	public, err := env.quiz.GetQuizPaperPublic(quiz.ID)
	if err != nil {
		t.Fatalf("public paper: %v", err)
	}
	pq := public.Questions[0]
	if pq.Difficulty != "" || pq.Points != 0 {
		t.Fatalf("public view leaks grading fields: %+v", pq)
	}
	for _, opt := range pq.Options {
		if opt.IsCorrect != nil {
			t.Fatalf("public option %d leaks correctness", opt.ID)
		}
	}

	if _, err := env.quiz.GetQuizPaperPublic(quiz.ID + 99); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("missing quiz err = %v, want ErrQuizNotFound", err)
	}
}

func TestGetQuestionByOrderFlow(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)

	if _, err := env.quiz.AddQuestion(quiz.ID, QuestionInput{
		Text:       "Which ocean is the largest?",
		Category:   model.CategoryGeography,
		Difficulty: model.DifficultyEasy,
		Options: []OptionInput{
			{Text: "Atlantic"},
			{Text: "Pacific", IsCorrect: true},
		},
	}); err != nil {
		t.Fatalf("add question: %v", err)
	}

	first, err := env.quiz.GetQuestionByOrder(quiz.ID, 1)
	if err != nil {
		t.Fatalf("question 1: %v", err)
	}
	if !first.HasNext || first.MaxOrder != 2 {
		t.Fatalf("question 1 flow = hasNext %v maxOrder %d, want true/2", first.HasNext, first.MaxOrder)
	}
	if first.Question.Points != 0 {
		t.Fatalf("linear flow leaks points: %+v", first.Question)
	}

	last, err := env.quiz.GetQuestionByOrder(quiz.ID, 2)
	if err != nil {
		t.Fatalf("question 2: %v", err)
	}
	if last.HasNext {
		t.Fatalf("last question reports hasNext")
	}

	if _, err := env.quiz.GetQuestionByOrder(quiz.ID, 3); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("past-end err = %v, want ErrQuestionNotFound", err)
	}
	if _, err := env.quiz.GetQuestionByOrder(quiz.ID+99, 1); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("missing quiz err = %v, want ErrQuizNotFound", err)
	}
}
