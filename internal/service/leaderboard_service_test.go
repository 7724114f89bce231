package service

import (
	"errors"
	"testing"
	"time"

	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
)

func newLeaderboardService(env *testEnv) *LeaderboardService {
	// nil redis: the cache is skipped and every call hits the database
	return NewLeaderboardService(
		repository.NewLeaderboardRepository(env.db),
		repository.NewQuizRepository(env.db),
		nil,
	)
}

func TestQuizLeaderboardFlow(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)
	boards := newLeaderboardService(env)

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	question := quiz.Questions[0]
	var correct uint
	for _, o := range question.Options {
		if o.IsCorrect {
			correct = o.ID
		}
	}

	// alice answers correctly on Monday, bob submits empty on Tuesday
	env.setNow(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	if err := env.quiz.JoinQuiz(alice.ID, quiz.ID); err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if _, err := env.quiz.SaveAnswer(alice.ID, quiz.ID, question.ID, correct); err != nil {
		t.Fatalf("answer alice: %v", err)
	}
	if _, err := env.quiz.SubmitQuiz(alice.ID, quiz.ID); err != nil {
		t.Fatalf("submit alice: %v", err)
	}

	env.setNow(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	if err := env.quiz.JoinQuiz(bob.ID, quiz.ID); err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if _, err := env.quiz.SubmitQuiz(bob.ID, quiz.ID); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	board, err := boards.GetQuizLeaderboard(quiz.ID, 50, 0, bob.ID)
	if err != nil {
		t.Fatalf("quiz leaderboard: %v", err)
	}
	if board.Total != 2 || len(board.Leaderboard) != 2 {
		t.Fatalf("expected 2 entries, got %d (total %d)", len(board.Leaderboard), board.Total)
	}
	// alice: 10 + Monday bonus 6 = 16; bob: 0 + Tuesday bonus 5 = 5
	if board.Leaderboard[0].Username != "alice" || board.Leaderboard[0].Score != 16 {
		t.Fatalf("unexpected leader: %+v", board.Leaderboard[0])
	}
	if board.CurrentUser == nil || board.CurrentUser.UserID != bob.ID || board.CurrentUser.Rank != 2 {
		t.Fatalf("unexpected current user row: %+v", board.CurrentUser)
	}

	// week resolution accepts any date in the quiz week
	weekBoard, err := boards.GetWeekLeaderboard(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 50, 0, 0)
	if err != nil {
		t.Fatalf("week leaderboard: %v", err)
	}
	if weekBoard.QuizID != quiz.ID || weekBoard.CurrentUser != nil {
		t.Fatalf("unexpected week board: %+v", weekBoard)
	}

	if _, err := boards.GetWeekLeaderboard(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 50, 0, 0); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for empty week, got %v", err)
	}

	allTime, err := boards.GetAllTimeLeaderboard(50, 0, alice.ID)
	if err != nil {
		t.Fatalf("all-time leaderboard: %v", err)
	}
	if allTime.Total != 2 || allTime.Leaderboard[0].Username != "alice" || allTime.Leaderboard[0].Points != 16 {
		t.Fatalf("unexpected all-time board: %+v", allTime.Leaderboard)
	}
	if allTime.CurrentUser == nil || allTime.CurrentUser.Rank != 1 {
		t.Fatalf("unexpected all-time current user: %+v", allTime.CurrentUser)
	}
}

func TestListPastQuizzesPlacement(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)
	boards := newLeaderboardService(env)

	alice := env.createUser(t, "alice")
	env.setNow(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	if err := env.quiz.JoinQuiz(alice.ID, quiz.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.quiz.SubmitQuiz(alice.ID, quiz.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	after := quiz.ClosesAt.Add(time.Hour)
	boards.now = func() time.Time { return after }

	list, err := boards.ListPastQuizzes(alice.ID, 50, 0)
	if err != nil {
		t.Fatalf("past quizzes: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("expected one closed quiz, got %+v", list)
	}
	item := list.Items[0]
	if item.QuizID != quiz.ID || item.Participants != 1 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.My == nil || item.My.Rank != 1 {
		t.Fatalf("expected own placement rank 1, got %+v", item.My)
	}

	anon, err := boards.ListPastQuizzes(0, 50, 0)
	if err != nil {
		t.Fatalf("past quizzes anonymous: %v", err)
	}
	if anon.Items[0].My != nil {
		t.Fatalf("expected no placement for anonymous caller, got %+v", anon.Items[0].My)
	}
}
