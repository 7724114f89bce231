package service

import (
	"testing"
	"time"

	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeScheduler records registrations so tests can assert on the keyed
// replace and cancel semantics without real timers.
type fakeScheduler struct {
	scheduled map[string]time.Time
	daily     map[string][2]int
	canceled  []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled: make(map[string]time.Time),
		daily:     make(map[string][2]int),
	}
}

func (f *fakeScheduler) Schedule(jobID string, at time.Time, task func()) error {
	f.scheduled[jobID] = at
	return nil
}

func (f *fakeScheduler) ScheduleDaily(jobID string, hour, minute int, task func()) error {
	f.daily[jobID] = [2]int{hour, minute}
	return nil
}

func (f *fakeScheduler) Cancel(jobID string) {
	delete(f.scheduled, jobID)
	f.canceled = append(f.canceled, jobID)
}

func (f *fakeScheduler) Shutdown() error { return nil }

type testEnv struct {
	db    *gorm.DB
	users *repository.UserRepository
	subs  *repository.SubmissionRepository

	sched     *fakeScheduler
	scheduler *SchedulerService
	tokens    *TokenService
	auth      *AuthService
	quiz      *QuizService
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:        "test-secret",
			AccessExpire:  15 * time.Minute,
			RefreshExpire: 24 * time.Hour,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()

	users := repository.NewUserRepository(db)
	quizzes := repository.NewQuizRepository(db)
	subs := repository.NewSubmissionRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	sched := newFakeScheduler()
	tokens := NewTokenService(tokenRepo, cfg)
	scheduler := NewSchedulerService(db, quizzes, users, tokens, sched)
	quiz := NewQuizService(db, quizzes, subs, users, scheduler, tokens)
	auth := NewAuthService(users, tokens, cfg)

	return &testEnv{
		db:        db,
		users:     users,
		subs:      subs,
		sched:     sched,
		scheduler: scheduler,
		tokens:    tokens,
		auth:      auth,
		quiz:      quiz,
	}
}

func (e *testEnv) setNow(ts time.Time) {
	e.quiz.now = func() time.Time { return ts }
	e.scheduler.now = func() time.Time { return ts }
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		Role:       model.RoleUser,
		JoinStatus: model.NotJoined,
		UserStatus: model.StatusNormal,
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) reloadUser(t *testing.T, id uint) *model.User {
	t.Helper()
	user, err := e.users.FindByID(id)
	if err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return user
}

// mondayQuiz installs and publishes a quiz for the week of 2026-03-02 with a
// single medium question whose second option is correct.
func (e *testEnv) mondayQuiz(t *testing.T) *model.Quiz {
	t.Helper()
	opens := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	closes := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	e.setNow(opens.Add(-24 * time.Hour))

	quiz, err := e.quiz.CreateQuiz(CreateQuizRequest{
		Title:     "Week of March 2nd",
		WeekStart: opens,
		OpensAt:   opens,
		ClosesAt:  closes,
		Questions: []QuestionInput{
			{
				Text:       "Which planet is closest to the sun?",
				Category:   model.CategoryScience,
				Difficulty: model.DifficultyMedium,
				Options: []OptionInput{
					{Text: "Venus"},
					{Text: "Mercury", IsCorrect: true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if err := e.quiz.PublishQuiz(quiz.ID); err != nil {
		t.Fatalf("publish quiz: %v", err)
	}
	return quiz
}
