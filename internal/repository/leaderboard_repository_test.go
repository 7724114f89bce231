package repository_test

import (
	"testing"
	"time"

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
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, points int) *model.User {
	t.Helper()
	user := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		Role:       model.RoleUser,
		Points:     points,
		JoinStatus: model.NotJoined,
		UserStatus: model.StatusNormal,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedQuiz(t *testing.T, db *gorm.DB, weekStart time.Time) *model.Quiz {
	t.Helper()
	published := weekStart.Add(-time.Hour)
	quiz := &model.Quiz{
		WeekStartDate: weekStart,
		Title:         "Quiz " + weekStart.Format("2006-01-02"),
		OpensAt:       weekStart.Add(8 * time.Hour),
		ClosesAt:      weekStart.AddDate(0, 0, 6).Add(20 * time.Hour),
		PublishedAt:   &published,
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

func seedSubmission(t *testing.T, db *gorm.DB, quizID, userID uint, score int, submittedAt time.Time) *model.Submission {
	t.Helper()
	sub := &model.Submission{
		QuizID:      quizID,
		UserID:      userID,
		SubmittedAt: &submittedAt,
		Answers:     model.AnswerMap{},
		Score:       score,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("seed submission quiz=%d user=%d: %v", quizID, userID, err)
	}
	return sub
}

func TestQuizRowsDenseRank(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLeaderboardRepository(db)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	quiz := seedQuiz(t, db, week)
	base := quiz.OpensAt.Add(time.Hour)

	alice := seedUser(t, db, "alice", 0)
	bob := seedUser(t, db, "bob", 0)
	carol := seedUser(t, db, "carol", 0)

	seedSubmission(t, db, quiz.ID, alice.ID, 50, base)
	seedSubmission(t, db, quiz.ID, bob.ID, 50, base.Add(time.Minute))
	seedSubmission(t, db, quiz.ID, carol.ID, 30, base.Add(2*time.Minute))

	rows, total, err := repo.QuizRows(quiz.ID, 50, 0)
	if err != nil {
		t.Fatalf("quiz rows: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d (total %d)", len(rows), total)
	}

	wantRanks := []int{1, 1, 2}
	wantUsers := []string{"alice", "bob", "carol"}
	for i, row := range rows {
		if row.Rank != wantRanks[i] || row.Username != wantUsers[i] {
			t.Fatalf("row %d: got %s rank %d, want %s rank %d",
				i, row.Username, row.Rank, wantUsers[i], wantRanks[i])
		}
	}

	// another tied 30 keeps dense ranks: 1, 1, 2, 2
	dave := seedUser(t, db, "dave", 0)
	seedSubmission(t, db, quiz.ID, dave.ID, 30, base.Add(3*time.Minute))

	rows, _, err = repo.QuizRows(quiz.ID, 50, 0)
	if err != nil {
		t.Fatalf("quiz rows: %v", err)
	}
	wantRanks = []int{1, 1, 2, 2}
	for i, row := range rows {
		if row.Rank != wantRanks[i] {
			t.Fatalf("row %d (%s): got rank %d, want %d", i, row.Username, row.Rank, wantRanks[i])
		}
	}
}

func TestQuizRowsExcludesModerated(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLeaderboardRepository(db)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	quiz := seedQuiz(t, db, week)
	base := quiz.OpensAt.Add(time.Hour)

	clean := seedUser(t, db, "clean", 0)
	flagged := seedUser(t, db, "flagged", 0)
	banned := seedUser(t, db, "banned", 0)
	drafting := seedUser(t, db, "drafting", 0)

	seedSubmission(t, db, quiz.ID, clean.ID, 40, base)

	// warned snapshot on the row hides it for this quiz
	warned := model.StatusWarned
	sub := seedSubmission(t, db, quiz.ID, flagged.ID, 60, base)
	if err := db.Model(sub).Updates(map[string]interface{}{
		"user_status_at_action": warned,
		"action_time":           base,
	}).Error; err != nil {
		t.Fatalf("flag submission: %v", err)
	}

	// a permanent timeout (no bound) hides the user entirely
	seedSubmission(t, db, quiz.ID, banned.ID, 70, base)
	if err := db.Model(&model.User{}).Where("id = ?", banned.ID).Updates(map[string]interface{}{
		"user_status":   model.StatusBanned,
		"timeout":       true,
		"timeout_until": nil,
	}).Error; err != nil {
		t.Fatalf("ban user: %v", err)
	}

	// drafts never rank
	if err := db.Create(&model.Submission{
		QuizID:  quiz.ID,
		UserID:  drafting.ID,
		Answers: model.AnswerMap{},
		Score:   0,
	}).Error; err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	rows, total, err := repo.QuizRows(quiz.ID, 50, 0)
	if err != nil {
		t.Fatalf("quiz rows: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected one qualifying row, got %d (total %d)", len(rows), total)
	}
	if rows[0].Username != "clean" || rows[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", rows[0])
	}

	if row, err := repo.QuizUserRow(quiz.ID, flagged.ID); err != nil || row != nil {
		t.Fatalf("expected no row for flagged user, got %+v (err %v)", row, err)
	}
}

func TestQuizUserRowRanksOverFullSet(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLeaderboardRepository(db)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	quiz := seedQuiz(t, db, week)
	base := quiz.OpensAt.Add(time.Hour)

	var last *model.User
	for i, score := range []int{90, 80, 70, 60} {
		u := seedUser(t, db, []string{"a", "b", "c", "d"}[i], 0)
		seedSubmission(t, db, quiz.ID, u.ID, score, base.Add(time.Duration(i)*time.Minute))
		last = u
	}

	// page of one must not distort the caller's rank
	rows, _, err := repo.QuizRows(quiz.ID, 1, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected single page row, got %d (err %v)", len(rows), err)
	}

	row, err := repo.QuizUserRow(quiz.ID, last.ID)
	if err != nil {
		t.Fatalf("user row: %v", err)
	}
	if row == nil || row.Rank != 4 {
		t.Fatalf("expected rank 4, got %+v", row)
	}
}

func TestAllTimeRows(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLeaderboardRepository(db)

	seedUser(t, db, "first", 120)
	seedUser(t, db, "second", 120)
	seedUser(t, db, "third", 45)
	seedUser(t, db, "idle", 0)

	rows, total, err := repo.AllTimeRows(50, 0)
	if err != nil {
		t.Fatalf("all time rows: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("expected 3 scored users, got %d (total %d)", len(rows), total)
	}

	wantRanks := []int{1, 1, 2}
	wantUsers := []string{"first", "second", "third"}
	for i, row := range rows {
		if row.Rank != wantRanks[i] || row.Username != wantUsers[i] {
			t.Fatalf("row %d: got %s rank %d, want %s rank %d",
				i, row.Username, row.Rank, wantUsers[i], wantRanks[i])
		}
	}

	if row, err := repo.AllTimeUserRow(999); err != nil || row != nil {
		t.Fatalf("expected no row for unknown user, got %+v (err %v)", row, err)
	}
}

func TestPastQuizzes(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLeaderboardRepository(db)

	week1 := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	closed := seedQuiz(t, db, week1)
	open := seedQuiz(t, db, week2)

	alice := seedUser(t, db, "alice", 0)
	bob := seedUser(t, db, "bob", 0)

	base := closed.OpensAt.Add(time.Hour)
	seedSubmission(t, db, closed.ID, alice.ID, 40, base)
	seedSubmission(t, db, closed.ID, bob.ID, 55, base.Add(time.Minute))

	now := closed.ClosesAt.Add(time.Hour)
	if now.After(open.ClosesAt) {
		t.Fatalf("test clock %v must be inside the second quiz window", now)
	}

	// anonymous caller: placement columns stay NULL
	rows, total, err := repo.PastQuizzes(0, now, 50, 0)
	if err != nil {
		t.Fatalf("past quizzes: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected only the closed quiz, got %d (total %d)", len(rows), total)
	}
	if rows[0].QuizID != closed.ID || rows[0].Participants != 2 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].MyRank != nil || rows[0].MyScore != nil {
		t.Fatalf("expected NULL placement for anonymous caller, got %+v", rows[0])
	}

	rows, _, err = repo.PastQuizzes(alice.ID, now, 50, 0)
	if err != nil {
		t.Fatalf("past quizzes for alice: %v", err)
	}
	if rows[0].MyRank == nil || *rows[0].MyRank != 2 {
		t.Fatalf("expected alice ranked 2, got %+v", rows[0].MyRank)
	}
	if rows[0].MyScore == nil || *rows[0].MyScore != 40 {
		t.Fatalf("expected alice score 40, got %+v", rows[0].MyScore)
	}
}
