package repository

import (
	"time"

	"weekly_trivia_backend/internal/model"

	"gorm.io/gorm"
)

// LeaderboardRepository holds the window-function ranking queries. Ranks are
// dense: tied scores share a rank and the next distinct score continues at
// rank+1. Ties break on earlier submission time.
type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

// QuizRow is one ranked leaderboard entry for a single quiz.
type QuizRow struct {
	QuizID      uint       `gorm:"column:quiz_id" json:"quizId"`
	UserID      uint       `gorm:"column:user_id" json:"userId"`
	Username    string     `gorm:"column:username" json:"username"`
	Score       int        `gorm:"column:score" json:"score"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submittedAt"`
	Rank        int        `gorm:"column:ranking" json:"rank"`
}

// AllTimeRow is one entry of the cumulative-points leaderboard.
type AllTimeRow struct {
	UserID   uint   `gorm:"column:user_id" json:"userId"`
	Username string `gorm:"column:username" json:"username"`
	Points   int    `gorm:"column:points" json:"points"`
	Rank     int    `gorm:"column:ranking" json:"rank"`
}

// PastQuizRow is a closed quiz annotated with the caller's own placement.
type PastQuizRow struct {
	QuizID        uint       `gorm:"column:quiz_id" json:"quizId"`
	Title         string     `gorm:"column:title" json:"title"`
	WeekStartDate time.Time  `gorm:"column:week_start_date" json:"weekStartDate"`
	OpensAt       time.Time  `gorm:"column:opens_at" json:"opensAt"`
	ClosesAt      time.Time  `gorm:"column:closes_at" json:"closesAt"`
	Participants  int64      `gorm:"column:participants" json:"participants"`
	MyRank        *int       `gorm:"column:my_rank" json:"-"`
	MyScore       *int       `gorm:"column:my_score" json:"-"`
	MySubmittedAt *time.Time `gorm:"column:my_submitted_at" json:"-"`
}

// Shared filter: drafts never rank, a permanent ban (timeout with no bound)
// hides the user everywhere, and a warned/banned snapshot on the row hides it
// for that quiz only.
const qualifyingSubmission = `
	s.submitted_at IS NOT NULL
	AND NOT (u.timeout AND u.timeout_until IS NULL)
	AND (s.user_status_at_action IS NULL
		OR s.user_status_at_action NOT IN ('warned', 'banned'))`

// QuizRows returns one leaderboard page plus the total count under the same
// predicate.
func (r *LeaderboardRepository) QuizRows(quizID uint, limit, offset int) ([]QuizRow, int64, error) {
	var rows []QuizRow
	err := r.DB.Raw(`
		SELECT s.quiz_id, s.user_id, u.username, s.score, s.submitted_at,
			DENSE_RANK() OVER (ORDER BY s.score DESC, s.submitted_at ASC) AS ranking
		FROM quiz_submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.quiz_id = ? AND `+qualifyingSubmission+`
		ORDER BY s.score DESC, s.submitted_at ASC
		LIMIT ? OFFSET ?`,
		quizID, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.DB.Raw(`
		SELECT COUNT(*)
		FROM quiz_submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.quiz_id = ? AND `+qualifyingSubmission,
		quizID).Scan(&total).Error
	return rows, total, err
}

// QuizUserRow returns the caller's own ranked row, or nil if they have no
// qualifying submission. The rank is computed over the full filtered set, not
// the requested page.
func (r *LeaderboardRepository) QuizUserRow(quizID, userID uint) (*QuizRow, error) {
	var rows []QuizRow
	err := r.DB.Raw(`
		SELECT * FROM (
			SELECT s.quiz_id, s.user_id, u.username, s.score, s.submitted_at,
				DENSE_RANK() OVER (ORDER BY s.score DESC, s.submitted_at ASC) AS ranking
			FROM quiz_submissions s
			JOIN users u ON u.id = s.user_id
			WHERE s.quiz_id = ? AND `+qualifyingSubmission+`
		) ranked
		WHERE ranked.user_id = ?`,
		quizID, userID).Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *LeaderboardRepository) AllTimeRows(limit, offset int) ([]AllTimeRow, int64, error) {
	var rows []AllTimeRow
	err := r.DB.Raw(`
		SELECT u.id AS user_id, u.username, u.points,
			DENSE_RANK() OVER (ORDER BY u.points DESC, u.created_at ASC) AS ranking
		FROM users u
		WHERE u.points > 0
		ORDER BY u.points DESC, u.created_at ASC
		LIMIT ? OFFSET ?`,
		limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.DB.Model(&model.User{}).Where("points > 0").Count(&total).Error
	return rows, total, err
}

func (r *LeaderboardRepository) AllTimeUserRow(userID uint) (*AllTimeRow, error) {
	var rows []AllTimeRow
	err := r.DB.Raw(`
		SELECT * FROM (
			SELECT u.id AS user_id, u.username, u.points,
				DENSE_RANK() OVER (ORDER BY u.points DESC, u.created_at ASC) AS ranking
			FROM users u
			WHERE u.points > 0
		) ranked
		WHERE ranked.user_id = ?`,
		userID).Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// PastQuizzes lists closed quizzes newest week first. userID 0 means
// anonymous: the my_* columns come back NULL. Participants counts every
// finalized submission for the quiz; the my_* placement applies the full
// qualifying filter.
func (r *LeaderboardRepository) PastQuizzes(userID uint, now time.Time, limit, offset int) ([]PastQuizRow, int64, error) {
	var rows []PastQuizRow
	err := r.DB.Raw(`
		SELECT q.id AS quiz_id, q.title, q.week_start_date, q.opens_at, q.closes_at,
			(SELECT COUNT(*) FROM quiz_submissions s2
				WHERE s2.quiz_id = q.id AND s2.submitted_at IS NOT NULL) AS participants,
			mine.ranking AS my_rank, mine.score AS my_score, mine.submitted_at AS my_submitted_at
		FROM quizzes q
		LEFT JOIN (
			SELECT s.quiz_id, s.user_id, s.score, s.submitted_at,
				DENSE_RANK() OVER (
					PARTITION BY s.quiz_id
					ORDER BY s.score DESC, s.submitted_at ASC
				) AS ranking
			FROM quiz_submissions s
			JOIN users u ON u.id = s.user_id
			WHERE `+qualifyingSubmission+`
		) mine ON mine.quiz_id = q.id AND mine.user_id = ?
		WHERE q.closes_at < ?
		ORDER BY q.week_start_date DESC, q.id DESC
		LIMIT ? OFFSET ?`,
		userID, now, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.DB.Model(&model.Quiz{}).Where("closes_at < ?", now).Count(&total).Error
	return rows, total, err
}
