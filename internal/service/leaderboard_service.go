package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
	"weekly_trivia_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// leaderboardCacheTTL bounds staleness of cached pages. Pages are not
// invalidated on submit; a few seconds of lag is acceptable for a ranking
// view.
const leaderboardCacheTTL = 30 * time.Second

type LeaderboardService struct {
	Repo     *repository.LeaderboardRepository
	QuizRepo *repository.QuizRepository
	Redis    *redis.Client

	now func() time.Time
}

func NewLeaderboardService(repo *repository.LeaderboardRepository, quizRepo *repository.QuizRepository, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{
		Repo:     repo,
		QuizRepo: quizRepo,
		Redis:    rdb,
		now:      time.Now,
	}
}

type QuizLeaderboard struct {
	QuizID      uint                 `json:"quizId"`
	Leaderboard []repository.QuizRow `json:"leaderboard"`
	CurrentUser *repository.QuizRow  `json:"currentUser"`
	Total       int64                `json:"total"`
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *LeaderboardService) cacheGet(key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	val, err := s.Redis.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (s *LeaderboardService) cacheSet(key string, value interface{}) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.Redis.Set(context.Background(), key, data, leaderboardCacheTTL).Err(); err != nil {
		logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
	}
}

// GetQuizLeaderboard returns one dense-ranked page for the quiz plus, when a
// caller id is given, that caller's own row ranked over the full set.
func (s *LeaderboardService) GetQuizLeaderboard(quizID uint, limit, offset int, userID uint) (*QuizLeaderboard, error) {
	limit, offset = clampPage(limit, offset)

	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	var board QuizLeaderboard
	key := fmt.Sprintf("lb:quiz:%d:%d:%d", quizID, limit, offset)
	if !s.cacheGet(key, &board) {
		rows, total, err := s.Repo.QuizRows(quizID, limit, offset)
		if err != nil {
			return nil, err
		}
		board = QuizLeaderboard{QuizID: quizID, Leaderboard: rows, Total: total}
		s.cacheSet(key, board)
	}

	if userID != 0 {
		row, err := s.Repo.QuizUserRow(quizID, userID)
		if err != nil {
			return nil, err
		}
		board.CurrentUser = row
	}
	return &board, nil
}

// GetWeekLeaderboard resolves the quiz for the Monday-normalized week and
// delegates.
func (s *LeaderboardService) GetWeekLeaderboard(weekStart time.Time, limit, offset int, userID uint) (*QuizLeaderboard, error) {
	quiz, err := s.QuizRepo.FindByWeekStart(WeekMonday(weekStart))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return s.GetQuizLeaderboard(quiz.ID, limit, offset, userID)
}

type AllTimeLeaderboard struct {
	Leaderboard []repository.AllTimeRow `json:"leaderboard"`
	CurrentUser *repository.AllTimeRow  `json:"currentUser"`
	Total       int64                   `json:"total"`
}

// GetAllTimeLeaderboard ranks cumulative points, restricted to users who
// have scored at all.
func (s *LeaderboardService) GetAllTimeLeaderboard(limit, offset int, userID uint) (*AllTimeLeaderboard, error) {
	limit, offset = clampPage(limit, offset)

	var board AllTimeLeaderboard
	key := fmt.Sprintf("lb:alltime:%d:%d", limit, offset)
	if !s.cacheGet(key, &board) {
		rows, total, err := s.Repo.AllTimeRows(limit, offset)
		if err != nil {
			return nil, err
		}
		board = AllTimeLeaderboard{Leaderboard: rows, Total: total}
		s.cacheSet(key, board)
	}

	if userID != 0 {
		row, err := s.Repo.AllTimeUserRow(userID)
		if err != nil {
			return nil, err
		}
		board.CurrentUser = row
	}
	return &board, nil
}

type MyPlacement struct {
	Rank        int        `json:"rank"`
	Score       int        `json:"score"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

type PastQuizItem struct {
	QuizID        uint         `json:"quizId"`
	Title         string       `json:"title"`
	WeekStartDate time.Time    `json:"weekStartDate"`
	OpensAt       time.Time    `json:"opensAt"`
	ClosesAt      time.Time    `json:"closesAt"`
	Participants  int64        `json:"participants"`
	My            *MyPlacement `json:"my"`
}

type PastQuizList struct {
	Items  []PastQuizItem `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListPastQuizzes lists closed quizzes newest week first, each with its
// participant count and, for an authenticated caller, their own placement
// (nil when they have no qualifying submission).
func (s *LeaderboardService) ListPastQuizzes(userID uint, limit, offset int) (*PastQuizList, error) {
	limit, offset = clampPage(limit, offset)

	rows, total, err := s.Repo.PastQuizzes(userID, s.now(), limit, offset)
	if err != nil {
		return nil, err
	}

	list := &PastQuizList{Total: total, Limit: limit, Offset: offset}
	for _, r := range rows {
		item := PastQuizItem{
			QuizID:        r.QuizID,
			Title:         r.Title,
			WeekStartDate: r.WeekStartDate,
			OpensAt:       r.OpensAt,
			ClosesAt:      r.ClosesAt,
			Participants:  r.Participants,
		}
		if r.MyRank != nil {
			item.My = &MyPlacement{
				Rank:        *r.MyRank,
				SubmittedAt: r.MySubmittedAt,
			}
			if r.MyScore != nil {
				item.My.Score = *r.MyScore
			}
		}
		list.Items = append(list.Items, item)
	}
	return list, nil
}
