package service

import (
	"fmt"
	"time"

	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/pkg/logger"
	"weekly_trivia_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	closeResetJobPrefix = "reset-join-status-"
	tokenCleanupJobID   = "cleanup-tokens-daily"
)

// SchedulerService bridges quiz lifecycle events onto the scheduler: one
// replaceable close-reset job per quiz, and the recurring token cleanup. It
// runs on its own timer goroutines and opens its own transaction scope per
// fire; it never borrows a request's context.
type SchedulerService struct {
	DB       *gorm.DB
	QuizRepo *repository.QuizRepository
	UserRepo *repository.UserRepository
	Tokens   *TokenService
	Sched    Scheduler

	now func() time.Time
}

func NewSchedulerService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	userRepo *repository.UserRepository,
	tokens *TokenService,
	sched Scheduler,
) *SchedulerService {
	return &SchedulerService{
		DB:       db,
		QuizRepo: quizRepo,
		UserRepo: userRepo,
		Tokens:   tokens,
		Sched:    sched,
		now:      time.Now,
	}
}

func closeResetJobID(quizID uint) string {
	return fmt.Sprintf("%s%d", closeResetJobPrefix, quizID)
}

// ScheduleQuizCloseReset registers (or replaces) the one-shot reset job for
// the quiz, firing at closes_at, normalized to UTC.
func (s *SchedulerService) ScheduleQuizCloseReset(quizID uint, closesAt time.Time) {
	jobID := closeResetJobID(quizID)
	fireAt := closesAt.UTC()
	if err := s.Sched.Schedule(jobID, fireAt, func() {
		s.HandleQuizClose(quizID)
	}); err != nil {
		logger.Log.Error("failed to schedule quiz close reset",
			zap.Uint("quiz_id", quizID),
			zap.Time("fire_at", fireAt),
			zap.Error(err),
		)
		return
	}
	logger.Log.Info("scheduled quiz close reset",
		zap.Uint("quiz_id", quizID),
		zap.Time("fire_at", fireAt),
	)
}

// HandleQuizClose is the fire path. It re-reads the quiz: a missing quiz or
// one whose closes_at moved into the future (edited after scheduling) means
// the job is stale, so it skips rather than resetting blindly. Skips are
// logged, never raised; nothing here may take down the timer thread.
func (s *SchedulerService) HandleQuizClose(quizID uint) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Log.Warn("quiz not found, skipping scheduled reset",
				zap.Uint("quiz_id", quizID))
		} else {
			logger.Log.Error("failed to load quiz for scheduled reset",
				zap.Uint("quiz_id", quizID), zap.Error(err))
		}
		return
	}
	if s.now().Before(quiz.ClosesAt) {
		logger.Log.Warn("scheduled reset skipped: quiz not yet closed",
			zap.Uint("quiz_id", quizID),
			zap.Time("closes_at", quiz.ClosesAt),
		)
		return
	}
	if _, err := s.resetAllJoinStatuses(); err != nil {
		logger.Log.Error("scheduled join-status reset failed",
			zap.Uint("quiz_id", quizID), zap.Error(err))
	}
}

// ResetJoinStatusNow is the manual finish path: cancel the pending job for
// the quiz (absence is not an error) and run the same reset synchronously.
func (s *SchedulerService) ResetJoinStatusNow(quizID uint) error {
	s.Sched.Cancel(closeResetJobID(quizID))
	_, err := s.resetAllJoinStatuses()
	return err
}

// resetAllJoinStatuses returns every participant to not_joined. The reset is
// global rather than scoped to the fired quiz, which is correct only while
// at most one quiz is active per cycle.
func (s *SchedulerService) resetAllJoinStatuses() (int64, error) {
	var updated int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.UserRepo.WithTx(tx).ResetJoinStatuses()
		return err
	})
	if err != nil {
		return 0, err
	}
	monitoring.JoinStatusResetsTotal.Inc()
	logger.Log.Info("join status reset", zap.Int64("users", updated))
	return updated, nil
}

// StartDailyTokenCleanup registers the recurring credential sweep,
// independent of quiz cycles.
func (s *SchedulerService) StartDailyTokenCleanup(hour, minute int) {
	err := s.Sched.ScheduleDaily(tokenCleanupJobID, hour, minute, func() {
		if err := s.Tokens.CleanupExpired(); err != nil {
			logger.Log.Error("token cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Error("failed to schedule token cleanup", zap.Error(err))
	}
}

// RearmCloseResets re-registers close jobs after a restart; scheduled jobs
// live only in memory.
func (s *SchedulerService) RearmCloseResets() error {
	quizzes, err := s.QuizRepo.FindClosingAfter(s.now())
	if err != nil {
		return err
	}
	for _, quiz := range quizzes {
		s.ScheduleQuizCloseReset(quiz.ID, quiz.ClosesAt)
	}
	return nil
}
