package service

import (
	"time"

	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
	"weekly_trivia_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Moderation actions snapshot themselves onto the user's submission row for
// the quiz, creating a draft on demand. The snapshot is structural: it is how
// the leaderboard hides the user for that quiz without touching score
// history.

func (s *QuizService) loadModerationPair(tx *gorm.DB, userID, quizID uint) (*model.User, *model.Quiz, error) {
	user, err := s.UserRepo.WithTx(tx).FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, util.ErrUserNotFound
		}
		return nil, nil, err
	}
	quiz, err := s.QuizRepo.WithTx(tx).FindByID(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, util.ErrQuizNotFound
		}
		return nil, nil, err
	}
	return user, quiz, nil
}

func (s *QuizService) snapshotAction(tx *gorm.DB, quizID, userID uint, when time.Time, status model.UserStatus) error {
	subRepo := s.SubmissionRepo.WithTx(tx)
	sub, err := subRepo.GetOrCreateDraft(quizID, userID)
	if err != nil {
		return err
	}
	return subRepo.SetActionSnapshot(sub.ID, when, status)
}

// WarnUser puts the user in a bounded timeout anchored to the quiz open
// time.
func (s *QuizService) WarnUser(userID, quizID uint) error {
	now := s.now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		user, quiz, err := s.loadModerationPair(tx, userID, quizID)
		if err != nil {
			return err
		}
		if _, err := user.UserStatus.Warn(); err != nil {
			return err
		}

		until := quiz.OpensAt.AddDate(0, 0, warnTimeoutDays)
		if err := s.UserRepo.WithTx(tx).SetWarnedTimeout(userID, until); err != nil {
			return err
		}
		return s.snapshotAction(tx, quizID, userID, now, model.StatusWarned)
	})
}

// BanUser permanently suspends the user: timeout with no bound. Outstanding
// refresh tokens are revoked after commit, best effort; a failure there is
// logged and never unwinds the ban.
func (s *QuizService) BanUser(userID, quizID uint) error {
	now := s.now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, _, err := s.loadModerationPair(tx, userID, quizID)
		if err != nil {
			return err
		}
		if _, err := user.UserStatus.Ban(); err != nil {
			return err
		}

		if err := s.UserRepo.WithTx(tx).SetBanned(userID); err != nil {
			return err
		}
		return s.snapshotAction(tx, quizID, userID, now, model.StatusBanned)
	})
	if err != nil {
		return err
	}

	if err := s.Tokens.RevokeAllForUser(userID); err != nil {
		logger.Log.Error("failed to revoke sessions for banned user",
			zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
