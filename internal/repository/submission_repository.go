package repository

import (
	"time"

	"weekly_trivia_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) WithTx(tx *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: tx}
}

func (r *SubmissionRepository) FindForUser(quizID, userID uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.Where("quiz_id = ? AND user_id = ?", quizID, userID).First(&sub).Error
	return &sub, err
}

// GetOrCreateDraft returns the single submission row for the pair, creating
// an empty draft when none exists. A concurrent insert losing the race on the
// unique index falls back to re-reading the winner's row.
func (r *SubmissionRepository) GetOrCreateDraft(quizID, userID uint) (*model.Submission, error) {
	sub, err := r.FindForUser(quizID, userID)
	if err == nil {
		return sub, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	draft := &model.Submission{
		QuizID:  quizID,
		UserID:  userID,
		Answers: model.AnswerMap{},
	}
	if err := r.DB.Create(draft).Error; err != nil {
		if IsDuplicateKey(err) {
			return r.FindForUser(quizID, userID)
		}
		return nil, err
	}
	return draft, nil
}

func (r *SubmissionRepository) SaveAnswers(sub *model.Submission) error {
	return r.DB.Model(sub).Update("answers", sub.Answers).Error
}

// Finalize stamps the submission exactly once. The guard on submitted_at
// keeps a concurrent finalize from double-writing.
func (r *SubmissionRepository) Finalize(subID uint, when time.Time, score int, answers model.AnswerMap) (bool, error) {
	res := r.DB.Model(&model.Submission{}).
		Where("id = ? AND submitted_at IS NULL", subID).
		Updates(map[string]interface{}{
			"submitted_at": when,
			"score":        score,
			"answers":      answers,
		})
	return res.RowsAffected == 1, res.Error
}

// SetActionSnapshot records a moderation action on the submission row so the
// leaderboard can exclude the user for this quiz without touching history.
func (r *SubmissionRepository) SetActionSnapshot(subID uint, actionTime time.Time, status model.UserStatus) error {
	return r.DB.Model(&model.Submission{}).
		Where("id = ?", subID).
		Updates(map[string]interface{}{
			"action_time":           actionTime,
			"user_status_at_action": status,
		}).Error
}

func (r *SubmissionRepository) CountSubmitted(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("quiz_id = ? AND submitted_at IS NOT NULL", quizID).
		Count(&count).Error
	return count, err
}
