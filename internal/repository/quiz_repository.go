package repository

import (
	"time"

	"weekly_trivia_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	return &quiz, err
}

// FindWithQuestions loads the quiz with its ordered questions and options.
func (r *QuizRepository) FindWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_no ASC")
		}).
		Preload("Questions.Options").
		First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) FindByWeekStart(weekStart time.Time) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("week_start_date = ?", weekStart).First(&quiz).Error
	return &quiz, err
}

// FindActive returns the published quiz whose window contains now, if any.
func (r *QuizRepository) FindActive(now time.Time) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_no ASC")
		}).
		Preload("Questions.Options").
		Where("opens_at <= ? AND closes_at >= ? AND published_at IS NOT NULL", now, now).
		First(&quiz).Error
	return &quiz, err
}

// FindClosingAfter returns quizzes whose close time is still in the future.
func (r *QuizRepository) FindClosingAfter(now time.Time) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("closes_at > ?", now).Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) SetPublishedAt(quizID uint, when time.Time) error {
	return r.DB.Model(&model.Quiz{}).
		Where("id = ?", quizID).
		Update("published_at", when).Error
}

func (r *QuizRepository) SetClosesAt(quizID uint, when time.Time) error {
	return r.DB.Model(&model.Quiz{}).
		Where("id = ?", quizID).
		Update("closes_at", when).Error
}

func (r *QuizRepository) QuestionExists(quizID, questionID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		Count(&count).Error
	return count > 0, err
}

func (r *QuizRepository) OptionBelongs(optionID, questionID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Option{}).
		Where("id = ? AND question_id = ?", optionID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *QuizRepository) MaxQuestionOrder(quizID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(order_no), 0)").
		Scan(&max).Error
	return max, err
}

func (r *QuizRepository) FindQuestion(quizID, questionID uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.
		Preload("Options").
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		First(&question).Error
	return &question, err
}

func (r *QuizRepository) FindQuestionByOrder(quizID uint, orderNo int) (*model.Question, error) {
	var question model.Question
	err := r.DB.
		Preload("Options").
		Where("quiz_id = ? AND order_no = ?", quizID, orderNo).
		First(&question).Error
	return &question, err
}

func (r *QuizRepository) CreateQuestion(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuizRepository) CreateOption(option *model.Option) error {
	return r.DB.Create(option).Error
}

func (r *QuizRepository) DeleteOptionsForQuestion(questionID uint) error {
	return r.DB.Where("question_id = ?", questionID).Delete(&model.Option{}).Error
}

// DeleteQuestion removes the question and its options, then compacts
// order numbers above it so the 1..N sequence stays contiguous. The shift
// walks ascending one row at a time; a bulk decrement can trip the
// (quiz_id, order_no) unique constraint mid-statement.
func (r *QuizRepository) DeleteQuestion(question *model.Question) error {
	if err := r.DeleteOptionsForQuestion(question.ID); err != nil {
		return err
	}
	if err := r.DB.Delete(&model.Question{}, question.ID).Error; err != nil {
		return err
	}
	var above []model.Question
	if err := r.DB.
		Where("quiz_id = ? AND order_no > ?", question.QuizID, question.OrderNo).
		Order("order_no ASC").
		Find(&above).Error; err != nil {
		return err
	}
	for _, q := range above {
		if err := r.DB.Model(&model.Question{}).
			Where("id = ?", q.ID).
			Update("order_no", q.OrderNo-1).Error; err != nil {
			return err
		}
	}
	return nil
}
