package service

import (
	"time"

	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
	"weekly_trivia_backend/pkg/logger"
	"weekly_trivia_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// warnTimeoutDays anchors a warned user's timeout to the quiz open time, not
// the moment of the action, so repeated warnings in one cycle share a bound.
const warnTimeoutDays = 14

// QuizService orchestrates the quiz lifecycle: every mutating operation runs
// in a single transaction and either commits whole or rolls back whole.
type QuizService struct {
	DB             *gorm.DB
	QuizRepo       *repository.QuizRepository
	SubmissionRepo *repository.SubmissionRepository
	UserRepo       *repository.UserRepository
	Scheduler      *SchedulerService
	Tokens         *TokenService

	now func() time.Time
}

func NewQuizService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	subRepo *repository.SubmissionRepository,
	userRepo *repository.UserRepository,
	scheduler *SchedulerService,
	tokens *TokenService,
) *QuizService {
	return &QuizService{
		DB:             db,
		QuizRepo:       quizRepo,
		SubmissionRepo: subRepo,
		UserRepo:       userRepo,
		Scheduler:      scheduler,
		Tokens:         tokens,
		now:            time.Now,
	}
}

// WeekMonday normalizes a date to the Monday of its week, UTC midnight.
func WeekMonday(d time.Time) time.Time {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// dayBonus rewards finishing early in the week: Monday earns 6 extra points,
// Sunday none.
func dayBonus(t time.Time) int {
	return 6 - (int(t.Weekday())+6)%7
}

type OptionInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text       string           `json:"text" binding:"required"`
	Category   model.Category   `json:"category"`
	Difficulty model.Difficulty `json:"difficulty"`
	Options    []OptionInput    `json:"options"`
}

type CreateQuizRequest struct {
	Title     string          `json:"title" binding:"required"`
	WeekStart time.Time       `json:"weekStartDate" binding:"required"`
	OpensAt   time.Time       `json:"opensAt" binding:"required"`
	ClosesAt  time.Time       `json:"closesAt" binding:"required"`
	Questions []QuestionInput `json:"questions"`
}

func validateQuestionInput(in *QuestionInput) error {
	if in.Text == "" {
		return util.ErrQuestionTextRequired
	}
	if in.Category == "" {
		in.Category = model.CategoryScience
	}
	if !in.Category.Valid() {
		return util.ErrInvalidCategory
	}
	if in.Difficulty == "" {
		in.Difficulty = model.DifficultyEasy
	}
	if !in.Difficulty.Valid() {
		return util.ErrInvalidDifficulty
	}
	for _, opt := range in.Options {
		if opt.Text == "" {
			return util.ErrOptionTextRequired
		}
	}
	return nil
}

func createQuestionTx(tx *gorm.DB, quizID uint, orderNo int, in *QuestionInput) (*model.Question, error) {
	question := &model.Question{
		QuizID:     quizID,
		OrderNo:    orderNo,
		Text:       in.Text,
		Category:   in.Category,
		Difficulty: in.Difficulty,
		Points:     in.Difficulty.Points(),
	}
	if err := tx.Create(question).Error; err != nil {
		return nil, err
	}
	for _, opt := range in.Options {
		option := &model.Option{
			QuestionID: question.ID,
			Text:       opt.Text,
			IsCorrect:  opt.IsCorrect,
		}
		if err := tx.Create(option).Error; err != nil {
			return nil, err
		}
		question.Options = append(question.Options, *option)
	}
	return question, nil
}

// CreateQuiz validates the window, creates the quiz with its questions in one
// transaction, and registers the close-time reset job.
func (s *QuizService) CreateQuiz(req CreateQuizRequest) (*model.Quiz, error) {
	if !req.OpensAt.Before(req.ClosesAt) {
		return nil, util.ErrInvalidTimeWindow
	}
	weekStart := WeekMonday(req.WeekStart)

	var quiz *model.Quiz
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		quizRepo := s.QuizRepo.WithTx(tx)
		if _, err := quizRepo.FindByWeekStart(weekStart); err == nil {
			return util.ErrWeekTaken
		} else if !repository.IsNotFound(err) {
			return err
		}

		quiz = &model.Quiz{
			Title:         req.Title,
			WeekStartDate: weekStart,
			OpensAt:       req.OpensAt,
			ClosesAt:      req.ClosesAt,
		}
		if err := tx.Create(quiz).Error; err != nil {
			if repository.IsDuplicateKey(err) {
				return util.ErrWeekTaken
			}
			return err
		}

		for i := range req.Questions {
			in := &req.Questions[i]
			if err := validateQuestionInput(in); err != nil {
				return err
			}
			question, err := createQuestionTx(tx, quiz.ID, i+1, in)
			if err != nil {
				return err
			}
			quiz.Questions = append(quiz.Questions, *question)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Scheduler.ScheduleQuizCloseReset(quiz.ID, quiz.ClosesAt)
	return quiz, nil
}

// editableQuiz loads the quiz and rejects structural edits once the window
// has opened.
func (s *QuizService) editableQuiz(tx *gorm.DB, quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.WithTx(tx).FindByID(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !s.now().Before(quiz.OpensAt) {
		return nil, util.ErrQuizStartedNoEdit
	}
	return quiz, nil
}

// AddQuestion appends one question at max order + 1.
func (s *QuizService) AddQuestion(quizID uint, in QuestionInput) (*model.Question, error) {
	if err := validateQuestionInput(&in); err != nil {
		return nil, err
	}
	var question *model.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.editableQuiz(tx, quizID); err != nil {
			return err
		}
		maxOrder, err := s.QuizRepo.WithTx(tx).MaxQuestionOrder(quizID)
		if err != nil {
			return err
		}
		question, err = createQuestionTx(tx, quizID, maxOrder+1, &in)
		return err
	})
	return question, err
}

type EditQuestionRequest struct {
	Text       *string           `json:"text"`
	Category   *model.Category   `json:"category"`
	Difficulty *model.Difficulty `json:"difficulty"`
	Options    []OptionInput     `json:"options"`
}

// EditQuestion patches the given fields; a non-nil Options slice replaces the
// full option set.
func (s *QuizService) EditQuestion(quizID, questionID uint, req EditQuestionRequest) (*model.Question, error) {
	var question *model.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.editableQuiz(tx, quizID); err != nil {
			return err
		}
		quizRepo := s.QuizRepo.WithTx(tx)
		var err error
		question, err = quizRepo.FindQuestion(quizID, questionID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		if req.Text != nil {
			if *req.Text == "" {
				return util.ErrQuestionTextRequired
			}
			question.Text = *req.Text
		}
		if req.Category != nil {
			if !req.Category.Valid() {
				return util.ErrInvalidCategory
			}
			question.Category = *req.Category
		}
		if req.Difficulty != nil {
			if !req.Difficulty.Valid() {
				return util.ErrInvalidDifficulty
			}
			question.Difficulty = *req.Difficulty
			question.Points = req.Difficulty.Points()
		}
		if err := tx.Model(&model.Question{}).Where("id = ?", question.ID).
			Updates(map[string]interface{}{
				"text":       question.Text,
				"category":   question.Category,
				"difficulty": question.Difficulty,
				"points":     question.Points,
			}).Error; err != nil {
			return err
		}

		if req.Options != nil {
			if err := quizRepo.DeleteOptionsForQuestion(question.ID); err != nil {
				return err
			}
			question.Options = nil
			for _, opt := range req.Options {
				if opt.Text == "" {
					return util.ErrOptionTextRequired
				}
				option := &model.Option{
					QuestionID: question.ID,
					Text:       opt.Text,
					IsCorrect:  opt.IsCorrect,
				}
				if err := tx.Create(option).Error; err != nil {
					return err
				}
				question.Options = append(question.Options, *option)
			}
		}
		return nil
	})
	return question, err
}

func (s *QuizService) DeleteQuestion(quizID, questionID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.editableQuiz(tx, quizID); err != nil {
			return err
		}
		quizRepo := s.QuizRepo.WithTx(tx)
		question, err := quizRepo.FindQuestion(quizID, questionID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuestionNotFound
			}
			return err
		}
		return quizRepo.DeleteQuestion(question)
	})
}

func (s *QuizService) PublishQuiz(quizID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		quizRepo := s.QuizRepo.WithTx(tx)
		if _, err := quizRepo.FindByID(quizID); err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuizNotFound
			}
			return err
		}
		return quizRepo.SetPublishedAt(quizID, s.now())
	})
}

// FinishQuiz closes a running quiz immediately: closes_at moves to now, the
// pending close job is cancelled (absence is fine), and the global join-status
// reset runs synchronously.
func (s *QuizService) FinishQuiz(quizID uint) error {
	now := s.now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		quizRepo := s.QuizRepo.WithTx(tx)
		quiz, err := quizRepo.FindByID(quizID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuizNotFound
			}
			return err
		}
		if now.Before(quiz.OpensAt) {
			return util.ErrQuizNotStarted
		}
		if now.After(quiz.ClosesAt) {
			return util.ErrQuizAlreadyClosed
		}
		return quizRepo.SetClosesAt(quizID, now)
	})
	if err != nil {
		return err
	}
	return s.Scheduler.ResetJoinStatusNow(quizID)
}

// JoinQuiz moves the user to joined for the active cycle. The time window is
// deliberately not checked here: joining before opens_at is allowed, only
// answering and submitting are window-gated.
func (s *QuizService) JoinQuiz(userID, quizID uint) error {
	now := s.now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.UserRepo.WithTx(tx)
		user, err := userRepo.FindByID(userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrUserNotFound
			}
			return err
		}
		if user.UserStatus == model.StatusBanned {
			return util.ErrUserBanned
		}
		if user.TimeoutExpired(now) {
			if err := userRepo.ClearTimeout(userID); err != nil {
				return err
			}
			user.Timeout = false
			user.TimeoutUntil = nil
		}
		if user.Timeout {
			return util.ErrUserTimeout
		}

		quiz, err := s.QuizRepo.WithTx(tx).FindByID(quizID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuizNotFound
			}
			return err
		}
		if !quiz.IsPublished() {
			return util.ErrQuizNotOpen
		}

		next, err := user.JoinStatus.Join()
		if err != nil {
			return err
		}
		return userRepo.UpdateJoinStatus(userID, next)
	})
}

type SaveAnswerResult struct {
	AttemptID     uint `json:"attemptId"`
	AnsweredCount int  `json:"answeredCount"`
	PartialScore  int  `json:"partialScore"`
}

// SaveAnswer upserts one answer on the draft submission, last write wins per
// question, and returns the running partial score recomputed from scratch.
func (s *QuizService) SaveAnswer(userID, quizID, questionID, optionID uint) (*SaveAnswerResult, error) {
	now := s.now()
	var result SaveAnswerResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := s.UserRepo.WithTx(tx).FindByID(userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrUserNotFound
			}
			return err
		}
		if err := user.JoinStatus.CanAnswer(); err != nil {
			return err
		}

		quizRepo := s.QuizRepo.WithTx(tx)
		quiz, err := quizRepo.FindWithQuestions(quizID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuizNotFound
			}
			return err
		}
		if !quiz.OpenAt(now) {
			return util.ErrQuizNotOpen
		}

		exists, err := quizRepo.QuestionExists(quizID, questionID)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrQuestionNotFound
		}
		belongs, err := quizRepo.OptionBelongs(optionID, questionID)
		if err != nil {
			return err
		}
		if !belongs {
			return util.ErrOptionMismatch
		}

		subRepo := s.SubmissionRepo.WithTx(tx)
		sub, err := subRepo.GetOrCreateDraft(quizID, userID)
		if err != nil {
			return err
		}
		if sub.Finalized() {
			return util.ErrAlreadySubmitted
		}

		if sub.Answers == nil {
			sub.Answers = model.AnswerMap{}
		}
		sub.Answers[questionID] = optionID
		if err := subRepo.SaveAnswers(sub); err != nil {
			return err
		}

		result = SaveAnswerResult{
			AttemptID:     sub.ID,
			AnsweredCount: len(sub.Answers),
			PartialScore:  ScoreAnswers(quiz.Questions, sub.Answers),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type SubmitResult struct {
	SubmissionID uint `json:"submissionId"`
	Score        int  `json:"score"`
	DayBonus     int  `json:"dayBonus"`
}

// SubmitQuiz finalizes the draft: final score plus the day-of-week bonus,
// cumulative points, join status -> submitted. The application-level
// "already submitted" checks are fast paths; the (quiz_id, user_id) unique
// index and the guarded finalize update are what actually prevent the
// concurrent double submit.
func (s *QuizService) SubmitQuiz(userID, quizID uint) (*SubmitResult, error) {
	now := s.now()
	var result SubmitResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.UserRepo.WithTx(tx)
		user, err := userRepo.FindByID(userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrUserNotFound
			}
			return err
		}
		if user.UserStatus == model.StatusBanned {
			return util.ErrUserBanned
		}
		if user.TimeoutExpired(now) {
			if err := userRepo.ClearTimeout(userID); err != nil {
				return err
			}
			user.Timeout = false
			user.TimeoutUntil = nil
		}
		if user.Timeout {
			return util.ErrUserTimeout
		}
		next, err := user.JoinStatus.Submit()
		if err != nil {
			return err
		}

		quiz, err := s.QuizRepo.WithTx(tx).FindWithQuestions(quizID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrQuizNotFound
			}
			return err
		}
		if !quiz.OpenAt(now) {
			return util.ErrQuizNotOpen
		}

		subRepo := s.SubmissionRepo.WithTx(tx)
		sub, err := subRepo.GetOrCreateDraft(quizID, userID)
		if err != nil {
			if repository.IsDuplicateKey(err) {
				return util.ErrDuplicateSubmission
			}
			return err
		}
		if sub.Finalized() {
			return util.ErrAlreadySubmitted
		}

		if sub.Answers == nil {
			sub.Answers = model.AnswerMap{}
		}
		bonus := dayBonus(now)
		total := ScoreAnswers(quiz.Questions, sub.Answers) + bonus

		finalized, err := subRepo.Finalize(sub.ID, now, total, sub.Answers)
		if err != nil {
			return err
		}
		if !finalized {
			// Lost the race: another transaction finalized this row first.
			return util.ErrDuplicateSubmission
		}

		if err := userRepo.AddPoints(userID, total); err != nil {
			return err
		}
		if err := userRepo.UpdateJoinStatus(userID, next); err != nil {
			return err
		}

		result = SubmitResult{SubmissionID: sub.ID, Score: total, DayBonus: bonus}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.SubmissionsTotal.Inc()
	logger.Log.Info("quiz submitted",
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", quizID),
		zap.Int("score", result.Score),
	)
	return &result, nil
}
