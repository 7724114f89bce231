package service

import (
	"time"

	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
)

// Read-side views. The public paper never leaks is_correct; the admin paper
// carries everything.

type OptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID         uint             `json:"id"`
	Order      int              `json:"order"`
	Text       string           `json:"text"`
	Category   model.Category   `json:"category"`
	Difficulty model.Difficulty `json:"difficulty,omitempty"`
	Points     int              `json:"points,omitempty"`
	Options    []OptionView     `json:"options"`
}

type QuizPaper struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	WeekStartDate time.Time      `json:"weekStartDate"`
	OpensAt       time.Time      `json:"opensAt"`
	ClosesAt      time.Time      `json:"closesAt"`
	Questions     []QuestionView `json:"questions"`
}

func optionView(o *model.Option, admin bool) OptionView {
	view := OptionView{ID: o.ID, Text: o.Text}
	if admin {
		correct := o.IsCorrect
		view.IsCorrect = &correct
	}
	return view
}

func questionView(q *model.Question, admin bool) QuestionView {
	view := QuestionView{
		ID:       q.ID,
		Order:    q.OrderNo,
		Text:     q.Text,
		Category: q.Category,
	}
	if admin {
		view.Difficulty = q.Difficulty
		view.Points = q.Points
	}
	for i := range q.Options {
		view.Options = append(view.Options, optionView(&q.Options[i], admin))
	}
	return view
}

func quizPaper(quiz *model.Quiz, admin bool) *QuizPaper {
	paper := &QuizPaper{
		ID:            quiz.ID,
		Title:         quiz.Title,
		WeekStartDate: quiz.WeekStartDate,
		OpensAt:       quiz.OpensAt,
		ClosesAt:      quiz.ClosesAt,
	}
	for i := range quiz.Questions {
		paper.Questions = append(paper.Questions, questionView(&quiz.Questions[i], admin))
	}
	return paper
}

type ActiveQuizView struct {
	Active       bool       `json:"active"`
	Quiz         *QuizPaper `json:"quiz,omitempty"`
	Participants int64      `json:"participants,omitempty"`
}

// GetActiveQuiz returns the published quiz whose window contains now, as the
// public paper, with the participant count for the cycle.
func (s *QuizService) GetActiveQuiz() (*ActiveQuizView, error) {
	quiz, err := s.QuizRepo.FindActive(s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return &ActiveQuizView{Active: false}, nil
		}
		return nil, err
	}
	participants, err := s.UserRepo.CountParticipants()
	if err != nil {
		return nil, err
	}
	return &ActiveQuizView{
		Active:       true,
		Quiz:         quizPaper(quiz, false),
		Participants: participants,
	}, nil
}

func (s *QuizService) GetQuizPaperAdmin(quizID uint) (*QuizPaper, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quizPaper(quiz, true), nil
}

func (s *QuizService) GetQuizPaperPublic(quizID uint) (*QuizPaper, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quizPaper(quiz, false), nil
}

type QuestionByOrderView struct {
	Question QuestionView `json:"question"`
	HasNext  bool         `json:"hasNext"`
	MaxOrder int          `json:"maxOrder"`
}

// GetQuestionByOrder serves the linear question flow: one public question
// plus whether a next one exists.
func (s *QuizService) GetQuestionByOrder(quizID uint, orderNo int) (*QuestionByOrderView, error) {
	question, err := s.QuizRepo.FindQuestionByOrder(quizID, orderNo)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		if _, qerr := s.QuizRepo.FindByID(quizID); repository.IsNotFound(qerr) {
			return nil, util.ErrQuizNotFound
		}
		return nil, util.ErrQuestionNotFound
	}
	maxOrder, err := s.QuizRepo.MaxQuestionOrder(quizID)
	if err != nil {
		return nil, err
	}
	return &QuestionByOrderView{
		Question: questionView(question, false),
		HasNext:  orderNo < maxOrder,
		MaxOrder: maxOrder,
	}, nil
}

type MyAnswerRow struct {
	QuestionID       uint         `json:"questionId"`
	Order            int          `json:"order"`
	Text             string       `json:"text"`
	ChosenOptionID   uint         `json:"chosenOptionId"`
	ChosenOptionText string       `json:"chosenOptionText"`
	IsCorrect        *bool        `json:"isCorrect,omitempty"`
	CorrectOptions   []OptionView `json:"correctOptions,omitempty"`
	Points           int          `json:"points,omitempty"`
}

type MyAnswersView struct {
	QuizID            uint          `json:"quizId"`
	Title             string        `json:"title"`
	Submitted         bool          `json:"submitted"`
	SubmittedAt       *time.Time    `json:"submittedAt"`
	Answers           []MyAnswerRow `json:"answers"`
	RevealCorrectness bool          `json:"revealCorrectness"`
	Score             *int          `json:"score,omitempty"`
}

// GetMyAnswers lists the caller's saved answers. Correctness, correct
// options, and the score are revealed only once the quiz has closed.
func (s *QuizService) GetMyAnswers(quizID, userID uint) (*MyAnswersView, error) {
	now := s.now()
	quiz, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	sub, err := s.SubmissionRepo.FindForUser(quizID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	if len(sub.Answers) == 0 {
		return nil, util.ErrSubmissionNotFound
	}

	reveal := !now.Before(quiz.ClosesAt)

	questions := make(map[uint]*model.Question, len(quiz.Questions))
	options := make(map[uint]*model.Option)
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		questions[q.ID] = q
		for j := range q.Options {
			options[q.Options[j].ID] = &q.Options[j]
		}
	}

	view := &MyAnswersView{
		QuizID:            quizID,
		Title:             quiz.Title,
		Submitted:         sub.Finalized(),
		SubmittedAt:       sub.SubmittedAt,
		RevealCorrectness: reveal,
	}

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		chosenID, ok := sub.Answers[q.ID]
		if !ok {
			continue
		}
		row := MyAnswerRow{
			QuestionID:     q.ID,
			Order:          q.OrderNo,
			Text:           q.Text,
			ChosenOptionID: chosenID,
		}
		if chosen, ok := options[chosenID]; ok {
			row.ChosenOptionText = chosen.Text
		}
		if reveal {
			correctIDs := q.CorrectOptionIDs()
			_, hit := correctIDs[chosenID]
			row.IsCorrect = &hit
			row.Points = q.Points
			for j := range q.Options {
				if q.Options[j].IsCorrect {
					row.CorrectOptions = append(row.CorrectOptions, OptionView{
						ID:   q.Options[j].ID,
						Text: q.Options[j].Text,
					})
				}
			}
		}
		view.Answers = append(view.Answers, row)
	}

	if reveal && sub.Finalized() {
		score := sub.Score
		view.Score = &score
	}
	return view, nil
}
