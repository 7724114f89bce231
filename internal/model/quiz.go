package model

import (
	"time"
)

type Category string

const (
	CategoryScience   Category = "science"
	CategoryHistory   Category = "history"
	CategorySport     Category = "sport"
	CategoryGeography Category = "geography"
	CategoryArt       Category = "art"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryScience, CategoryHistory, CategorySport, CategoryGeography, CategoryArt:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PointsByDifficulty fixes the point value of a question. The stored points
// column mirrors this mapping; scoring always derives from difficulty so a
// stale column cannot skew results.
var PointsByDifficulty = map[Difficulty]int{
	DifficultyEasy:   5,
	DifficultyMedium: 10,
	DifficultyHard:   20,
}

func (d Difficulty) Valid() bool {
	_, ok := PointsByDifficulty[d]
	return ok
}

func (d Difficulty) Points() int {
	return PointsByDifficulty[d]
}

// Quiz is the weekly competition. One quiz per Monday-normalized week; it is
// invisible to participants until PublishedAt is set, even inside the window.
type Quiz struct {
	BaseModel
	WeekStartDate time.Time  `gorm:"type:date;uniqueIndex;not null" json:"weekStartDate"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	OpensAt       time.Time  `gorm:"not null;index" json:"opensAt"`
	ClosesAt      time.Time  `gorm:"not null;index" json:"closesAt"`
	PublishedAt   *time.Time `json:"publishedAt"`

	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) IsPublished() bool {
	return q.PublishedAt != nil
}

// OpenAt reports whether the quiz accepts answers at the given instant.
func (q *Quiz) OpenAt(now time.Time) bool {
	return q.IsPublished() && !now.Before(q.OpensAt) && !now.After(q.ClosesAt)
}

func (q *Quiz) ClosedAt(now time.Time) bool {
	return now.After(q.ClosesAt)
}

// Question belongs to exactly one quiz. OrderNo is contiguous 1..N and unique
// per quiz.
type Question struct {
	BaseModel
	QuizID     uint       `gorm:"not null;index;uniqueIndex:uq_question_order_per_quiz,priority:1" json:"quizId"`
	OrderNo    int        `gorm:"not null;uniqueIndex:uq_question_order_per_quiz,priority:2" json:"order"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	Category   Category   `gorm:"size:20;not null;default:'science';index" json:"category"`
	Difficulty Difficulty `gorm:"size:20;not null;default:'easy';index" json:"difficulty"`
	Points     int        `gorm:"not null;default:5" json:"points"`

	Options []Option `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// CorrectOptionIDs returns the option ids marked correct for this question.
func (q *Question) CorrectOptionIDs() map[uint]struct{} {
	ids := make(map[uint]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			ids[o.ID] = struct{}{}
		}
	}
	return ids
}

type Option struct {
	BaseModel
	QuestionID uint   `gorm:"not null;index" json:"questionId"`
	Text       string `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
}

func (Option) TableName() string {
	return "quiz_options"
}
