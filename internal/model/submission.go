package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AnswerMap stores question_id -> chosen option_id. Persisted as JSON so the
// draft can be mutated with last-write-wins per question.
type AnswerMap map[uint]uint

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		m = AnswerMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = AnswerMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported answers column type %T", value)
	}
	if len(data) == 0 {
		*m = AnswerMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Submission is the single per-(quiz, user) attempt row. It starts as a draft
// (SubmittedAt nil), collects answers, and is finalized exactly once. The
// unique index is the backstop against concurrent double submits.
//
// ActionTime / UserStatusAtAction snapshot a moderation action taken during
// the quiz cycle; the leaderboard filters on the snapshot instead of deleting
// score history.
type Submission struct {
	BaseModel
	QuizID uint `gorm:"not null;index;uniqueIndex:uq_one_submission_per_quiz,priority:1" json:"quizId"`
	UserID uint `gorm:"not null;index;uniqueIndex:uq_one_submission_per_quiz,priority:2" json:"userId"`

	SubmittedAt *time.Time `gorm:"index" json:"submittedAt"`

	ActionTime         *time.Time  `gorm:"index" json:"actionTime,omitempty"`
	UserStatusAtAction *UserStatus `gorm:"size:20;index" json:"userStatusAtAction,omitempty"`

	Answers AnswerMap `gorm:"type:json;not null" json:"answers"`
	Score   int       `gorm:"not null;default:0" json:"score"`
}

func (Submission) TableName() string {
	return "quiz_submissions"
}

func (s *Submission) Finalized() bool {
	return s.SubmittedAt != nil
}
