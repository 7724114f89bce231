package service

import (
	"weekly_trivia_backend/internal/model"
)

// ScoreAnswers sums the point value of every question whose chosen option is
// in its correct set. Point values derive from difficulty, never from the
// stored points column. Answers referencing unknown question or option ids
// are ignored rather than rejected: a question may have been deleted after
// the answer was saved.
func ScoreAnswers(questions []model.Question, answers model.AnswerMap) int {
	if len(answers) == 0 {
		return 0
	}

	correct := make(map[uint]map[uint]struct{}, len(questions))
	points := make(map[uint]int, len(questions))
	for i := range questions {
		q := &questions[i]
		correct[q.ID] = q.CorrectOptionIDs()
		if p, ok := model.PointsByDifficulty[q.Difficulty]; ok {
			points[q.ID] = p
		} else {
			points[q.ID] = q.Points
		}
	}

	total := 0
	for questionID, optionID := range answers {
		set, ok := correct[questionID]
		if !ok {
			continue
		}
		if _, hit := set[optionID]; hit {
			total += points[questionID]
		}
	}
	return total
}
