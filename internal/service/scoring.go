package service

import (
	"errors"
	"sort"

	"github.com/careerlens/assessment-server/internal/questionbank"
)

const (
	// Likert response bounds; out-of-range values are clamped.
	minAnswerValue = 1
	maxAnswerValue = 5
)

var ErrEmptyAnswerSet = errors.New("no questions to score")

// Score converts raw answers into per-category totals and a ranked Holland
// code. It is a pure function: same inputs always produce the same outcome.
//
// Answers referencing unknown question ids are ignored, tolerating partial
// or stale client state. Ties between category totals are broken by the
// fixed declaration order, so ranking is deterministic.
func Score(answers []Answer, questions []questionbank.Question) (Outcome, error) {
	if len(questions) == 0 {
		return Outcome{}, ErrEmptyAnswerSet
	}

	byID := make(map[int]questionbank.Category, len(questions))
	for _, q := range questions {
		byID[q.ID] = q.Category
	}

	vector := make(ScoreVector, 6)
	for _, c := range questionbank.Categories() {
		vector[c] = 0
	}

	for _, a := range answers {
		cat, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		v := a.Value
		if v < minAnswerValue {
			v = minAnswerValue
		}
		if v > maxAnswerValue {
			v = maxAnswerValue
		}
		vector[cat] += v
	}

	return Outcome{
		Vector:         vector,
		Code:           rankCode(vector),
		TotalQuestions: len(questions),
	}, nil
}

// rankCode orders categories by total descending, breaking ties by the
// canonical category order, and takes the top three.
func rankCode(vector ScoreVector) HollandCode {
	ranked := questionbank.Categories()
	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := vector[ranked[i]], vector[ranked[j]]
		if ti != tj {
			return ti > tj
		}
		return questionbank.Rank(ranked[i]) < questionbank.Rank(ranked[j])
	})

	return HollandCode{
		Dominant:  ranked[0],
		Secondary: ranked[1],
		Tertiary:  ranked[2],
	}
}
