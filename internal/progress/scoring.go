package progress

import "github.com/owlet-learn/owlet/internal/content"

// Earnings rates per correct answer.
const (
	xpPerCorrect    = 10
	coinsPerCorrect = 5
)

// Result is the graded outcome of one quiz submission.
type Result struct {
	Correct     int             `json:"correct"`
	Total       int             `json:"total"`
	Percentage  float64         `json:"percentage"`
	XPEarned    int             `json:"xp_earned"`
	CoinsEarned int             `json:"coins_earned"`
	Review      []AnswerOutcome `json:"review"`
}

// AnswerOutcome explains one graded question for the learner's review.
type AnswerOutcome struct {
	Index         int    `json:"index"`
	Given         string `json:"given,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Grade scores answers against the stored quiz. Answers are keyed by
// question index in stored order; a missing or unknown key counts as
// incorrect. Grading is pure and deterministic.
func Grade(quiz *content.QuizPayload, answers map[int]string) Result {
	result := Result{Total: len(quiz.Questions)}
	if result.Total == 0 {
		return result
	}

	result.Review = make([]AnswerOutcome, result.Total)
	for i, q := range quiz.Questions {
		given := answers[i]
		correct := given == q.CorrectAnswer
		if correct {
			result.Correct++
		}
		result.Review[i] = AnswerOutcome{
			Index:         i,
			Given:         given,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
			Explanation:   q.Explanation,
		}
	}

	result.Percentage = float64(result.Correct) / float64(result.Total) * 100
	result.XPEarned = result.Correct * xpPerCorrect
	result.CoinsEarned = result.Correct * coinsPerCorrect
	return result
}
