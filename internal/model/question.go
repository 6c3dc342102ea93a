package model

import "github.com/google/uuid"

// QuestionType enumerates the question kinds the scorer understands.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeMultipleAnswer QuestionType = "MULTIPLE_ANSWER"
	QuestionTypeFillInTheBlank QuestionType = "FILL_IN_THE_BLANK"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Question is the read-only question bank view used for ordering and grading.
// It is never sent to students.
type Question struct {
	ID               uuid.UUID    `json:"id"`
	ExamID           uuid.UUID    `json:"exam_id"`
	Points           float64      `json:"points"`
	Type             QuestionType `json:"question_type"`
	OptionIDs        []string     `json:"option_ids"`
	CorrectAnswerIDs []string     `json:"correct_answer_ids"`
	AcceptedAnswers  []string     `json:"accepted_answers,omitempty"`
	OrderNum         int          `json:"order_num"`
}

// QuestionOrder is one question of an attempt paper with its option order.
type QuestionOrder struct {
	QuestionID uuid.UUID `json:"question_id"`
	OptionIDs  []string  `json:"option_ids"`
}
