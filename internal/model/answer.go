package model

import "github.com/google/uuid"

// AnswerRecord is the graded answer to a single question within an attempt.
type AnswerRecord struct {
	ID                 uuid.UUID `json:"id"`
	AttemptID          uuid.UUID `json:"attempt_id"`
	QuestionID         uuid.UUID `json:"question_id"`
	SelectedAnswerIDs  []string  `json:"selected_answer_ids"`
	Score              float64   `json:"score"`
	IsCorrect          bool      `json:"is_correct"`
	IsPartiallyCorrect bool      `json:"is_partially_correct"`
	NeedsManualGrading bool      `json:"needs_manual_grading"`
}

// SubmittedAnswer is one answer as sent by the student.
// For fill-in-the-blank questions SelectedAnswerIDs carries the typed text.
type SubmittedAnswer struct {
	QuestionID        uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswerIDs []string  `json:"selected_answer_ids" binding:"max=50,dive,max=2000"`
}

// SubmitAttemptRequest is the payload for submitting an attempt.
type SubmitAttemptRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"max=500,dive"`
}
