package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates student attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
	AttemptStatusExpired    AttemptStatus = "EXPIRED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSubmitted || s == AttemptStatusExpired
}

// StudentAttempt is one student's timed pass through a session's questions.
type StudentAttempt struct {
	ID            uuid.UUID     `json:"id"`
	SessionID     uuid.UUID     `json:"session_id"`
	StudentID     uuid.UUID     `json:"student_id"`
	StartedAt     time.Time     `json:"started_at"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty"`
	Score         float64       `json:"score"`
	TotalPoints   float64       `json:"total_points"`
	AttemptNumber int           `json:"attempt_number"`
	Status        AttemptStatus `json:"status"`
}

// StartedAttempt is returned to the student when an attempt begins.
type StartedAttempt struct {
	AttemptID     uuid.UUID       `json:"attempt_id"`
	SessionID     uuid.UUID       `json:"session_id"`
	AttemptNumber int             `json:"attempt_number"`
	StartedAt     time.Time       `json:"started_at"`
	QuestionOrder []QuestionOrder `json:"question_order"`
}

// AttemptPaper is an attempt together with the order its questions render in.
type AttemptPaper struct {
	Attempt       StudentAttempt  `json:"attempt"`
	QuestionOrder []QuestionOrder `json:"question_order"`
	Answers       []AnswerRecord  `json:"answers,omitempty"`
}
