package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionSchedule is a scheduled, time-boxed instance of an exam assigned to a class.
type SessionSchedule struct {
	ID                     uuid.UUID `json:"id"`
	ClassID                uuid.UUID `json:"class_id"`
	ExamID                 uuid.UUID `json:"exam_id"`
	StartTime              time.Time `json:"start_time"`
	EndTime                time.Time `json:"end_time"`
	RetryTimes             int       `json:"retry_times"`
	IsRetryable            bool      `json:"is_retryable"`
	IsActive               bool      `json:"is_active"`
	ShouldShuffleQuestions bool      `json:"should_shuffle_questions"`
	ShouldShuffleAnswers   bool      `json:"should_shuffle_answers"`
	AllowPartialScoring    bool      `json:"allow_partial_scoring"`
	CreatedBy              uuid.UUID `json:"created_by"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// MaxAttempts is the number of attempts a single student may start.
func (s *SessionSchedule) MaxAttempts() int {
	if !s.IsRetryable || s.RetryTimes < 1 {
		return 1
	}
	return s.RetryTimes
}

// InWindow reports whether t falls inside [StartTime, EndTime).
func (s *SessionSchedule) InWindow(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

// IsUpcoming reports whether an active session has not opened yet.
func (s *SessionSchedule) IsUpcoming(now time.Time) bool {
	return s.IsActive && now.Before(s.StartTime)
}

// HasEnded reports whether the session window is over.
func (s *SessionSchedule) HasEnded(now time.Time) bool {
	return !now.Before(s.EndTime)
}

// ShufflePolicy returns the session's ordering flags.
func (s *SessionSchedule) ShufflePolicy() ShufflePolicy {
	return ShufflePolicy{Questions: s.ShouldShuffleQuestions, Answers: s.ShouldShuffleAnswers}
}

// Apply copies administrative parameters onto the schedule.
func (s *SessionSchedule) Apply(p SessionParams) {
	s.ExamID = p.ExamID
	s.StartTime = p.Window.Start
	s.EndTime = p.Window.End
	s.RetryTimes = p.Retry.Times
	s.IsRetryable = p.Retry.Retryable
	s.ShouldShuffleQuestions = p.Shuffle.Questions
	s.ShouldShuffleAnswers = p.Shuffle.Answers
	s.AllowPartialScoring = p.Scoring.AllowPartial
}

// TimeWindow is the half-open interval [Start, End) during which attempts may start.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// RetryPolicy controls how many attempts a student gets.
type RetryPolicy struct {
	Times     int
	Retryable bool
}

// ShufflePolicy controls per-attempt ordering.
type ShufflePolicy struct {
	Questions bool
	Answers   bool
}

// ScoringPolicy controls partial credit on multi-answer questions.
type ScoringPolicy struct {
	AllowPartial bool
}

// SessionParams groups the teacher-supplied settings of a session.
type SessionParams struct {
	ExamID  uuid.UUID
	Window  TimeWindow
	Retry   RetryPolicy
	Shuffle ShufflePolicy
	Scoring ScoringPolicy
}

// SessionView is a schedule with derived status flags, as shown to clients.
type SessionView struct {
	SessionSchedule
	IsCurrentlyActive bool `json:"is_currently_active"`
	IsUpcoming        bool `json:"is_upcoming"`
	HasEnded          bool `json:"has_ended"`
	AttemptCount      int  `json:"attempt_count"`
}

// NewSessionView derives the status flags of s at now.
func NewSessionView(s SessionSchedule, now time.Time, attemptCount int) SessionView {
	return SessionView{
		SessionSchedule:   s,
		IsCurrentlyActive: s.IsActive && s.InWindow(now),
		IsUpcoming:        s.IsUpcoming(now),
		HasEnded:          s.HasEnded(now),
		AttemptCount:      attemptCount,
	}
}

// SessionRequest is the payload for creating or updating a session.
type SessionRequest struct {
	ExamID                 uuid.UUID `json:"exam_id" binding:"required"`
	StartTime              time.Time `json:"start_time" binding:"required"`
	EndTime                time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	RetryTimes             int       `json:"retry_times" binding:"min=0,max=100"`
	IsRetryable            bool      `json:"is_retryable"`
	ShouldShuffleQuestions bool      `json:"should_shuffle_questions"`
	ShouldShuffleAnswers   bool      `json:"should_shuffle_answers"`
	AllowPartialScoring    bool      `json:"allow_partial_scoring"`
}

// Params converts the request into session parameters.
func (r *SessionRequest) Params() SessionParams {
	return SessionParams{
		ExamID:  r.ExamID,
		Window:  TimeWindow{Start: r.StartTime.UTC(), End: r.EndTime.UTC()},
		Retry:   RetryPolicy{Times: r.RetryTimes, Retryable: r.IsRetryable},
		Shuffle: ShufflePolicy{Questions: r.ShouldShuffleQuestions, Answers: r.ShouldShuffleAnswers},
		Scoring: ScoringPolicy{AllowPartial: r.AllowPartialScoring},
	}
}
