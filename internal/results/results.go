// Package results aggregates scored attempts into attempt and session summaries.
package results

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/scoring"
)

// AttemptResult is the score summary of one attempt.
type AttemptResult struct {
	AttemptID       uuid.UUID           `json:"attempt_id"`
	AttemptNumber   int                 `json:"attempt_number"`
	Status          model.AttemptStatus `json:"status"`
	Score           float64             `json:"score"`
	TotalPoints     float64             `json:"total_points"`
	ScorePercentage float64             `json:"score_percentage"`
	SubmittedAt     *time.Time          `json:"submitted_at,omitempty"`
}

// ComputeAttemptResult summarizes a. The percentage is rounded to one decimal
// and is 0 when the attempt carries no points.
func ComputeAttemptResult(a model.StudentAttempt) AttemptResult {
	return AttemptResult{
		AttemptID:       a.ID,
		AttemptNumber:   a.AttemptNumber,
		Status:          a.Status,
		Score:           a.Score,
		TotalPoints:     a.TotalPoints,
		ScorePercentage: Percentage(a.Score, a.TotalPoints),
		SubmittedAt:     a.SubmittedAt,
	}
}

// Percentage returns score/total*100 rounded to one decimal, clamped to [0,100].
func Percentage(score, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := scoring.Round(score/total*100, 1)
	return math.Min(100, math.Max(0, p))
}

// AttemptSummary is an attempt result tagged with its student, as listed to teachers.
type AttemptSummary struct {
	StudentID uuid.UUID `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	AttemptResult
}

// SummarizeAttempts lists every attempt ordered by student, then attempt number.
func SummarizeAttempts(attempts []model.StudentAttempt) []AttemptSummary {
	out := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptSummary{
			StudentID:     a.StudentID,
			StartedAt:     a.StartedAt,
			AttemptResult: ComputeAttemptResult(a),
		})
	}
	slices.SortFunc(out, func(a, b AttemptSummary) int {
		if c := slices.Compare(a.StudentID[:], b.StudentID[:]); c != 0 {
			return c
		}
		return a.AttemptNumber - b.AttemptNumber
	})
	return out
}

// StudentResult is one student's standing in a session.
type StudentResult struct {
	StudentID     uuid.UUID      `json:"student_id"`
	AttemptCount  int            `json:"attempt_count"`
	Best          *AttemptResult `json:"best,omitempty"`
	Latest        AttemptResult  `json:"latest"`
	HasSubmission bool           `json:"has_submission"`
}

// SessionResults is the session-level summary shown to teachers.
type SessionResults struct {
	SessionID         uuid.UUID        `json:"session_id"`
	PerStudentBest    []StudentResult  `json:"per_student_best"`
	Attempts          []AttemptSummary `json:"attempts"`
	ClassAverage      float64          `json:"class_average"`
	HighestPercentage float64          `json:"highest_percentage"`
	LowestPercentage  float64          `json:"lowest_percentage"`
	SubmittedCount    int              `json:"submitted_count"`
	EnrolledCount     int              `json:"enrolled_count"`
}

// ComputeSessionResults groups attempts by student. The best attempt is the
// highest-scoring SUBMITTED one, ties going to the earlier attempt; the latest
// is the one with the highest attempt number regardless of status. Attempts
// lists every attempt of the session, intermediate ones included.
func ComputeSessionResults(sessionID uuid.UUID, attempts []model.StudentAttempt, enrolledCount int) SessionResults {
	byStudent := make(map[uuid.UUID]*StudentResult)
	inSession := make([]model.StudentAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.SessionID != sessionID {
			continue
		}
		inSession = append(inSession, a)
		r := ComputeAttemptResult(a)
		sr, ok := byStudent[a.StudentID]
		if !ok {
			sr = &StudentResult{StudentID: a.StudentID, Latest: r}
			byStudent[a.StudentID] = sr
		}
		sr.AttemptCount++
		if a.AttemptNumber > sr.Latest.AttemptNumber {
			sr.Latest = r
		}
		if a.Status != model.AttemptStatusSubmitted {
			continue
		}
		sr.HasSubmission = true
		if sr.Best == nil || r.Score > sr.Best.Score ||
			(r.Score == sr.Best.Score && r.AttemptNumber < sr.Best.AttemptNumber) {
			best := r
			sr.Best = &best
		}
	}

	out := SessionResults{
		SessionID:      sessionID,
		PerStudentBest: make([]StudentResult, 0, len(byStudent)),
		Attempts:       SummarizeAttempts(inSession),
		EnrolledCount:  enrolledCount,
	}
	var sum float64
	for _, sr := range byStudent {
		out.PerStudentBest = append(out.PerStudentBest, *sr)
		if sr.Best == nil {
			continue
		}
		p := sr.Best.ScorePercentage
		if out.SubmittedCount == 0 || p > out.HighestPercentage {
			out.HighestPercentage = p
		}
		if out.SubmittedCount == 0 || p < out.LowestPercentage {
			out.LowestPercentage = p
		}
		out.SubmittedCount++
		sum += p
	}
	slices.SortFunc(out.PerStudentBest, func(a, b StudentResult) int {
		return slices.Compare(a.StudentID[:], b.StudentID[:])
	})
	if out.SubmittedCount > 0 {
		out.ClassAverage = scoring.Round(sum/float64(out.SubmittedCount), 1)
	}
	return out
}
