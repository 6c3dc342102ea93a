package results

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-assessment/internal/model"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name         string
		score, total float64
		want         float64
	}{
		{"zero total", 5, 0, 0},
		{"half", 2, 4, 50},
		{"one decimal", 1, 3, 33.3},
		{"two thirds", 2, 3, 66.7},
		{"full", 10, 10, 100},
		{"clamped high", 11, 10, 100},
		{"clamped low", -1, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.score, tt.total); got != tt.want {
				t.Errorf("Percentage(%v, %v) = %v, want %v", tt.score, tt.total, got, tt.want)
			}
		})
	}
}

func TestComputeAttemptResult(t *testing.T) {
	a := model.StudentAttempt{ID: uuid.New(), AttemptNumber: 2, Score: 7, TotalPoints: 8, Status: model.AttemptStatusSubmitted}
	r := ComputeAttemptResult(a)
	if r.ScorePercentage != 87.5 || r.AttemptNumber != 2 || r.TotalPoints != 8 {
		t.Errorf("got %+v", r)
	}
}

func TestComputeSessionResults(t *testing.T) {
	session := uuid.New()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	attempt := func(student uuid.UUID, n int, status model.AttemptStatus, score float64) model.StudentAttempt {
		return model.StudentAttempt{
			ID: uuid.New(), SessionID: session, StudentID: student,
			AttemptNumber: n, Status: status, Score: score, TotalPoints: 10,
		}
	}

	attempts := []model.StudentAttempt{
		attempt(alice, 1, model.AttemptStatusSubmitted, 6),
		attempt(alice, 2, model.AttemptStatusSubmitted, 9),
		attempt(alice, 3, model.AttemptStatusInProgress, 0),
		attempt(bob, 1, model.AttemptStatusSubmitted, 4),
		attempt(bob, 2, model.AttemptStatusSubmitted, 4),
		attempt(carol, 1, model.AttemptStatusExpired, 0),
		{ID: uuid.New(), SessionID: uuid.New(), StudentID: carol, AttemptNumber: 1, Status: model.AttemptStatusSubmitted, Score: 10, TotalPoints: 10},
	}

	got := ComputeSessionResults(session, attempts, 30)

	if got.SubmittedCount != 2 || got.EnrolledCount != 30 {
		t.Fatalf("counts = %d/%d", got.SubmittedCount, got.EnrolledCount)
	}
	if got.ClassAverage != 65 {
		t.Errorf("ClassAverage = %v, want 65", got.ClassAverage)
	}
	if got.HighestPercentage != 90 || got.LowestPercentage != 40 {
		t.Errorf("high/low = %v/%v", got.HighestPercentage, got.LowestPercentage)
	}
	if len(got.PerStudentBest) != 3 {
		t.Fatalf("students = %d", len(got.PerStudentBest))
	}

	byID := map[uuid.UUID]StudentResult{}
	for _, sr := range got.PerStudentBest {
		byID[sr.StudentID] = sr
	}
	if a := byID[alice]; a.Best.AttemptNumber != 2 || a.Latest.AttemptNumber != 3 || a.AttemptCount != 3 {
		t.Errorf("alice = %+v", a)
	}
	if b := byID[bob]; b.Best.AttemptNumber != 1 {
		t.Errorf("bob tie should pick the earlier attempt, got %d", b.Best.AttemptNumber)
	}
	if c := byID[carol]; c.Best != nil || c.HasSubmission {
		t.Errorf("carol has no submitted attempt in this session: %+v", c)
	}

	// Every attempt of the session is listed, the other session's one is not.
	if len(got.Attempts) != 6 {
		t.Fatalf("attempts = %d, want 6", len(got.Attempts))
	}
	perStudent := map[uuid.UUID][]int{}
	for _, a := range got.Attempts {
		perStudent[a.StudentID] = append(perStudent[a.StudentID], a.AttemptNumber)
	}
	if n := perStudent[alice]; len(n) != 3 || n[0] != 1 || n[1] != 2 || n[2] != 3 {
		t.Errorf("alice attempts = %v, want [1 2 3]", n)
	}
	if n := perStudent[carol]; len(n) != 1 {
		t.Errorf("carol attempts = %v, want one", n)
	}
}

func TestSummarizeAttempts(t *testing.T) {
	low, high := uuid.UUID{1}, uuid.UUID{2}
	session := uuid.New()
	attempts := []model.StudentAttempt{
		{ID: uuid.New(), SessionID: session, StudentID: high, AttemptNumber: 1, Status: model.AttemptStatusSubmitted, Score: 3, TotalPoints: 4},
		{ID: uuid.New(), SessionID: session, StudentID: low, AttemptNumber: 2, Status: model.AttemptStatusInProgress},
		{ID: uuid.New(), SessionID: session, StudentID: low, AttemptNumber: 1, Status: model.AttemptStatusSubmitted, Score: 1, TotalPoints: 4},
	}

	got := SummarizeAttempts(attempts)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	want := []struct {
		student uuid.UUID
		number  int
		pct     float64
	}{
		{low, 1, 25},
		{low, 2, 0},
		{high, 1, 75},
	}
	for i, w := range want {
		if got[i].StudentID != w.student || got[i].AttemptNumber != w.number || got[i].ScorePercentage != w.pct {
			t.Errorf("[%d] = %+v, want student %s attempt %d at %v%%", i, got[i], w.student, w.number, w.pct)
		}
	}
}

func TestComputeSessionResultsEmpty(t *testing.T) {
	got := ComputeSessionResults(uuid.New(), nil, 12)
	if got.ClassAverage != 0 || got.SubmittedCount != 0 || got.EnrolledCount != 12 || got.PerStudentBest == nil || got.Attempts == nil {
		t.Errorf("got %+v", got)
	}
}
