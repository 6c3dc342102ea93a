package scoring

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-assessment/internal/apperror"
	"github.com/stemsi/exstem-assessment/internal/model"
)

func multi(points float64, correct ...string) model.Question {
	return model.Question{
		ID:               uuid.New(),
		Type:             model.QuestionTypeMultipleAnswer,
		Points:           points,
		OptionIDs:        []string{"A", "B", "C", "D"},
		CorrectAnswerIDs: correct,
	}
}

func TestScoreMultiAnswerPartial(t *testing.T) {
	q := multi(4, "A", "B")

	tests := []struct {
		name      string
		submitted []string
		want      float64
		correct   bool
		partial   bool
	}{
		{"one correct", []string{"A"}, 2, false, true},
		{"one correct one wrong", []string{"A", "C"}, 0, false, false},
		{"all correct plus wrong", []string{"A", "B", "C"}, 2, false, true},
		{"exact", []string{"B", "A"}, 4, true, false},
		{"only wrong", []string{"C", "D"}, 0, false, false},
		{"empty", nil, 0, false, false},
		{"duplicates collapse", []string{"A", "A", " A "}, 2, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(q, tt.submitted, true)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got.Score != tt.want || got.IsCorrect != tt.correct || got.IsPartiallyCorrect != tt.partial {
				t.Errorf("Score() = %+v, want score=%v correct=%v partial=%v", got, tt.want, tt.correct, tt.partial)
			}
		})
	}
}

func TestScoreMultiAnswerWithoutPartial(t *testing.T) {
	q := multi(4, "A", "B")
	got, _ := Score(q, []string{"A"}, false)
	if got.Score != 0 || got.IsPartiallyCorrect {
		t.Errorf("partial off: got %+v", got)
	}
	got, _ = Score(q, []string{"A", "B"}, false)
	if got.Score != 4 || !got.IsCorrect {
		t.Errorf("exact match: got %+v", got)
	}
}

func TestScoreMultiAnswerMonotonic(t *testing.T) {
	q := multi(6, "A", "B", "C")
	options := []string{"A", "B", "C", "D", "E"}
	correct := map[string]bool{"A": true, "B": true, "C": true}

	// Every subset of options, extended by every option not yet in it.
	for mask := 0; mask < 1<<len(options); mask++ {
		var base []string
		in := map[string]bool{}
		for i, o := range options {
			if mask&(1<<i) != 0 {
				base = append(base, o)
				in[o] = true
			}
		}
		before, _ := Score(q, base, true)
		for _, o := range options {
			if in[o] {
				continue
			}
			after, _ := Score(q, append(append([]string{}, base...), o), true)
			if correct[o] && after.Score < before.Score {
				t.Fatalf("adding correct %s to %v decreased score %v -> %v", o, base, before.Score, after.Score)
			}
			if !correct[o] && after.Score > before.Score {
				t.Fatalf("adding wrong %s to %v increased score %v -> %v", o, base, before.Score, after.Score)
			}
		}
	}
}

func TestScoreMultiAnswerRoundsToTwoDecimals(t *testing.T) {
	q := multi(1, "A", "B", "C")
	got, _ := Score(q, []string{"A"}, true)
	if got.Score != 0.33 {
		t.Errorf("Score = %v, want 0.33", got.Score)
	}
}

func TestScoreSingleCorrect(t *testing.T) {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeMultipleChoice, Points: 2, CorrectAnswerIDs: []string{"B"}}

	tests := []struct {
		name      string
		submitted []string
		want      float64
	}{
		{"correct", []string{"B"}, 2},
		{"wrong", []string{"A"}, 0},
		{"two picks", []string{"A", "B"}, 0},
		{"duplicate correct", []string{"B", "B"}, 2},
		{"empty", []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(q, tt.submitted, true)
			if err != nil {
				t.Fatal(err)
			}
			if got.Score != tt.want {
				t.Errorf("Score = %v, want %v", got.Score, tt.want)
			}
		})
	}
}

func TestScoreTrueFalse(t *testing.T) {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeTrueFalse, Points: 1, CorrectAnswerIDs: []string{"true"}}
	got, _ := Score(q, []string{"true"}, false)
	if !got.IsCorrect || got.Score != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestScoreFillInTheBlank(t *testing.T) {
	q := model.Question{
		ID:              uuid.New(),
		Type:            model.QuestionTypeFillInTheBlank,
		Points:          3,
		AcceptedAnswers: []string{"Photosynthesis", "photo  synthesis"},
	}

	tests := []struct {
		name      string
		submitted []string
		want      float64
	}{
		{"exact", []string{"Photosynthesis"}, 3},
		{"case and spacing", []string{"  PHOTO   synthesis "}, 3},
		{"split across entries", []string{"photo", "synthesis"}, 3},
		{"wrong", []string{"respiration"}, 0},
		{"blank", []string{"   "}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Score(q, tt.submitted, false)
			if got.Score != tt.want {
				t.Errorf("Score = %v, want %v", got.Score, tt.want)
			}
		})
	}
}

func TestScoreEssayFlagsManualGrading(t *testing.T) {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	got, err := Score(q, []string{"A long answer."}, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Score != 0 || got.IsCorrect || !got.NeedsManualGrading {
		t.Errorf("got %+v", got)
	}

	got, _ = Score(q, nil, true)
	if got.NeedsManualGrading {
		t.Error("empty essay should not need grading")
	}
}

func TestScoreUnknownType(t *testing.T) {
	q := model.Question{ID: uuid.New(), Type: "MATCHING", Points: 1}
	_, err := Score(q, []string{"A"}, true)
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	var ae *apperror.Error
	if !errors.As(err, &ae) || ae.Fields["question_type"] != "MATCHING" {
		t.Errorf("fields = %+v", ae)
	}
}

func TestScoreNeverExceedsPoints(t *testing.T) {
	q := multi(2.5, "A", "B")
	for _, sub := range [][]string{{"A"}, {"B"}, {"A", "B"}, {"A", "B", "C"}, {"C"}} {
		got, _ := Score(q, sub, true)
		if got.Score < 0 || got.Score > q.Points {
			t.Errorf("Score(%v) = %v out of [0,%v]", sub, got.Score, q.Points)
		}
	}
}
