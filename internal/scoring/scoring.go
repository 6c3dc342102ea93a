// Package scoring grades a single submitted answer against question bank data.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/stemsi/exstem-assessment/internal/apperror"
	"github.com/stemsi/exstem-assessment/internal/model"
)

// Result is the outcome of grading one answer.
type Result struct {
	Score              float64
	IsCorrect          bool
	IsPartiallyCorrect bool
	NeedsManualGrading bool
}

// strategy grades one question kind. submitted is already normalized.
type strategy func(q model.Question, submitted []string, allowPartial bool) Result

var strategies = map[model.QuestionType]strategy{
	model.QuestionTypeMultipleChoice: scoreSingle,
	model.QuestionTypeTrueFalse:      scoreSingle,
	model.QuestionTypeMultipleAnswer: scoreMulti,
	model.QuestionTypeFillInTheBlank: scoreFillIn,
	model.QuestionTypeEssay:          scoreEssay,
}

// Score grades submitted against q. Choice questions see submitted as option IDs;
// fill-in and essay questions see it as the typed text.
func Score(q model.Question, submitted []string, allowPartial bool) (Result, error) {
	fn, ok := strategies[q.Type]
	if !ok {
		return Result{}, apperror.Validation(
			fmt.Sprintf("question %s has unsupported type %q", q.ID, q.Type),
			map[string]string{"question_type": string(q.Type)},
		)
	}
	if q.Type == model.QuestionTypeFillInTheBlank || q.Type == model.QuestionTypeEssay {
		return fn(q, submitted, allowPartial), nil
	}
	return fn(q, NormalizeIDs(submitted), allowPartial), nil
}

// NormalizeIDs trims ids, drops empty entries and collapses duplicates,
// keeping first-seen order.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func scoreSingle(q model.Question, submitted []string, _ bool) Result {
	correct := NormalizeIDs(q.CorrectAnswerIDs)
	if len(submitted) != 1 || len(correct) == 0 {
		return Result{}
	}
	for _, c := range correct {
		if submitted[0] == c {
			return Result{Score: q.Points, IsCorrect: true}
		}
	}
	return Result{}
}

func scoreMulti(q model.Question, submitted []string, allowPartial bool) Result {
	correct := toSet(NormalizeIDs(q.CorrectAnswerIDs))
	if len(correct) == 0 || len(submitted) == 0 {
		return Result{}
	}

	hits, misses := 0, 0
	for _, id := range submitted {
		if _, ok := correct[id]; ok {
			hits++
		} else {
			misses++
		}
	}

	exact := misses == 0 && hits == len(correct)
	if exact {
		return Result{Score: q.Points, IsCorrect: true}
	}
	if !allowPartial {
		return Result{}
	}

	score := q.Points * float64(hits-misses) / float64(len(correct))
	score = math.Min(math.Max(0, Round(score, 2)), q.Points)
	return Result{Score: score, IsPartiallyCorrect: score > 0 && score < q.Points}
}

func scoreFillIn(q model.Question, submitted []string, _ bool) Result {
	given := normalizeText(strings.Join(submitted, " "))
	if given == "" {
		return Result{}
	}
	accepted := q.AcceptedAnswers
	if len(accepted) == 0 {
		accepted = q.CorrectAnswerIDs
	}
	for _, a := range accepted {
		if normalizeText(a) == given {
			return Result{Score: q.Points, IsCorrect: true}
		}
	}
	return Result{}
}

func scoreEssay(_ model.Question, submitted []string, _ bool) Result {
	return Result{NeedsManualGrading: normalizeText(strings.Join(submitted, " ")) != ""}
}

// normalizeText lowercases s and collapses whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
