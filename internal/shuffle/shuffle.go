// Package shuffle produces the per-attempt question and option order.
//
// Orders are derived from the attempt ID alone so an in-progress attempt
// renders identically on every read.
package shuffle

import (
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/stemsi/exstem-assessment/internal/model"
)

// Order returns the question order for attemptID under policy.
// questions is not modified.
func Order(attemptID uuid.UUID, questions []model.Question, policy model.ShufflePolicy) []model.QuestionOrder {
	sorted := slices.Clone(questions)
	slices.SortStableFunc(sorted, func(a, b model.Question) int {
		if a.OrderNum != b.OrderNum {
			return a.OrderNum - b.OrderNum
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})

	if policy.Questions {
		rng := newRand(questionSeed(attemptID))
		rng.Shuffle(len(sorted), func(i, j int) { sorted[i], sorted[j] = sorted[j], sorted[i] })
	}

	out := make([]model.QuestionOrder, len(sorted))
	for i, q := range sorted {
		options := slices.Clone(q.OptionIDs)
		if options == nil {
			options = []string{}
		}
		if policy.Answers && len(options) > 1 {
			rng := newRand(optionSeed(attemptID, q.ID))
			rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		}
		out[i] = model.QuestionOrder{QuestionID: q.ID, OptionIDs: options}
	}
	return out
}

func questionSeed(attemptID uuid.UUID) [32]byte {
	return blake2b.Sum256(attemptID[:])
}

func optionSeed(attemptID, questionID uuid.UUID) [32]byte {
	buf := make([]byte, 0, 32)
	buf = append(buf, attemptID[:]...)
	buf = append(buf, questionID[:]...)
	return blake2b.Sum256(buf)
}

func newRand(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewChaCha8(seed))
}
