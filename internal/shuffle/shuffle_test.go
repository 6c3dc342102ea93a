package shuffle

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-assessment/internal/model"
)

func bank(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:        uuid.New(),
			OrderNum:  i + 1,
			OptionIDs: []string{"A", "B", "C", "D", "E"},
		}
	}
	return qs
}

func ids(order []model.QuestionOrder) []uuid.UUID {
	out := make([]uuid.UUID, len(order))
	for i, o := range order {
		out[i] = o.QuestionID
	}
	return out
}

func TestOrderStableForAttempt(t *testing.T) {
	qs := bank(20)
	attempt := uuid.New()
	policy := model.ShufflePolicy{Questions: true, Answers: true}

	first := Order(attempt, qs, policy)
	for i := 0; i < 5; i++ {
		again := Order(attempt, qs, policy)
		if !slices.Equal(ids(first), ids(again)) {
			t.Fatal("question order changed between reads")
		}
		for j := range first {
			if !slices.Equal(first[j].OptionIDs, again[j].OptionIDs) {
				t.Fatalf("option order of %s changed between reads", first[j].QuestionID)
			}
		}
	}
}

func TestOrderIgnoresInputOrder(t *testing.T) {
	qs := bank(10)
	reversed := slices.Clone(qs)
	slices.Reverse(reversed)
	attempt := uuid.New()
	policy := model.ShufflePolicy{Questions: true}

	if !slices.Equal(ids(Order(attempt, qs, policy)), ids(Order(attempt, reversed, policy))) {
		t.Error("order should not depend on the order the bank returned")
	}
}

func TestOrderIsPermutation(t *testing.T) {
	qs := bank(20)
	got := Order(uuid.New(), qs, model.ShufflePolicy{Questions: true, Answers: true})
	if len(got) != len(qs) {
		t.Fatalf("len = %d, want %d", len(got), len(qs))
	}
	seen := map[uuid.UUID]bool{}
	for _, o := range got {
		seen[o.QuestionID] = true
		opts := slices.Clone(o.OptionIDs)
		slices.Sort(opts)
		if !slices.Equal(opts, []string{"A", "B", "C", "D", "E"}) {
			t.Errorf("options of %s = %v", o.QuestionID, o.OptionIDs)
		}
	}
	for _, q := range qs {
		if !seen[q.ID] {
			t.Errorf("question %s missing", q.ID)
		}
	}
}

func TestOrderDisabledKeepsBankOrder(t *testing.T) {
	qs := bank(8)
	got := Order(uuid.New(), qs, model.ShufflePolicy{})
	for i, o := range got {
		if o.QuestionID != qs[i].ID {
			t.Fatalf("position %d = %s, want %s", i, o.QuestionID, qs[i].ID)
		}
		if !slices.Equal(o.OptionIDs, qs[i].OptionIDs) {
			t.Fatalf("options reordered at %d", i)
		}
	}
}

func TestOrderVariesAcrossAttempts(t *testing.T) {
	qs := bank(20)
	policy := model.ShufflePolicy{Questions: true}
	base := ids(Order(uuid.New(), qs, policy))

	// 20! orderings; a handful of attempts all matching would mean the seed is ignored.
	for i := 0; i < 5; i++ {
		if !slices.Equal(base, ids(Order(uuid.New(), qs, policy))) {
			return
		}
	}
	t.Error("different attempts produced identical orders")
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	qs := bank(6)
	before := fmt.Sprint(qs)
	Order(uuid.New(), qs, model.ShufflePolicy{Questions: true, Answers: true})
	if fmt.Sprint(qs) != before {
		t.Error("input slice was modified")
	}
}
