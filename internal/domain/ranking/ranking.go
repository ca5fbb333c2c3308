// Package ranking orders scored players with a deterministic tie-break chain.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/scoring"
)

// Scored is a record together with its score. Rank is 1-based and set by Rank.
type Scored struct {
	Record    model.StatRecord
	Breakdown scoring.Breakdown
	Rank      int
}

// ExpectedPoints returns the final score.
func (s Scored) ExpectedPoints() float64 { return s.Breakdown.ExpectedPoints }

// Less reports whether a ranks ahead of b: higher xPts, then higher form, then
// lower price, then name, then id.
func Less(a, b Scored) bool {
	if x, y := a.ExpectedPoints(), b.ExpectedPoints(); x != y {
		return x > y
	}
	if x, y := orderable(a.Record.Form), orderable(b.Record.Form); x != y {
		return x > y
	}
	if c := a.Record.Price.Cmp(b.Record.Price); c != 0 {
		return c < 0
	}
	if a.Record.Name != b.Record.Name {
		return a.Record.Name < b.Record.Name
	}
	return a.Record.ID < b.Record.ID
}

// Rank returns the first count entries of scored in rank order with Rank set.
// count == 0 yields an empty slice and count > len(scored) yields all entries.
// The input slice is not modified.
func Rank(scored []Scored, count int) ([]Scored, error) {
	return rank(scored, count, Less)
}

// RankBy is Rank with key, higher first, placed ahead of the Less chain.
func RankBy(scored []Scored, count int, key func(model.StatRecord) float64) ([]Scored, error) {
	return rank(scored, count, func(a, b Scored) bool {
		if x, y := orderable(key(a.Record)), orderable(key(b.Record)); x != y {
			return x > y
		}
		return Less(a, b)
	})
}

func rank(scored []Scored, count int, less func(a, b Scored) bool) ([]Scored, error) {
	if count < 0 {
		return nil, model.ValidationErrorf("count must not be negative, got %d", count)
	}

	out := make([]Scored, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	if count < len(out) {
		out = out[:count]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func orderable(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
