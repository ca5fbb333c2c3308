package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/ranking"
)

// Filter narrows a position pool before ranking. Unset criteria keep every player.
type Filter struct {
	// MaxPrice keeps players at or below this price when Valid.
	MaxPrice decimal.NullDecimal
	// MaxSelectedPercent keeps players owned by at most this share of managers.
	// Zero keeps only unowned players.
	MaxSelectedPercent *float64
	// MinSeasonMinutes keeps players with at least this many minutes this season.
	MinSeasonMinutes int
}

// PriceCeiling returns a filter criterion for MaxPrice.
func PriceCeiling(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// OwnershipCeiling returns a filter criterion for MaxSelectedPercent.
func OwnershipCeiling(percent float64) *float64 { return &percent }

// Validate rejects negative or out-of-range criteria.
func (f Filter) Validate() error {
	switch {
	case f.MaxPrice.Valid && f.MaxPrice.Decimal.IsNegative():
		return model.ValidationErrorf("max price must not be negative, got %s", f.MaxPrice.Decimal)
	case f.MaxSelectedPercent != nil && !(*f.MaxSelectedPercent >= 0 && *f.MaxSelectedPercent <= 100):
		return model.ValidationErrorf("max selected percent must be within [0,100], got %v", *f.MaxSelectedPercent)
	case f.MinSeasonMinutes < 0:
		return model.ValidationErrorf("min season minutes must not be negative, got %d", f.MinSeasonMinutes)
	}
	return nil
}

// IsZero reports whether the filter keeps every player.
func (f Filter) IsZero() bool {
	return !f.MaxPrice.Valid && f.MaxSelectedPercent == nil && f.MinSeasonMinutes == 0
}

func (f Filter) keep(r model.StatRecord) bool {
	if f.MaxPrice.Valid && r.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	if f.MaxSelectedPercent != nil && r.SelectedPercent > *f.MaxSelectedPercent {
		return false
	}
	if f.MinSeasonMinutes > 0 && r.SeasonMinutes < f.MinSeasonMinutes {
		return false
	}
	return true
}

func (f Filter) apply(pool []ranking.Scored) []ranking.Scored {
	if f.IsZero() {
		return pool
	}
	out := make([]ranking.Scored, 0, len(pool))
	for _, s := range pool {
		if f.keep(s.Record) {
			out = append(out, s)
		}
	}
	return out
}
