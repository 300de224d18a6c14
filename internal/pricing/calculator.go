// Package pricing computes parking fees from duration-based price tiers.
//
// The model is cumulative: elapsed hours are consumed bracket by bracket from
// the shortest tier upward, each hour billed at its bracket's unit price. It
// is not a "highest applicable tier" lookup.
package pricing

import (
	"errors"
	"math"
	"sort"
	"time"

	"parkhub-backend/internal/models"
)

// Options carries the tunables of the calculator. The minimum fee applies
// whenever a positive duration yields a zero total (empty tier list, or all
// zero-priced tiers). Precision is the number of fractional digits kept in
// the final amount.
type Options struct {
	MinimumFee float64
	Precision  int
}

// DefaultOptions returns the calculator defaults: a 0.50 floor rounded to
// two fractional digits.
func DefaultOptions() Options {
	return Options{
		MinimumFee: 0.50,
		Precision:  2,
	}
}

var (
	// ErrMissingEntryTime reports a session without a usable entry timestamp.
	ErrMissingEntryTime = errors.New("entry time is missing")
	// ErrEvaluationBeforeEntry reports an evaluation instant preceding entry.
	ErrEvaluationBeforeEntry = errors.New("evaluation time precedes entry time")
)

// ComputeFee returns the amount owed for a stay from entry to evaluation.
// Invalid input degrades to a zero fee; use ComputeFeeChecked when the caller
// wants the reason.
func ComputeFee(entry, evaluation time.Time, tiers []models.PricingTier, opts Options) float64 {
	fee, err := ComputeFeeChecked(entry, evaluation, tiers, opts)
	if err != nil {
		return 0
	}
	return fee
}

// ComputeFeeChecked is ComputeFee with explicit input validation. The fee is
// deterministic, never negative, and non-decreasing in the evaluation time.
func ComputeFeeChecked(entry, evaluation time.Time, tiers []models.PricingTier, opts Options) (float64, error) {
	if entry.IsZero() {
		return 0, ErrMissingEntryTime
	}
	if evaluation.Before(entry) {
		return 0, ErrEvaluationBeforeEntry
	}

	hours := BillableHours(entry, evaluation)
	if hours == 0 {
		return 0, nil
	}

	total := 0.0
	remaining := hours
	for _, tier := range sortedByLength(tiers) {
		if remaining <= 0 {
			break
		}
		consumed := min(remaining, tier.Hours())
		total += float64(consumed) * tier.UnitPrice
		remaining -= consumed
	}
	// Hours beyond the last tier are not charged.

	if total == 0 {
		total = opts.MinimumFee
	}

	return roundTo(total, opts.Precision), nil
}

// BillableHours converts a stay into whole billable hours, rounding up. A
// one-minute stay bills as a full hour; this is a revenue rule, not a
// rounding convenience.
func BillableHours(entry, evaluation time.Time) int {
	elapsed := evaluation.Sub(entry)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Ceil(elapsed.Hours()))
}

// sortedByLength returns a copy of tiers ordered ascending by normalized
// bracket length. The sort is stable so equal-length tiers keep their
// insertion order.
func sortedByLength(tiers []models.PricingTier) []models.PricingTier {
	sorted := make([]models.PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Hours() < sorted[j].Hours()
	})
	return sorted
}

func roundTo(amount float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(amount*factor) / factor
}
