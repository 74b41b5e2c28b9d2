package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// GasShare is a per-gas total with its share of the filtered-set total.
type GasShare struct {
	GasTotal
	Percentage float64
}

// Percentages converts per-gas totals into percentages of the set total,
// rounded to two decimals. A zero set total yields 0 for every share rather
// than failing. The shares are informational: independent rounding means
// they need not sum to exactly 100.
func Percentages(totals []GasTotal) []GasShare {
	totalAll := decimal.Zero
	for _, t := range totals {
		totalAll = totalAll.Add(t.Total)
	}

	shares := make([]GasShare, len(totals))
	for i, t := range totals {
		shares[i] = GasShare{GasTotal: t}
		if totalAll.IsZero() {
			continue
		}
		shares[i].Percentage = t.Total.Div(totalAll).Mul(hundred).Round(2).InexactFloat64()
	}
	return shares
}

// GasDistribution aggregates and converts in one step.
func GasDistribution(records []Record) []GasShare {
	return Percentages(AggregateByGas(records))
}
