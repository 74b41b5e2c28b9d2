package domain

import "sort"

// DefaultTopN is the hospital count shown on the admin dashboard.
const DefaultTopN = 5

// TopHospitals returns the n highest-consuming hospitals in the record set,
// sorted by total quantity descending. Ties keep the order in which the
// hospitals first appear in the input; no secondary sort key is applied.
// Returns fewer than n rows when fewer distinct hospitals exist.
func TopHospitals(records []Record, n int) []HospitalTotal {
	totals := AggregateByHospital(records)
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	if n >= 0 && len(totals) > n {
		totals = totals[:n]
	}
	return totals
}
