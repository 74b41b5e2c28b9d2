/*
aggregate.go - Grouped sums and counts over a filtered record set

PURPOSE:
  Computes per-group quantity totals and record counts along one or two
  dimensions (gas, hospital, supply mode, gas×hospital). Input is the
  already scope- and date-filtered set; output preserves group-key
  encounter order, one row per distinct key. Ordering beyond that is the
  consumer's concern (see rank.go).
*/
package domain

import "github.com/shopspring/decimal"

// GasTotal is the per-gas aggregation row.
type GasTotal struct {
	GasID   int64
	GasName string
	GasCode string
	Unit    string
	Total   decimal.Decimal
	Count   int
}

// AggregateByGas sums quantities per gas in encounter order.
func AggregateByGas(records []Record) []GasTotal {
	idx := make(map[int64]int)
	var out []GasTotal
	for _, r := range records {
		i, ok := idx[r.GasID]
		if !ok {
			i = len(out)
			idx[r.GasID] = i
			out = append(out, GasTotal{
				GasID:   r.GasID,
				GasName: r.GasName,
				GasCode: r.GasCode,
				Unit:    r.GasUnit,
				Total:   decimal.Zero,
			})
		}
		out[i].Total = out[i].Total.Add(r.Quantity)
		out[i].Count++
	}
	return out
}

// HospitalTotal is the per-hospital aggregation row.
type HospitalTotal struct {
	HospitalID   int64
	HospitalName string
	HospitalCode string
	Total        decimal.Decimal
	Count        int
}

// AggregateByHospital sums quantities per hospital in encounter order.
func AggregateByHospital(records []Record) []HospitalTotal {
	idx := make(map[int64]int)
	var out []HospitalTotal
	for _, r := range records {
		i, ok := idx[r.HospitalID]
		if !ok {
			i = len(out)
			idx[r.HospitalID] = i
			out = append(out, HospitalTotal{
				HospitalID:   r.HospitalID,
				HospitalName: r.HospitalName,
				HospitalCode: r.HospitalCode,
				Total:        decimal.Zero,
			})
		}
		out[i].Total = out[i].Total.Add(r.Quantity)
		out[i].Count++
	}
	return out
}

// ModeTotal is the per-supply-mode aggregation row, used in report
// summaries.
type ModeTotal struct {
	Mode  SupplyMode
	Total decimal.Decimal
	Count int
}

func AggregateBySupplyMode(records []Record) []ModeTotal {
	idx := make(map[SupplyMode]int)
	var out []ModeTotal
	for _, r := range records {
		i, ok := idx[r.SupplyMode]
		if !ok {
			i = len(out)
			idx[r.SupplyMode] = i
			out = append(out, ModeTotal{Mode: r.SupplyMode, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.Quantity)
		out[i].Count++
	}
	return out
}

// GasHospitalTotal is the two-dimensional aggregation row.
type GasHospitalTotal struct {
	GasID        int64
	GasName      string
	Unit         string
	HospitalID   int64
	HospitalName string
	Total        decimal.Decimal
	Count        int
}

type gasHospitalKey struct {
	gasID      int64
	hospitalID int64
}

// AggregateByGasAndHospital sums quantities per (gas, hospital) pair in
// encounter order.
func AggregateByGasAndHospital(records []Record) []GasHospitalTotal {
	idx := make(map[gasHospitalKey]int)
	var out []GasHospitalTotal
	for _, r := range records {
		k := gasHospitalKey{gasID: r.GasID, hospitalID: r.HospitalID}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, GasHospitalTotal{
				GasID:        r.GasID,
				GasName:      r.GasName,
				Unit:         r.GasUnit,
				HospitalID:   r.HospitalID,
				HospitalName: r.HospitalName,
				Total:        decimal.Zero,
			})
		}
		out[i].Total = out[i].Total.Add(r.Quantity)
		out[i].Count++
	}
	return out
}

// TotalQuantity is the arithmetic sum over the whole set.
func TotalQuantity(records []Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Quantity)
	}
	return sum
}
