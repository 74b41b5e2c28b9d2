package domain

import "github.com/shopspring/decimal"

// MonthLabels are the chart labels, Spanish per the ministry's reporting UI.
var MonthLabels = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthlySeries is a fixed 12-slot series for one calendar year,
// January→December.
type MonthlySeries struct {
	Year   int
	Values [12]decimal.Decimal
}

// BuildMonthlySeries buckets record quantities into calendar months.
// A record lands in the month of its period start date only; a period that
// crosses a month boundary is never split. Records starting outside the
// requested year are excluded. Empty months hold zero.
func BuildMonthlySeries(records []Record, year int) MonthlySeries {
	s := MonthlySeries{Year: year}
	for i := range s.Values {
		s.Values[i] = decimal.Zero
	}
	for _, r := range records {
		if r.Period.Start.Year() != year {
			continue
		}
		m := int(r.Period.Start.Month()) - 1
		s.Values[m] = s.Values[m].Add(r.Quantity)
	}
	return s
}

// Floats returns the series values for the JSON boundary.
func (s MonthlySeries) Floats() [12]float64 {
	var out [12]float64
	for i, v := range s.Values {
		out[i] = v.InexactFloat64()
	}
	return out
}

// Sum is the total over all twelve slots.
func (s MonthlySeries) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range s.Values {
		sum = sum.Add(v)
	}
	return sum
}
