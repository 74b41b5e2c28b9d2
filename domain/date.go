package domain

import "time"

// =============================================================================
// DATE - Day-granularity time point used for reporting periods
// =============================================================================

// Date is a calendar day in UTC. Consumption periods are day-granular;
// timestamps (validation, audit) stay time.Time.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &InputError{Field: "date", Reason: "expected YYYY-MM-DD, got " + s}
	}
	return Date{t: t}, nil
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// PERIOD - Inclusive [Start, End] reporting interval
// =============================================================================

// Period is the inclusive interval a consumption record covers.
type Period struct {
	Start Date
	End   Date
}

// CheckInvariant enforces End >= Start.
func (p Period) CheckInvariant() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &InputError{Field: "periodo", Reason: "period start and end are required"}
	}
	if p.End.Before(p.Start) {
		return &InputError{Field: "periodo", Reason: "period end before start"}
	}
	return nil
}

// ContainedIn reports whether the whole period lies within [from, to].
// A nil bound is unbounded on that side. This is the filter semantics used
// by every read operation: a record matches only when fully contained in
// the window, not merely overlapping it.
func (p Period) ContainedIn(from, to *Date) bool {
	if from != nil && p.Start.Before(*from) {
		return false
	}
	if to != nil && p.End.After(*to) {
		return false
	}
	return true
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
