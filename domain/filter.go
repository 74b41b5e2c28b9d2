package domain

// =============================================================================
// FILTER - Shared query shape for all read operations
// =============================================================================

// Filter narrows a record set. All fields are optional; the date bounds use
// full-containment semantics (see Period.ContainedIn). The store translates
// the same semantics into SQL; Match is the in-memory reference used by the
// analytics pipeline and the report builders.
type Filter struct {
	HospitalID *int64
	GasID      *int64
	From       *Date
	To         *Date
	SupplyMode SupplyMode // empty = any
	Validated  *bool
}

// CheckInvariant rejects malformed windows before any read is attempted.
func (f Filter) CheckInvariant() error {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return &InputError{Field: "fecha_fin", Reason: "filter end before start"}
	}
	if f.SupplyMode != "" && !f.SupplyMode.Valid() {
		return &InputError{Field: "modo_suministro", Reason: "unknown supply mode " + string(f.SupplyMode)}
	}
	return nil
}

// Scoped returns a copy of the filter with the effective hospital scope
// applied. The scope always wins over whatever the filter carried.
func (f Filter) Scoped(eff EffectiveFilter) Filter {
	f.HospitalID = eff.HospitalID
	return f
}

// Match reports whether a record satisfies the filter.
func (f Filter) Match(r Record) bool {
	if f.HospitalID != nil && r.HospitalID != *f.HospitalID {
		return false
	}
	if f.GasID != nil && r.GasID != *f.GasID {
		return false
	}
	if !r.Period.ContainedIn(f.From, f.To) {
		return false
	}
	if f.SupplyMode != "" && r.SupplyMode != f.SupplyMode {
		return false
	}
	if f.Validated != nil && r.Validated != *f.Validated {
		return false
	}
	return true
}

// Apply filters a record slice preserving input order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
