package domain

// HospitalsWithoutReport returns the active hospitals that are not
// referenced by any record in the period's scoped set, preserving the
// order of the hospital list. Inactive hospitals are never reported as
// missing.
func HospitalsWithoutReport(hospitals []Hospital, records []Record) []Hospital {
	reported := make(map[int64]struct{}, len(records))
	for _, r := range records {
		reported[r.HospitalID] = struct{}{}
	}

	var missing []Hospital
	for _, h := range hospitals {
		if !h.Active {
			continue
		}
		if _, ok := reported[h.ID]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}
