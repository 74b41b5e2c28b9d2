package consumption

// Dashboard assembly. All heavy lifting is delegated to the pure helpers in
// domain; this file only fetches the scoped snapshot and stitches the
// pieces together.

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/domain"
)

// DashboardSummary is the network-wide admin dashboard.
type DashboardSummary struct {
	ActiveHospitals        int64
	RecordsInPeriod        int
	PendingValidation      int
	CriticalGasTotal       decimal.Decimal
	CriticalGasCode        string
	PendingAlerts          int64
	HospitalsWithoutReport []domain.Hospital
	TopHospitals           []domain.HospitalTotal
	Distribution           []domain.GasShare
}

// Dashboard builds the network-wide summary over the given window.
// Administrators only.
func (s *Service) Dashboard(ctx context.Context, actor domain.Actor, from, to *domain.Date) (*DashboardSummary, error) {
	if err := domain.RequireAdministrator(actor); err != nil {
		return nil, err
	}

	f := domain.Filter{From: from, To: to}
	if err := f.CheckInvariant(); err != nil {
		return nil, err
	}
	records, err := s.Store.ListRecords(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}

	activeHospitals, err := s.Store.CountActiveHospitals(ctx)
	if err != nil {
		return nil, err
	}
	pendingAlerts, err := s.Store.CountPendingAlerts(ctx)
	if err != nil {
		return nil, err
	}
	hospitals, err := s.Store.ListActiveHospitals(ctx)
	if err != nil {
		return nil, err
	}

	critical := decimal.Zero
	pendingValidation := 0
	for _, r := range records {
		if r.GasCode == domain.CriticalGasCode {
			critical = critical.Add(r.Quantity)
		}
		if !r.Validated {
			pendingValidation++
		}
	}

	return &DashboardSummary{
		ActiveHospitals:        activeHospitals,
		RecordsInPeriod:        len(records),
		PendingValidation:      pendingValidation,
		CriticalGasTotal:       critical,
		CriticalGasCode:        domain.CriticalGasCode,
		PendingAlerts:          pendingAlerts,
		HospitalsWithoutReport: domain.HospitalsWithoutReport(hospitals, records),
		TopHospitals:           domain.TopHospitals(records, domain.DefaultTopN),
		Distribution:           domain.GasDistribution(records),
	}, nil
}

// HospitalSummary is the single-hospital dashboard.
type HospitalSummary struct {
	Hospital        domain.Hospital
	RecordsInPeriod int
	Total           decimal.Decimal
	GasTotals       []domain.GasTotal
	ModeTotals      []domain.ModeTotal
	RecentRecords   []domain.Record
}

// HospitalDashboard builds the per-hospital summary. Hospital users are
// pinned to their own hospital regardless of the requested id.
func (s *Service) HospitalDashboard(ctx context.Context, actor domain.Actor, hospitalID int64, from, to *domain.Date) (*HospitalSummary, error) {
	eff, err := domain.Scope(actor, &hospitalID)
	if err != nil {
		return nil, err
	}
	id := hospitalID
	if eff.HospitalID != nil {
		id = *eff.HospitalID
	}

	hospital, err := s.Store.GetHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	if hospital == nil {
		return nil, &domain.NotFoundError{Kind: "hospital", ID: id}
	}

	f := domain.Filter{HospitalID: &id, From: from, To: to}
	if err := f.CheckInvariant(); err != nil {
		return nil, err
	}
	records, err := s.Store.ListRecords(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}

	recent := records
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &HospitalSummary{
		Hospital:        *hospital,
		RecordsInPeriod: len(records),
		Total:           domain.TotalQuantity(records),
		GasTotals:       domain.AggregateByGas(records),
		ModeTotals:      domain.AggregateBySupplyMode(records),
		RecentRecords:   recent,
	}, nil
}

// MonthlySeries builds the January-to-December evolution for one year,
// optionally narrowed to one hospital and one gas. A record belongs to the
// year its period starts in, so a period spilling into January still counts
// toward its December slot. The fetch is therefore filtered by scope and
// gas only; the year cut happens during bucketing.
func (s *Service) MonthlySeries(ctx context.Context, actor domain.Actor, hospitalID, gasID *int64, year int) (*domain.MonthlySeries, error) {
	eff, err := domain.Scope(actor, hospitalID)
	if err != nil {
		return nil, err
	}

	f := domain.Filter{GasID: gasID}.Scoped(eff)
	records, err := s.Store.ListRecords(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}

	series := domain.BuildMonthlySeries(records, year)
	return &series, nil
}

// =============================================================================
// ALERTS
// =============================================================================

// ListAlerts returns alerts newest first. Administrators only.
func (s *Service) ListAlerts(ctx context.Context, actor domain.Actor, resolved *bool) ([]domain.Alert, error) {
	if err := domain.RequireAdministrator(actor); err != nil {
		return nil, err
	}
	return s.Store.ListAlerts(ctx, resolved)
}

// ResolveAlert closes an alert with a note and leaves a trail event.
func (s *Service) ResolveAlert(ctx context.Context, actor domain.Actor, id int64, notes, origin string) (*domain.Alert, error) {
	if err := domain.RequireAdministrator(actor); err != nil {
		return nil, err
	}
	if err := s.Store.ResolveAlert(ctx, id, actor.ID, s.Now(), notes); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionResolveAlert,
		fmt.Sprintf("alerta %d", id), origin))
	return s.Store.GetAlert(ctx, id)
}

// SweepMissingReports flags every active hospital with no record starting
// inside the trailing window. One open alert per hospital; an existing open
// alert is never duplicated. Returns how many new alerts were raised.
func (s *Service) SweepMissingReports(ctx context.Context, window int) (int, error) {
	cutoff := domain.DateOf(s.Now()).AddDays(-window)
	records, err := s.Store.ListRecords(ctx, domain.Filter{From: &cutoff}, 0, 0)
	if err != nil {
		return 0, err
	}
	hospitals, err := s.Store.ListActiveHospitals(ctx)
	if err != nil {
		return 0, err
	}

	raised := 0
	for _, h := range domain.HospitalsWithoutReport(hospitals, records) {
		open, err := s.Store.HasOpenAlert(ctx, h.ID, domain.AlertMissingReport)
		if err != nil {
			return raised, err
		}
		if open {
			continue
		}
		hid := h.ID
		alert := domain.Alert{
			HospitalID: &hid,
			Type:       domain.AlertMissingReport,
			Severity:   domain.SeverityWarning,
			Message:    fmt.Sprintf("%s (%s) sin registros en los últimos %d días", h.Name, h.Code, window),
			DetectedAt: s.Now(),
		}
		if err := s.Store.CreateAlert(ctx, &alert); err != nil {
			return raised, err
		}
		s.emit(ctx, audit.New(nil, audit.ActionMissingReport,
			fmt.Sprintf("hospital %s", h.Code), "sweeper"))
		raised++
	}
	return raised, nil
}
