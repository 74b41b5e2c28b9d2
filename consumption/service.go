/*
Package consumption orchestrates the reporting workflow: record intake,
validation, scoped listings and the analytics snapshots behind the
dashboards.

PURPOSE:
  Sits between the HTTP layer and the store. Every operation takes the
  acting user, derives the effective scope with domain.Scope, reads or
  writes through the store, and emits the corresponding audit event.

RESPONSIBILITIES:
  - Record lifecycle: create, update, delete, validate
  - Scoped listings and single-record access checks
  - Dashboard assembly (network-wide and per-hospital)
  - Monthly series and report snapshots
  - Missing-report sweep feeding the alerts table

AUDIT:
  Audit emission is fire-and-forget: a sink failure is logged and the
  business operation still succeeds. The trail is evidence, not a lock.

SEE ALSO:
  - domain/scope.go: the visibility rules applied here
  - domain/aggregate.go: the pure analytics this package feeds
*/
package consumption

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/store/sqlite"
)

// Service wires the store, the audit sink and a clock. The clock is
// injectable so tests control validation stamps.
type Service struct {
	Store *sqlite.Store
	Audit audit.Sink
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewService creates a service with the real clock.
func NewService(store *sqlite.Store, sink audit.Sink, log zerolog.Logger) *Service {
	return &Service{
		Store: store,
		Audit: sink,
		Log:   log,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// emit records an audit event without letting sink failures surface.
func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Emit(ctx, e); err != nil {
		s.Log.Error().Err(err).Str("action", e.Action).Msg("audit emission failed")
	}
}

// =============================================================================
// RECORD LIFECYCLE
// =============================================================================

// CreateRecord validates and stores a new consumption record on behalf of
// the actor. Hospital users can only report for their own hospital.
func (s *Service) CreateRecord(ctx context.Context, actor domain.Actor, r domain.Record, origin string) (*domain.Record, error) {
	if err := domain.AuthorizeRecordAccess(actor, r.HospitalID); err != nil {
		return nil, err
	}

	hospital, err := s.Store.GetHospital(ctx, r.HospitalID)
	if err != nil {
		return nil, err
	}
	if hospital == nil || !hospital.Active {
		return nil, &domain.NotFoundError{Kind: "hospital", ID: r.HospitalID}
	}
	gas, err := s.Store.GetGas(ctx, r.GasID)
	if err != nil {
		return nil, err
	}
	if gas == nil || !gas.Active {
		return nil, &domain.NotFoundError{Kind: "gas", ID: r.GasID}
	}
	if r.Unit == "" {
		r.Unit = gas.Unit
	}
	if err := r.CheckInvariant(); err != nil {
		return nil, err
	}

	r.ReportedBy = actor.ID
	r.Validated = false
	r.ValidatedBy = nil
	r.ValidatedAt = nil
	if err := s.Store.CreateRecord(ctx, &r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionCreateRecord,
		fmt.Sprintf("consumo %d: %s %s de %s en %s", r.ID, r.Quantity, r.Unit, gas.Code, hospital.Code),
		origin))

	return s.Store.GetRecord(ctx, r.ID)
}

// GetRecord fetches one record, enforcing scope for hospital users.
func (s *Service) GetRecord(ctx context.Context, actor domain.Actor, id int64) (*domain.Record, error) {
	r, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &domain.NotFoundError{Kind: "consumo", ID: id}
	}
	if err := domain.AuthorizeRecordAccess(actor, r.HospitalID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecords returns the records visible to the actor, newest first.
func (s *Service) ListRecords(ctx context.Context, actor domain.Actor, f domain.Filter, offset, limit int) ([]domain.Record, error) {
	eff, err := domain.Scope(actor, f.HospitalID)
	if err != nil {
		return nil, err
	}
	if err := f.CheckInvariant(); err != nil {
		return nil, err
	}
	return s.Store.ListRecords(ctx, f.Scoped(eff), offset, limit)
}

// UpdateRecord applies new report fields to an existing record. The
// validation stamp is preserved untouched; only Validate changes it.
func (s *Service) UpdateRecord(ctx context.Context, actor domain.Actor, id int64, upd domain.Record, origin string) (*domain.Record, error) {
	existing, err := s.GetRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	// Moving a record to another hospital requires access to the target too.
	if upd.HospitalID != existing.HospitalID {
		if err := domain.AuthorizeRecordAccess(actor, upd.HospitalID); err != nil {
			return nil, err
		}
	}

	existing.HospitalID = upd.HospitalID
	existing.GasID = upd.GasID
	existing.Period = upd.Period
	existing.SupplyMode = upd.SupplyMode
	existing.Quantity = upd.Quantity
	existing.Unit = upd.Unit
	existing.Notes = upd.Notes
	if err := existing.CheckInvariant(); err != nil {
		return nil, err
	}

	if err := s.Store.UpdateRecord(ctx, *existing); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionUpdateRecord,
		fmt.Sprintf("consumo %d", id), origin))
	return s.Store.GetRecord(ctx, id)
}

// DeleteRecord removes a record. Validated records can only be removed by
// an administrator.
func (s *Service) DeleteRecord(ctx context.Context, actor domain.Actor, id int64, origin string) error {
	r, err := s.GetRecord(ctx, actor, id)
	if err != nil {
		return err
	}
	if r.Validated {
		if err := domain.RequireAdministrator(actor); err != nil {
			return err
		}
	}
	if err := s.Store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionDeleteRecord,
		fmt.Sprintf("consumo %d de %s", id, r.HospitalCode), origin))
	return nil
}

// Validate stamps a record as reviewed by the acting administrator. The
// operation is deliberately not idempotent: validating again refreshes the
// stamp with the new reviewer and timestamp.
func (s *Service) Validate(ctx context.Context, actor domain.Actor, id int64, origin string) (*domain.Record, error) {
	if err := domain.RequireAdministrator(actor); err != nil {
		return nil, err
	}
	r, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &domain.NotFoundError{Kind: "consumo", ID: id}
	}

	now := s.Now()
	r.Validated = true
	r.ValidatedBy = &actor.ID
	r.ValidatedAt = &now
	if err := s.Store.UpdateRecord(ctx, *r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionValidateRecord,
		fmt.Sprintf("consumo %d de %s", id, r.HospitalCode), origin))
	return s.Store.GetRecord(ctx, id)
}

// =============================================================================
// REPORT SNAPSHOT
// =============================================================================

// ReportSnapshot is the dataset handed to the report renderers.
type ReportSnapshot struct {
	Records     []domain.Record
	GasTotals   []domain.GasTotal
	ModeTotals  []domain.ModeTotal
	Total       decimal.Decimal
	GeneratedAt time.Time
	From, To    *domain.Date
}

// ReportData assembles the scoped dataset behind the PDF and CSV exports
// and leaves a report-generation event in the trail.
func (s *Service) ReportData(ctx context.Context, actor domain.Actor, f domain.Filter, format, origin string) (*ReportSnapshot, error) {
	records, err := s.ListRecords(ctx, actor, f, 0, 0)
	if err != nil {
		return nil, err
	}

	snap := &ReportSnapshot{
		Records:     records,
		GasTotals:   domain.AggregateByGas(records),
		ModeTotals:  domain.AggregateBySupplyMode(records),
		Total:       domain.TotalQuantity(records),
		GeneratedAt: s.Now(),
		From:        f.From,
		To:          f.To,
	}
	s.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionGenerateReport,
		fmt.Sprintf("reporte %s, %d registros", format, len(records)), origin))
	return snap, nil
}
