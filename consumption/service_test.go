package consumption

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/store/sqlite"
)

// testEnv bundles the service, its in-memory store, the audit sink and the
// catalog fixtures every test needs.
type testEnv struct {
	svc      *Service
	store    *sqlite.Store
	sink     *audit.MemorySink
	hospital domain.Hospital
	second   domain.Hospital
	gas      domain.Gas
	reporter domain.Actor
	admin    domain.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sink := audit.NewMemorySink()
	svc := NewService(store, sink, zerolog.Nop())

	h := domain.Hospital{Name: "Hospital Central", Code: "HC-001", Active: true}
	require.NoError(t, store.CreateHospital(ctx, &h))
	h2 := domain.Hospital{Name: "Hospital Regional", Code: "HR-002", Active: true}
	require.NoError(t, store.CreateHospital(ctx, &h2))

	g := domain.Gas{Name: "Oxígeno Medicinal", Code: "O2", Unit: "m3",
		Critical: true, Active: true}
	require.NoError(t, store.CreateGas(ctx, &g))

	reporter := sqlite.User{
		Actor: domain.Actor{FirstName: "Ana", LastName: "Rojas",
			Email: "ana@mspbs.gov.py", Role: domain.RoleHospitalUser,
			HospitalID: &h.ID, Active: true},
		PasswordHash: "x",
	}
	require.NoError(t, store.CreateUser(ctx, &reporter))

	admin := sqlite.User{
		Actor: domain.Actor{FirstName: "Luis", LastName: "Benítez",
			Email: "luis@mspbs.gov.py", Role: domain.RoleAdministrator, Active: true},
		PasswordHash: "x",
	}
	require.NoError(t, store.CreateUser(ctx, &admin))

	return &testEnv{
		svc: svc, store: store, sink: sink,
		hospital: h, second: h2, gas: g,
		reporter: reporter.Actor, admin: admin.Actor,
	}
}

func (e *testEnv) newRecord(hospitalID int64, start, end domain.Date, qty string) domain.Record {
	return domain.Record{
		HospitalID: hospitalID,
		GasID:      e.gas.ID,
		Period:     domain.Period{Start: start, End: end},
		SupplyMode: domain.SupplyCryogenicTank,
		Quantity:   decimal.RequireFromString(qty),
	}
}

func march(day int) domain.Date { return domain.NewDate(2024, time.March, day) }

func TestCreateRecordOwnHospital(t *testing.T) {
	// GIVEN a hospital user
	e := newTestEnv(t)
	ctx := context.Background()

	// WHEN reporting for their own hospital without a unit
	got, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "1250.5"), "10.0.0.1")
	require.NoError(t, err)

	// THEN the record lands unvalidated, with the gas unit defaulted in,
	// and the creation is audited
	assert.False(t, got.Validated)
	assert.Equal(t, "m3", got.Unit)
	assert.Equal(t, e.reporter.ID, got.ReportedBy)
	assert.True(t, e.sink.Contains(audit.ActionCreateRecord, "HC-001"))
}

func TestCreateRecordForeignHospitalForbidden(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.CreateRecord(context.Background(), e.reporter,
		e.newRecord(e.second.ID, march(1), march(31), "10"), "")
	assert.True(t, domain.IsForbidden(err))
	assert.Empty(t, e.sink.Events())
}

func TestCreateRecordInvalidPeriod(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.CreateRecord(context.Background(), e.reporter,
		e.newRecord(e.hospital.ID, march(31), march(1), "10"), "")
	assert.True(t, domain.IsInvalidInput(err))
}

func TestCreateRecordInactiveGas(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.DeactivateGas(ctx, e.gas.ID))

	_, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	assert.True(t, domain.IsNotFound(err))
}

func TestListRecordsScoping(t *testing.T) {
	// GIVEN records in two hospitals
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)
	_, err = e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.second.ID, march(1), march(31), "20"), "")
	require.NoError(t, err)

	// Admin sees everything.
	got, err := e.svc.ListRecords(ctx, e.admin, domain.Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// A hospital user asking for the other hospital still gets their own.
	got, err = e.svc.ListRecords(ctx, e.reporter,
		domain.Filter{HospitalID: &e.second.ID}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.hospital.ID, got[0].HospitalID)
}

func TestValidateRequiresAdministrator(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	rec, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)

	_, err = e.svc.Validate(ctx, e.reporter, rec.ID, "")
	assert.True(t, domain.IsForbidden(err))
}

func TestRevalidationRefreshesStamp(t *testing.T) {
	// GIVEN a validated record
	e := newTestEnv(t)
	ctx := context.Background()

	t0 := time.Date(2024, time.April, 1, 10, 0, 0, 0, time.UTC)
	e.svc.Now = func() time.Time { return t0 }

	rec, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)

	first, err := e.svc.Validate(ctx, e.admin, rec.ID, "")
	require.NoError(t, err)
	require.NotNil(t, first.ValidatedAt)
	assert.True(t, first.ValidatedAt.Equal(t0))

	// WHEN a second administrator validates it again later
	admin2 := sqlite.User{
		Actor: domain.Actor{FirstName: "María", Email: "maria@mspbs.gov.py",
			Role: domain.RoleAdministrator, Active: true},
		PasswordHash: "x",
	}
	require.NoError(t, e.store.CreateUser(ctx, &admin2))
	t1 := t0.Add(48 * time.Hour)
	e.svc.Now = func() time.Time { return t1 }

	second, err := e.svc.Validate(ctx, admin2.Actor, rec.ID, "")
	require.NoError(t, err)

	// THEN the stamp reflects the latest reviewer and time
	assert.True(t, second.Validated)
	require.NotNil(t, second.ValidatedBy)
	assert.Equal(t, admin2.ID, *second.ValidatedBy)
	require.NotNil(t, second.ValidatedAt)
	assert.True(t, second.ValidatedAt.Equal(t1))
	assert.Len(t, e.sink.ByAction(audit.ActionValidateRecord), 2)
}

func TestUpdatePreservesValidationStamp(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	rec, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)
	rec, err = e.svc.Validate(ctx, e.admin, rec.ID, "")
	require.NoError(t, err)

	upd := *rec
	upd.Quantity = decimal.RequireFromString("99")
	got, err := e.svc.UpdateRecord(ctx, e.admin, rec.ID, upd, "")
	require.NoError(t, err)

	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("99")))
	assert.True(t, got.Validated)
	require.NotNil(t, got.ValidatedBy)
	assert.Equal(t, e.admin.ID, *got.ValidatedBy)
}

func TestDeleteValidatedRequiresAdministrator(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	rec, err := e.svc.CreateRecord(ctx, e.reporter,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)
	_, err = e.svc.Validate(ctx, e.admin, rec.ID, "")
	require.NoError(t, err)

	err = e.svc.DeleteRecord(ctx, e.reporter, rec.ID, "")
	assert.True(t, domain.IsForbidden(err))

	require.NoError(t, e.svc.DeleteRecord(ctx, e.admin, rec.ID, ""))
	assert.True(t, e.sink.Contains(audit.ActionDeleteRecord, "HC-001"))
}

func TestDashboard(t *testing.T) {
	// GIVEN oxygen in two hospitals, the second hospital reporting less
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.hospital.ID, march(1), march(31), "300"), "")
	require.NoError(t, err)
	_, err = e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.second.ID, march(1), march(31), "100"), "")
	require.NoError(t, err)

	// WHEN building the March dashboard
	from, to := march(1), march(31)
	sum, err := e.svc.Dashboard(ctx, e.admin, &from, &to)
	require.NoError(t, err)

	// THEN counts, critical total, ranking and distribution line up
	assert.EqualValues(t, 2, sum.ActiveHospitals)
	assert.Equal(t, 2, sum.RecordsInPeriod)
	assert.Equal(t, 2, sum.PendingValidation)
	assert.True(t, sum.CriticalGasTotal.Equal(decimal.RequireFromString("400")))
	assert.Equal(t, "O2", sum.CriticalGasCode)
	assert.Empty(t, sum.HospitalsWithoutReport)
	require.Len(t, sum.TopHospitals, 2)
	assert.Equal(t, e.hospital.ID, sum.TopHospitals[0].HospitalID)
	require.Len(t, sum.Distribution, 1)
	assert.InDelta(t, 100.0, sum.Distribution[0].Percentage, 0.01)
}

func TestDashboardForbiddenForHospitalUser(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.Dashboard(context.Background(), e.reporter, nil, nil)
	assert.True(t, domain.IsForbidden(err))
}

func TestHospitalDashboardPinsScope(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.hospital.ID, march(1), march(31), "10"), "")
	require.NoError(t, err)
	_, err = e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.second.ID, march(1), march(31), "20"), "")
	require.NoError(t, err)

	// The reporter asks for the second hospital but gets their own.
	sum, err := e.svc.HospitalDashboard(ctx, e.reporter, e.second.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, e.hospital.ID, sum.Hospital.ID)
	assert.Equal(t, 1, sum.RecordsInPeriod)
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("10")))
}

func TestMonthlySeriesBucketsByStartMonth(t *testing.T) {
	// GIVEN a record starting in March and spilling into April
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin, e.newRecord(e.hospital.ID,
		march(10), domain.NewDate(2024, time.April, 5), "120"), "")
	require.NoError(t, err)

	series, err := e.svc.MonthlySeries(ctx, e.admin, nil, nil, 2024)
	require.NoError(t, err)

	// THEN the whole quantity lands in the March slot
	assert.True(t, series.Values[2].Equal(decimal.RequireFromString("120")))
	assert.True(t, series.Values[3].IsZero())
	assert.Equal(t, "Marzo", domain.MonthLabels[2])
}

func TestMonthlySeriesKeepsYearSpanningRecords(t *testing.T) {
	// GIVEN a record starting mid-December and ending the following January
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin, e.newRecord(e.hospital.ID,
		domain.NewDate(2024, time.December, 15),
		domain.NewDate(2025, time.January, 5), "100"), "")
	require.NoError(t, err)

	// THEN it counts toward December of its start year
	series, err := e.svc.MonthlySeries(ctx, e.admin, nil, nil, 2024)
	require.NoError(t, err)
	assert.True(t, series.Values[11].Equal(decimal.RequireFromString("100")))

	// AND not toward the following year
	next, err := e.svc.MonthlySeries(ctx, e.admin, nil, nil, 2025)
	require.NoError(t, err)
	assert.True(t, next.Sum().IsZero())
}

func TestSweepMissingReports(t *testing.T) {
	// GIVEN one hospital reporting recently and one silent
	e := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	start := domain.DateOf(now).AddDays(-10)
	_, err := e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.hospital.ID, start, start.AddDays(5), "10"), "")
	require.NoError(t, err)

	// WHEN sweeping the trailing 30 days twice
	raised, err := e.svc.SweepMissingReports(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)

	raised, err = e.svc.SweepMissingReports(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, raised)

	// THEN exactly one open alert exists, for the silent hospital
	unresolved := false
	alerts, err := e.svc.ListAlerts(ctx, e.admin, &unresolved)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].HospitalID)
	assert.Equal(t, e.second.ID, *alerts[0].HospitalID)
	assert.Equal(t, domain.AlertMissingReport, alerts[0].Type)
	assert.True(t, e.sink.Contains(audit.ActionMissingReport, "HR-002"))
}

func TestResolveAlert(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.SweepMissingReports(ctx, 30)
	require.NoError(t, err)

	unresolved := false
	alerts, err := e.svc.ListAlerts(ctx, e.admin, &unresolved)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)

	got, err := e.svc.ResolveAlert(ctx, e.admin, alerts[0].ID, "registro recibido", "")
	require.NoError(t, err)
	assert.True(t, got.Resolved)

	_, err = e.svc.ResolveAlert(ctx, e.reporter, alerts[0].ID, "", "")
	assert.True(t, domain.IsForbidden(err))
}

func TestReportData(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.hospital.ID, march(1), march(31), "30"), "")
	require.NoError(t, err)
	_, err = e.svc.CreateRecord(ctx, e.admin,
		e.newRecord(e.second.ID, march(1), march(31), "70"), "")
	require.NoError(t, err)

	snap, err := e.svc.ReportData(ctx, e.admin, domain.Filter{}, "pdf", "10.0.0.1")
	require.NoError(t, err)
	assert.Len(t, snap.Records, 2)
	assert.True(t, snap.Total.Equal(decimal.RequireFromString("100")))
	require.Len(t, snap.GasTotals, 1)
	assert.True(t, e.sink.Contains(audit.ActionGenerateReport, "pdf"))
}
