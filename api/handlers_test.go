/*
handlers_test.go - End-to-end tests over the HTTP surface

Tests the routed handlers against an in-memory store: login, token
gating, role gating, the consumption workflow, dashboards, exports and
the audit trail.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mspbs/medgas/auth"
	"github.com/mspbs/medgas/consumption"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/store/sqlite"
)

type apiEnv struct {
	router     http.Handler
	store      *sqlite.Store
	hospital   domain.Hospital
	second     domain.Hospital
	gas        domain.Gas
	adminTok   string
	userTok    string
	adminEmail string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := zerolog.Nop()
	svc := consumption.NewService(store, store, log)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(store, svc, tokens, store, log)
	router := NewRouter(h, []string{"http://localhost:3000"})

	hosp := domain.Hospital{Name: "Hospital Central", Code: "HC-001", Active: true}
	require.NoError(t, store.CreateHospital(ctx, &hosp))
	second := domain.Hospital{Name: "Hospital Regional", Code: "HR-002", Active: true}
	require.NoError(t, store.CreateHospital(ctx, &second))
	gas := domain.Gas{Name: "Oxígeno Medicinal", Code: "O2", Unit: "m3",
		Critical: true, Active: true}
	require.NoError(t, store.CreateGas(ctx, &gas))

	adminHash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	admin := sqlite.User{
		Actor: domain.Actor{FirstName: "Luis", LastName: "Benítez",
			Email: "admin@mspbs.gov.py", Role: domain.RoleAdministrator, Active: true},
		PasswordHash: adminHash,
	}
	require.NoError(t, store.CreateUser(ctx, &admin))

	userHash, err := auth.HashPassword("hospital123")
	require.NoError(t, err)
	user := sqlite.User{
		Actor: domain.Actor{FirstName: "Ana", LastName: "Rojas",
			Email: "ana@mspbs.gov.py", Role: domain.RoleHospitalUser,
			HospitalID: &hosp.ID, Active: true},
		PasswordHash: userHash,
	}
	require.NoError(t, store.CreateUser(ctx, &user))

	env := &apiEnv{
		router: router, store: store,
		hospital: hosp, second: second, gas: gas,
		adminEmail: admin.Email,
	}
	env.adminTok = env.login(t, "admin@mspbs.gov.py", "admin123")
	env.userTok = env.login(t, "ana@mspbs.gov.py", "hospital123")
	return env
}

func (e *apiEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) recordRequest(hospitalID int64) RecordRequest {
	return RecordRequest{
		HospitalID: hospitalID,
		GasID:      e.gas.ID,
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-31",
		SupplyMode: string(domain.SupplyCryogenicTank),
		Quantity:   1250.5,
	}
}

func TestLoginFailure(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: "admin@mspbs.gov.py", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The failed attempt lands in the trail without an actor.
	rec = e.do(t, http.MethodGet, "/api/auditoria?accion=LOGIN_FALLIDO", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []AuditEventDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.NotEmpty(t, events)
	assert.Nil(t, events[0].ActorID)
}

func TestAuthRequired(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/api/consumos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/consumos", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/api/auth/me", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, e.adminEmail, user.Email)
	assert.Equal(t, string(domain.RoleAdministrator), user.Role)
}

func TestLogout(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/logout", e.userTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/auditoria?accion=LOGOUT", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []AuditEventDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
}

func TestRecordWorkflow(t *testing.T) {
	// GIVEN a hospital user reporting consumption
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/consumos", e.userTok,
		e.recordRequest(e.hospital.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.Validated)
	assert.Equal(t, "m3", created.Unit)
	assert.Equal(t, "HC-001", created.HospitalCode)

	// WHEN the hospital user tries to validate it
	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/consumos/%d/validar", created.ID), e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// THEN an administrator can
	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/consumos/%d/validar", created.ID), e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var validated RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validated))
	assert.True(t, validated.Validated)
	require.NotNil(t, validated.ValidatedBy)
	assert.NotEmpty(t, validated.ValidatedAt)
}

func TestCreateRecordForeignHospital(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/consumos", e.userTok,
		e.recordRequest(e.second.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateRecordBadPeriod(t *testing.T) {
	e := newAPIEnv(t)

	req := e.recordRequest(e.hospital.ID)
	req.StartDate = "2024-03-31"
	req.EndDate = "2024-03-01"
	rec := e.do(t, http.MethodPost, "/api/consumos", e.userTok, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecordsScopedByRole(t *testing.T) {
	// GIVEN records in both hospitals
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.hospital.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.second.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Admin sees both
	rec = e.do(t, http.MethodGet, "/api/consumos", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	// Hospital user sees only their own, even asking for the other
	rec = e.do(t, http.MethodGet,
		fmt.Sprintf("/api/consumos?hospital_id=%d", e.second.ID), e.userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, e.hospital.ID, records[0].HospitalID)
}

func TestGetForeignRecordForbidden(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.second.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/consumos/%d", created.ID), e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.hospital.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Network dashboard is admin-only
	rec = e.do(t, http.MethodGet, "/api/dashboard", e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet,
		"/api/dashboard?fecha_desde=2024-03-01&fecha_hasta=2024-03-31", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dash DashboardDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.EqualValues(t, 2, dash.ActiveHospitals)
	assert.Equal(t, 1, dash.RecordsInPeriod)
	assert.InDelta(t, 1250.5, dash.CriticalGasTotal, 0.001)
	require.Len(t, dash.HospitalsWithoutReport, 1)
	assert.Equal(t, "HR-002", dash.HospitalsWithoutReport[0].Code)

	// Hospital dashboard pins the reporter to their own hospital
	rec = e.do(t, http.MethodGet,
		fmt.Sprintf("/api/dashboard/hospital/%d", e.second.ID), e.userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hd HospitalDashboardDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hd))
	assert.Equal(t, "HC-001", hd.Hospital.Code)

	// Monthly series
	rec = e.do(t, http.MethodGet, "/api/dashboard/series?anio=2024", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var series MonthlySeriesDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Equal(t, 2024, series.Year)
	require.Len(t, series.Values, 12)
	assert.InDelta(t, 1250.5, series.Values[2], 0.001)
}

func TestExportReportCSV(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.hospital.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/reportes/consumos?formato=csv", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "HC-001")

	rec = e.do(t, http.MethodGet, "/api/reportes/consumos?formato=xml", e.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAdministration(t *testing.T) {
	e := newAPIEnv(t)

	// Creating a hospital user without an affiliation is rejected
	rec := e.do(t, http.MethodPost, "/api/usuarios", e.adminTok, CreateUserRequest{
		FirstName: "Pedro", LastName: "Giménez",
		Email: "pedro@mspbs.gov.py", Password: "clave123",
		Role: string(domain.RoleHospitalUser),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/usuarios", e.adminTok, CreateUserRequest{
		FirstName: "Pedro", LastName: "Giménez",
		Email: "pedro@mspbs.gov.py", Password: "clave123",
		Role: string(domain.RoleHospitalUser), HospitalID: &e.second.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate email is a client error
	rec = e.do(t, http.MethodPost, "/api/usuarios", e.adminTok, CreateUserRequest{
		FirstName: "Otro", Email: "pedro@mspbs.gov.py", Password: "clave123",
		Role: string(domain.RoleHospitalUser), HospitalID: &e.second.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-admins cannot manage users
	rec = e.do(t, http.MethodGet, "/api/usuarios", e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCatalogAdministration(t *testing.T) {
	e := newAPIEnv(t)

	// Any authenticated user can read the catalogs
	rec := e.do(t, http.MethodGet, "/api/gases", e.userTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, "/api/hospitales", e.userTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Only admins can write them
	rec = e.do(t, http.MethodPost, "/api/gases", e.userTok, GasRequest{
		Name: "Nitrógeno", Code: "N2", Unit: "m3"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/gases", e.adminTok, GasRequest{
		Name: "Nitrógeno", Code: "N2", Unit: "m3"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/hospitales", e.adminTok, HospitalRequest{
		Name: "Centro de Salud Luque", Code: "CS-004"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Deactivation then filtered listing
	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/hospitales/%d", e.second.ID), e.adminTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/hospitales?activo=true", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hospitals []HospitalDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hospitals))
	for _, hosp := range hospitals {
		assert.NotEqual(t, "HR-002", hosp.Code)
	}
}

func TestChangePassword(t *testing.T) {
	// GIVEN an authenticated user rotating their password
	e := newAPIEnv(t)

	// Wrong current password is rejected
	rec := e.do(t, http.MethodPost, "/api/auth/cambiar-password", e.userTok,
		ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "nueva123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// WHEN the correct current password is supplied
	rec = e.do(t, http.MethodPost, "/api/auth/cambiar-password", e.userTok,
		ChangePasswordRequest{CurrentPassword: "hospital123", NewPassword: "nueva123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN the new credential works and the old one does not
	e.login(t, "ana@mspbs.gov.py", "nueva123")
	rec = e.do(t, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: "ana@mspbs.gov.py", Password: "hospital123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordRecoveryFlow(t *testing.T) {
	// GIVEN a recovery request for a real account
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/recuperar", "",
		RecoveryRequest{Email: "ana@mspbs.gov.py"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token := resp["token"]
	require.NotEmpty(t, token)

	// The response for an unknown email looks identical apart from the token.
	rec = e.do(t, http.MethodPost, "/api/auth/recuperar", "",
		RecoveryRequest{Email: "nadie@mspbs.gov.py"})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN resetting with the token
	rec = e.do(t, http.MethodPost, "/api/auth/restablecer", "",
		ResetPasswordRequest{Token: token, NewPassword: "nueva123"})
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN the new password works and the token is spent
	e.login(t, "ana@mspbs.gov.py", "nueva123")
	rec = e.do(t, http.MethodPost, "/api/auth/restablecer", "",
		ResetPasswordRequest{Token: token, NewPassword: "otra123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertsOverHTTP(t *testing.T) {
	// GIVEN one silent hospital after a sweep
	e := newAPIEnv(t)
	svc := consumption.NewService(e.store, e.store, zerolog.Nop())
	_, err := svc.SweepMissingReports(context.Background(), 30)
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/api/alertas?resuelta=false", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []AlertDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.NotEmpty(t, alerts)

	// Alerts are admin-only
	rec = e.do(t, http.MethodGet, "/api/alertas", e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// WHEN resolving one
	rec = e.do(t, http.MethodPut,
		fmt.Sprintf("/api/alertas/%d/resolver", alerts[0].ID), e.adminTok,
		ResolveAlertRequest{Notes: "registro recibido"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved AlertDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.True(t, resolved.Resolved)
}

func TestAuditEndpoints(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodPost, "/api/consumos", e.adminTok, e.recordRequest(e.hospital.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	// The trail already holds the two logins plus the creation.
	rec = e.do(t, http.MethodGet, "/api/auditoria", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []AuditEventDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.GreaterOrEqual(t, len(events), 3)

	rec = e.do(t, http.MethodGet, "/api/auditoria/acciones", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/auditoria/estadisticas", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AuditStatsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.GreaterOrEqual(t, stats.Total, int64(3))

	// Purging recent history deletes nothing by default window
	rec = e.do(t, http.MethodDelete, "/api/auditoria/purgar", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var purge PurgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purge))
	assert.Zero(t, purge.Deleted)

	// The purge itself lands in the trail
	rec = e.do(t, http.MethodGet, "/api/auditoria?accion=PURGAR_AUDITORIA", e.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)

	// Retention windows outside 30..365 days are rejected
	rec = e.do(t, http.MethodDelete, "/api/auditoria/purgar?dias=10", e.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Audit is admin-only
	rec = e.do(t, http.MethodGet, "/api/auditoria", e.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
