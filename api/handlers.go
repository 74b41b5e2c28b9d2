/*
handlers.go - HTTP handlers for auth, consumption records, dashboards and
reports

PURPOSE:
  Implements the endpoint logic. Handlers decode requests, call the service
  or store, and encode responses. Domain errors map onto HTTP status codes
  in one place (writeDomainError) so every endpoint fails consistently.

ERROR MAPPING:
  domain.ErrNotFound      -> 404
  domain.ErrForbidden     -> 403
  domain.ErrInvalidInput  -> 400
  domain.ErrMisconfigured -> 500 (masked, detail only in the log)
  anything else           -> 500

SEE ALSO:
  - catalog_handlers.go: user/hospital/gas/audit/alert endpoints
  - dto.go: request/response shapes
  - server.go: route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/auth"
	"github.com/mspbs/medgas/consumption"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/report"
	"github.com/mspbs/medgas/store/sqlite"
)

// recoveryTokenTTL bounds how long a password-recovery token stays usable.
const recoveryTokenTTL = 24 * time.Hour

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *consumption.Service
	Tokens  *auth.TokenIssuer
	Audit   audit.Sink
	Log     zerolog.Logger
}

// NewHandler creates a handler over the store, service and token issuer.
func NewHandler(store *sqlite.Store, svc *consumption.Service, tokens *auth.TokenIssuer, sink audit.Sink, log zerolog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Service: svc,
		Tokens:  tokens,
		Audit:   sink,
		Log:     log,
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError translates domain errors into status codes. Internal
// configuration defects are masked; the detail goes to the log only.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Recurso no encontrado", err)
	case domain.IsForbidden(err):
		writeError(w, http.StatusForbidden, "Acceso denegado", err)
	case domain.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "Datos inválidos", err)
	case domain.IsMisconfigured(err):
		h.Log.Error().Err(err).Msg("account misconfiguration")
		writeError(w, http.StatusInternalServerError, "Error de configuración de la cuenta", nil)
	default:
		h.Log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "Error interno", nil)
	}
}

// requireActor returns the authenticated actor or writes a 401.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No autenticado", nil)
	}
	return actor, ok
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &domain.InputError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}

func queryInt64(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &domain.InputError{Field: key, Reason: "must be an integer"}
	}
	return &v, nil
}

func queryDate(r *http.Request, key string) (*domain.Date, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &domain.InputError{Field: key, Reason: "must be true or false"}
	}
	return &v, nil
}

func queryPaging(r *http.Request) (offset, limit int) {
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return offset, limit
}

// recordFilter assembles the domain filter from list/report query params.
func recordFilter(r *http.Request) (domain.Filter, error) {
	var f domain.Filter
	var err error
	if f.HospitalID, err = queryInt64(r, "hospital_id"); err != nil {
		return f, err
	}
	if f.GasID, err = queryInt64(r, "gas_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(r, "fecha_desde"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "fecha_hasta"); err != nil {
		return f, err
	}
	if f.Validated, err = queryBool(r, "validado"); err != nil {
		return f, err
	}
	f.SupplyMode = domain.SupplyMode(r.URL.Query().Get("modalidad"))
	return f, nil
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login authenticates by email and password and returns a bearer token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	origin := clientIP(r)

	user, err := h.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
		return
	}
	if user == nil || !user.Active || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		// One failure path for unknown, disabled and wrong-password so the
		// response does not leak which accounts exist.
		e := audit.New(nil, audit.ActionLoginFailed, fmt.Sprintf("intento con %s", req.Email), origin)
		e.UserAgent = r.UserAgent()
		h.emit(ctx, e)
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas", nil)
		return
	}

	token, err := h.Tokens.Issue(user.Email, string(user.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	if err := h.Store.TouchLastAccess(ctx, user.ID, time.Now().UTC()); err != nil {
		h.Log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to stamp last access")
	}

	e := audit.New(audit.Actor(user.ID), audit.ActionLoginOK, "", origin)
	e.UserAgent = r.UserAgent()
	h.emit(ctx, e)

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Type:  "bearer",
		User:  toUserDTO(*user),
	})
}

// Logout leaves a trail event. The token itself stays valid until expiry;
// discarding it is the client's job.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionLogout, "", clientIP(r)))
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Sesión cerrada"})
}

// Me returns the authenticated user's profile.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(r.Context(), actor.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// RequestRecovery starts the password-recovery flow. The response is the
// same whether or not the email exists. Without a mailer wired, the token
// comes back in the response body; production replaces this with delivery
// by email.
// POST /api/auth/recuperar
func (h *Handler) RequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req RecoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	resp := map[string]string{
		"mensaje": "Si el correo está registrado, recibirá instrucciones de recuperación",
	}

	user, err := h.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
		return
	}
	if user != nil && user.Active {
		token, err := auth.NewRecoveryToken()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate token", err)
			return
		}
		expires := time.Now().UTC().Add(recoveryTokenTTL)
		if err := h.Store.SetRecoveryToken(ctx, user.ID, &token, &expires); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store token", err)
			return
		}
		resp["token"] = token
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword consumes a recovery token and sets a new password.
// POST /api/auth/restablecer
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()

	user, err := h.Store.GetUserByRecoveryToken(ctx, req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve token", err)
		return
	}
	if user == nil || user.RecoveryExpires == nil || time.Now().UTC().After(*user.RecoveryExpires) {
		writeError(w, http.StatusBadRequest, "Token inválido o expirado", nil)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Contraseña inválida", err)
		return
	}
	if err := h.Store.SetPassword(ctx, user.ID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set password", err)
		return
	}

	h.emit(ctx, audit.New(audit.Actor(user.ID), audit.ActionPasswordReset, "", clientIP(r)))
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Contraseña actualizada"})
}

// ChangePassword lets the authenticated user rotate their own password.
// POST /api/auth/cambiar-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()

	user, err := h.Store.GetUser(ctx, actor.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
		return
	}
	if !auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusBadRequest, "Contraseña actual incorrecta", nil)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Contraseña inválida", err)
		return
	}
	if err := h.Store.SetPassword(ctx, actor.ID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set password", err)
		return
	}

	h.emit(ctx, audit.New(audit.Actor(actor.ID), audit.ActionPasswordChange, "", clientIP(r)))
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Contraseña actualizada"})
}

// emit records an audit event. Sink failures never break the request.
func (h *Handler) emit(ctx context.Context, e audit.Event) {
	if err := h.Audit.Emit(ctx, e); err != nil {
		h.Log.Error().Err(err).Str("action", e.Action).Msg("audit emission failed")
	}
}

// =============================================================================
// CONSUMPTION RECORD ENDPOINTS
// =============================================================================

// ListRecords returns the records visible to the actor, newest first.
// GET /api/consumos
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	f, err := recordFilter(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	offset, limit := queryPaging(r)

	records, err := h.Service.ListRecords(r.Context(), actor, f, offset, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// GetRecord returns one record.
// GET /api/consumos/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rec, err := h.Service.GetRecord(r.Context(), actor, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*rec))
}

// CreateRecord stores a new consumption report.
// POST /api/consumos
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	rec, err := decodeRecord(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	created, err := h.Service.CreateRecord(r.Context(), actor, rec, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(*created))
}

// UpdateRecord replaces the report fields of an existing record.
// PUT /api/consumos/{id}
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rec, err := decodeRecord(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	updated, err := h.Service.UpdateRecord(r.Context(), actor, id, rec, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*updated))
}

// DeleteRecord removes a record.
// DELETE /api/consumos/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Service.DeleteRecord(r.Context(), actor, id, clientIP(r)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateRecord stamps a record as reviewed. Administrators only.
// PUT /api/consumos/{id}/validar
func (h *Handler) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rec, err := h.Service.Validate(r.Context(), actor, id, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*rec))
}

func decodeRecord(r *http.Request) (domain.Record, error) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.Record{}, &domain.InputError{Field: "body", Reason: "invalid JSON"}
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return domain.Record{}, err
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return domain.Record{}, err
	}
	return domain.Record{
		HospitalID: req.HospitalID,
		GasID:      req.GasID,
		Period:     domain.Period{Start: start, End: end},
		SupplyMode: domain.SupplyMode(req.SupplyMode),
		Quantity:   decimal.NewFromFloat(req.Quantity),
		Unit:       req.Unit,
		Notes:      req.Notes,
	}, nil
}

// =============================================================================
// DASHBOARD ENDPOINTS
// =============================================================================

// Dashboard returns the network-wide summary. Administrators only.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	from, err := queryDate(r, "fecha_desde")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	to, err := queryDate(r, "fecha_hasta")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	sum, err := h.Service.Dashboard(r.Context(), actor, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(sum))
}

// HospitalDashboard returns the per-hospital summary.
// GET /api/dashboard/hospital/{id}
func (h *Handler) HospitalDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	from, err := queryDate(r, "fecha_desde")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	to, err := queryDate(r, "fecha_hasta")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	sum, err := h.Service.HospitalDashboard(r.Context(), actor, id, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHospitalDashboardDTO(sum))
}

// MonthlySeries returns the January-to-December consumption evolution.
// GET /api/dashboard/series?anio=2024&hospital_id=&gas_id=
func (h *Handler) MonthlySeries(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("anio"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeDomainError(w, &domain.InputError{Field: "anio", Reason: "must be an integer"})
			return
		}
		year = v
	}
	hospitalID, err := queryInt64(r, "hospital_id")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	gasID, err := queryInt64(r, "gas_id")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	series, err := h.Service.MonthlySeries(r.Context(), actor, hospitalID, gasID, year)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySeriesDTO(series))
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// ExportReport renders the consumption report in the requested format.
// GET /api/reportes/consumos?formato=pdf|csv + record filters
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	f, err := recordFilter(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	format := r.URL.Query().Get("formato")
	if format == "" {
		format = "pdf"
	}

	snap, err := h.Service.ReportData(r.Context(), actor, f, format, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var body []byte
	var mediaType string
	switch format {
	case "pdf":
		body, err = report.RenderPDF(snap)
		mediaType = report.PDFMediaType
	case "csv":
		body, err = report.RenderCSV(snap)
		mediaType = report.CSVMediaType
	default:
		writeError(w, http.StatusBadRequest, "formato must be pdf or csv", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	filename := fmt.Sprintf("reporte_consumos_%s.%s",
		snap.GeneratedAt.Format("20060102"), format)
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
