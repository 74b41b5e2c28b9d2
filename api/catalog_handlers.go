/*
catalog_handlers.go - User, hospital, gas, audit and alert endpoints

PURPOSE:
  Administration endpoints over the reference catalogs and the audit
  trail. All of these are administrator-only except the read-only catalog
  listings, which any authenticated user needs to populate report forms.

SEE ALSO:
  - handlers.go: shared helpers, error mapping
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/auth"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/store/sqlite"
)

// requireAdmin returns the actor when it is an administrator, otherwise
// writes the error response.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return actor, false
	}
	if err := domain.RequireAdministrator(actor); err != nil {
		h.writeDomainError(w, err)
		return actor, false
	}
	return actor, true
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns users, optionally narrowed by role, hospital or state.
// GET /api/usuarios
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	hospitalID, err := queryInt64(r, "hospital_id")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	active, err := queryBool(r, "activo")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	offset, limit := queryPaging(r)

	users, err := h.Store.ListUsers(r.Context(), sqlite.UserQuery{
		Role:       domain.Role(r.URL.Query().Get("rol")),
		HospitalID: hospitalID,
		Active:     active,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns one user.
// GET /api/usuarios/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "usuario", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// CreateUser registers a new account. The role/affiliation invariant is
// checked before anything is written.
// POST /api/usuarios
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role := domain.Role(req.Role)
	if !role.Valid() {
		h.writeDomainError(w, &domain.InputError{Field: "rol", Reason: fmt.Sprintf("unknown role %q", req.Role)})
		return
	}
	user := sqlite.User{
		Actor: domain.Actor{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			Role:       role,
			HospitalID: req.HospitalID,
			Active:     true,
		},
	}
	if err := validateAffiliation(user.Actor); err != nil {
		h.writeDomainError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeDomainError(w, &domain.InputError{Field: "password", Reason: err.Error()})
		return
	}
	user.PasswordHash = hash

	if err := h.Store.CreateUser(r.Context(), &user); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionCreateUser,
		fmt.Sprintf("usuario %d (%s)", user.ID, user.Email), clientIP(r)))
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// UpdateUser edits profile fields, role and state.
// PUT /api/usuarios/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "usuario", ID: id})
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email
	user.Role = domain.Role(req.Role)
	user.HospitalID = req.HospitalID
	if req.Active != nil {
		user.Active = *req.Active
	}
	if !user.Role.Valid() {
		h.writeDomainError(w, &domain.InputError{Field: "rol", Reason: fmt.Sprintf("unknown role %q", req.Role)})
		return
	}
	if err := validateAffiliation(user.Actor); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.Store.UpdateUser(r.Context(), *user); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionUpdateUser,
		fmt.Sprintf("usuario %d", id), clientIP(r)))
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// DeactivateUser soft-disables an account.
// DELETE /api/usuarios/{id}
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if id == actor.ID {
		h.writeDomainError(w, &domain.InputError{Field: "id", Reason: "cannot deactivate your own account"})
		return
	}
	if err := h.Store.DeactivateUser(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionDeactivateUser,
		fmt.Sprintf("usuario %d", id), clientIP(r)))
	w.WriteHeader(http.StatusNoContent)
}

// validateAffiliation turns the actor invariant into a client error, since
// here the inconsistency comes from request input rather than stored state.
func validateAffiliation(a domain.Actor) error {
	if err := a.CheckInvariant(); err != nil {
		return &domain.InputError{Field: "hospital_id", Reason: err.Error()}
	}
	return nil
}

// =============================================================================
// HOSPITAL ENDPOINTS
// =============================================================================

// ListHospitals returns the hospital catalog.
// GET /api/hospitales
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	active, err := queryBool(r, "activo")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	offset, limit := queryPaging(r)

	hospitals, err := h.Store.ListHospitals(r.Context(), sqlite.HospitalQuery{
		Type:       r.URL.Query().Get("tipo"),
		Department: r.URL.Query().Get("departamento"),
		Active:     active,
		Search:     r.URL.Query().Get("buscar"),
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hospitals", err)
		return
	}

	dtos := make([]HospitalDTO, len(hospitals))
	for i, hosp := range hospitals {
		dtos[i] = toHospitalDTO(hosp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListDepartments returns the distinct departments of active hospitals.
// GET /api/hospitales/departamentos
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}
	if departments == nil {
		departments = []string{}
	}
	writeJSON(w, http.StatusOK, departments)
}

// GetHospital returns one hospital.
// GET /api/hospitales/{id}
func (h *Handler) GetHospital(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	hosp, err := h.Store.GetHospital(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get hospital", err)
		return
	}
	if hosp == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "hospital", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, toHospitalDTO(*hosp))
}

// CreateHospital registers a hospital.
// POST /api/hospitales
func (h *Handler) CreateHospital(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req HospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Code == "" {
		h.writeDomainError(w, &domain.InputError{Field: "nombre", Reason: "nombre and codigo are required"})
		return
	}

	hosp := hospitalFromRequest(req)
	hosp.Active = true
	if req.Active != nil {
		hosp.Active = *req.Active
	}
	if err := h.Store.CreateHospital(r.Context(), &hosp); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionCreateHospital,
		fmt.Sprintf("hospital %d (%s)", hosp.ID, hosp.Code), clientIP(r)))
	writeJSON(w, http.StatusCreated, toHospitalDTO(hosp))
}

// UpdateHospital edits a hospital.
// PUT /api/hospitales/{id}
func (h *Handler) UpdateHospital(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var req HospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.Store.GetHospital(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get hospital", err)
		return
	}
	if existing == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "hospital", ID: id})
		return
	}

	hosp := hospitalFromRequest(req)
	hosp.ID = id
	hosp.Active = existing.Active
	if req.Active != nil {
		hosp.Active = *req.Active
	}
	if err := h.Store.UpdateHospital(r.Context(), hosp); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionUpdateHospital,
		fmt.Sprintf("hospital %d", id), clientIP(r)))
	writeJSON(w, http.StatusOK, toHospitalDTO(hosp))
}

// DeactivateHospital soft-removes a hospital from the active network.
// DELETE /api/hospitales/{id}
func (h *Handler) DeactivateHospital(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.DeactivateHospital(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionDeactivateHosp,
		fmt.Sprintf("hospital %d", id), clientIP(r)))
	w.WriteHeader(http.StatusNoContent)
}

func hospitalFromRequest(req HospitalRequest) domain.Hospital {
	return domain.Hospital{
		Name:         req.Name,
		Code:         req.Code,
		Type:         req.Type,
		City:         req.City,
		Department:   req.Department,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Region:       req.Region,
		CareLevel:    req.CareLevel,
	}
}

// =============================================================================
// GAS ENDPOINTS
// =============================================================================

// ListGases returns the gas catalog.
// GET /api/gases
func (h *Handler) ListGases(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	active, err := queryBool(r, "activo")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	gases, err := h.Store.ListGases(r.Context(), active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gases", err)
		return
	}
	dtos := make([]GasDTO, len(gases))
	for i, g := range gases {
		dtos[i] = toGasDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetGas returns one gas.
// GET /api/gases/{id}
func (h *Handler) GetGas(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	gas, err := h.Store.GetGas(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get gas", err)
		return
	}
	if gas == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "gas", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, toGasDTO(*gas))
}

// CreateGas adds a catalog entry.
// POST /api/gases
func (h *Handler) CreateGas(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req GasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Code == "" || req.Unit == "" {
		h.writeDomainError(w, &domain.InputError{Field: "nombre", Reason: "nombre, codigo and unidad_medida are required"})
		return
	}

	gas := domain.Gas{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Unit:        req.Unit,
		Formula:     req.Formula,
		Critical:    req.Critical,
		Active:      true,
	}
	if req.Active != nil {
		gas.Active = *req.Active
	}
	if err := h.Store.CreateGas(r.Context(), &gas); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionCreateGas,
		fmt.Sprintf("gas %d (%s)", gas.ID, gas.Code), clientIP(r)))
	writeJSON(w, http.StatusCreated, toGasDTO(gas))
}

// UpdateGas edits a catalog entry.
// PUT /api/gases/{id}
func (h *Handler) UpdateGas(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var req GasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.Store.GetGas(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get gas", err)
		return
	}
	if existing == nil {
		h.writeDomainError(w, &domain.NotFoundError{Kind: "gas", ID: id})
		return
	}

	gas := domain.Gas{
		ID:          id,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Unit:        req.Unit,
		Formula:     req.Formula,
		Critical:    req.Critical,
		Active:      existing.Active,
	}
	if req.Active != nil {
		gas.Active = *req.Active
	}
	if err := h.Store.UpdateGas(r.Context(), gas); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionUpdateGas,
		fmt.Sprintf("gas %d", id), clientIP(r)))
	writeJSON(w, http.StatusOK, toGasDTO(gas))
}

// DeactivateGas retires a catalog entry.
// DELETE /api/gases/{id}
func (h *Handler) DeactivateGas(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.DeactivateGas(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionDeactivateGas,
		fmt.Sprintf("gas %d", id), clientIP(r)))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ALERT ENDPOINTS
// =============================================================================

// ListAlerts returns alerts newest first. Administrators only.
// GET /api/alertas?resuelta=false
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	resolved, err := queryBool(r, "resuelta")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	alerts, err := h.Service.ListAlerts(r.Context(), actor, resolved)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResolveAlert closes an alert.
// PUT /api/alertas/{id}/resolver
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var req ResolveAlertRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	alert, err := h.Service.ResolveAlert(r.Context(), actor, id, req.Notes, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertDTO(*alert))
}

// =============================================================================
// AUDIT ENDPOINTS
// =============================================================================

// ListAuditEvents returns trail events. Administrators only.
// GET /api/auditoria?accion=&usuario_id=&fecha_desde=&fecha_hasta=
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	actorID, err := queryInt64(r, "usuario_id")
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
	offset, limit := queryPaging(r)
	if limit == 0 {
		limit = 100
	}

	q := audit.Query{
		ActorID: actorID,
		Action:  r.URL.Query().Get("accion"),
		Offset:  offset,
		Limit:   limit,
	}
	if from != nil {
		t := from.Time()
		q.From = &t
	}
	if to != nil {
		// Inclusive upper bound: take the whole final day.
		t := to.AddDays(1).Time()
		q.To = &t
	}

	events, err := h.Store.ListAuditEvents(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list audit events", err)
		return
	}
	dtos := make([]AuditEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toAuditEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListAuditActions returns the distinct action tags for the filter UI.
// GET /api/auditoria/acciones
func (h *Handler) ListAuditActions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	actions, err := h.Store.ListAuditActions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list audit actions", err)
		return
	}
	if actions == nil {
		actions = []string{}
	}
	writeJSON(w, http.StatusOK, actions)
}

// AuditStats summarizes the trail over the trailing N days (default 30).
// GET /api/auditoria/estadisticas?dias=30
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	days := 30
	if raw := r.URL.Query().Get("dias"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			h.writeDomainError(w, &domain.InputError{Field: "dias", Reason: "must be a positive integer"})
			return
		}
		days = v
	}

	stats, err := h.Store.AuditStatsSince(r.Context(), time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute audit stats", err)
		return
	}

	dto := AuditStatsDTO{
		Total:   stats.Total,
		Actions: make([]AuditActionDTO, 0, len(stats.Actions)),
		Actors:  make([]AuditTopActorDTO, 0, len(stats.Actors)),
	}
	for _, a := range stats.Actions {
		dto.Actions = append(dto.Actions, AuditActionDTO{Action: a.Action, Count: a.Count})
	}
	for _, a := range stats.Actors {
		dto.Actors = append(dto.Actors, AuditTopActorDTO{ActorID: a.ActorID, Name: a.Name, Count: a.Count})
	}
	writeJSON(w, http.StatusOK, dto)
}

// PurgeAudit deletes events older than the retention window (default 180
// days). The window is bounded to 30..365 days so a typo cannot wipe the
// trail. Administrators only.
// DELETE /api/auditoria/purgar?dias=180
func (h *Handler) PurgeAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	days := 180
	if raw := r.URL.Query().Get("dias"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 30 || v > 365 {
			h.writeDomainError(w, &domain.InputError{Field: "dias", Reason: "must be between 30 and 365"})
			return
		}
		days = v
	}

	deleted, err := h.Store.PurgeAuditBefore(r.Context(), time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to purge audit events", err)
		return
	}

	// The purge is the one destructive admin operation, so it leaves its own
	// trail entry (which, being new, survives the purge it describes).
	h.emit(r.Context(), audit.New(audit.Actor(actor.ID), audit.ActionPurgeAudit,
		fmt.Sprintf("%d eventos anteriores a %d días eliminados", deleted, days), clientIP(r)))
	writeJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}
