/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Quantities
  travel as float64 at this boundary; internally everything is decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FIELD NAMES:
  The JSON field names keep the Spanish vocabulary of the ministry's
  frontend (fecha_inicio, cantidad, validado, ...) so existing clients
  keep working unchanged.

VALIDATION:
  Validation is done in handlers and the service layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/mspbs/medgas/audit"
	"github.com/mspbs/medgas/consumption"
	"github.com/mspbs/medgas/domain"
	"github.com/mspbs/medgas/store/sqlite"
)

// =============================================================================
// ERROR ENVELOPE
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string  `json:"access_token"`
	Type  string  `json:"token_type"`
	User  UserDTO `json:"usuario"`
}

type RecoveryRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"nueva_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"password_actual"`
	NewPassword     string `json:"nueva_password"`
}

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"email"`
	Role       string `json:"rol"`
	HospitalID *int64 `json:"hospital_id,omitempty"`
	Active     bool   `json:"activo"`
	LastAccess string `json:"ultimo_acceso,omitempty"`
}

type CreateUserRequest struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"rol"`
	HospitalID *int64 `json:"hospital_id"`
}

type UpdateUserRequest struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"email"`
	Role       string `json:"rol"`
	HospitalID *int64 `json:"hospital_id"`
	Active     *bool  `json:"activo"`
}

func toUserDTO(u sqlite.User) UserDTO {
	dto := UserDTO{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       string(u.Role),
		HospitalID: u.HospitalID,
		Active:     u.Active,
	}
	if u.LastAccess != nil {
		dto.LastAccess = u.LastAccess.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// HOSPITALS
// =============================================================================

type HospitalDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Code         string `json:"codigo"`
	Type         string `json:"tipo"`
	City         string `json:"ciudad"`
	Department   string `json:"departamento"`
	Address      string `json:"direccion,omitempty"`
	ContactName  string `json:"contacto_nombre,omitempty"`
	ContactPhone string `json:"contacto_telefono,omitempty"`
	ContactEmail string `json:"contacto_email,omitempty"`
	Region       string `json:"region,omitempty"`
	CareLevel    string `json:"nivel_atencion,omitempty"`
	Active       bool   `json:"activo"`
}

type HospitalRequest struct {
	Name         string `json:"nombre"`
	Code         string `json:"codigo"`
	Type         string `json:"tipo"`
	City         string `json:"ciudad"`
	Department   string `json:"departamento"`
	Address      string `json:"direccion"`
	ContactName  string `json:"contacto_nombre"`
	ContactPhone string `json:"contacto_telefono"`
	ContactEmail string `json:"contacto_email"`
	Region       string `json:"region"`
	CareLevel    string `json:"nivel_atencion"`
	Active       *bool  `json:"activo"`
}

func toHospitalDTO(h domain.Hospital) HospitalDTO {
	return HospitalDTO{
		ID: h.ID, Name: h.Name, Code: h.Code, Type: h.Type,
		City: h.City, Department: h.Department, Address: h.Address,
		ContactName: h.ContactName, ContactPhone: h.ContactPhone,
		ContactEmail: h.ContactEmail, Region: h.Region,
		CareLevel: h.CareLevel, Active: h.Active,
	}
}

// =============================================================================
// GASES
// =============================================================================

type GasDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Code        string `json:"codigo"`
	Description string `json:"descripcion,omitempty"`
	Unit        string `json:"unidad_medida"`
	Formula     string `json:"formula,omitempty"`
	Critical    bool   `json:"es_critico"`
	Active      bool   `json:"activo"`
}

type GasRequest struct {
	Name        string `json:"nombre"`
	Code        string `json:"codigo"`
	Description string `json:"descripcion"`
	Unit        string `json:"unidad_medida"`
	Formula     string `json:"formula"`
	Critical    bool   `json:"es_critico"`
	Active      *bool  `json:"activo"`
}

func toGasDTO(g domain.Gas) GasDTO {
	return GasDTO{
		ID: g.ID, Name: g.Name, Code: g.Code, Description: g.Description,
		Unit: g.Unit, Formula: g.Formula, Critical: g.Critical,
		Active: g.Active,
	}
}

// =============================================================================
// CONSUMPTION RECORDS
// =============================================================================

type RecordDTO struct {
	ID           int64   `json:"id"`
	HospitalID   int64   `json:"hospital_id"`
	HospitalName string  `json:"hospital_nombre"`
	HospitalCode string  `json:"hospital_codigo"`
	GasID        int64   `json:"gas_id"`
	GasName      string  `json:"gas_nombre"`
	GasCode      string  `json:"gas_codigo"`
	StartDate    string  `json:"fecha_inicio"`
	EndDate      string  `json:"fecha_fin"`
	SupplyMode   string  `json:"modalidad_suministro"`
	Quantity     float64 `json:"cantidad"`
	Unit         string  `json:"unidad"`
	Notes        string  `json:"observaciones,omitempty"`
	ReportedBy   int64   `json:"reportado_por"`
	Validated    bool    `json:"validado"`
	ValidatedBy  *int64  `json:"validado_por,omitempty"`
	ValidatedAt  string  `json:"fecha_validacion,omitempty"`
	CreatedAt    string  `json:"fecha_creacion"`
}

type RecordRequest struct {
	HospitalID int64   `json:"hospital_id"`
	GasID      int64   `json:"gas_id"`
	StartDate  string  `json:"fecha_inicio"`
	EndDate    string  `json:"fecha_fin"`
	SupplyMode string  `json:"modalidad_suministro"`
	Quantity   float64 `json:"cantidad"`
	Unit       string  `json:"unidad"`
	Notes      string  `json:"observaciones"`
}

func toRecordDTO(r domain.Record) RecordDTO {
	dto := RecordDTO{
		ID:           r.ID,
		HospitalID:   r.HospitalID,
		HospitalName: r.HospitalName,
		HospitalCode: r.HospitalCode,
		GasID:        r.GasID,
		GasName:      r.GasName,
		GasCode:      r.GasCode,
		StartDate:    r.Period.Start.String(),
		EndDate:      r.Period.End.String(),
		SupplyMode:   string(r.SupplyMode),
		Quantity:     r.Quantity.InexactFloat64(),
		Unit:         r.Unit,
		Notes:        r.Notes,
		ReportedBy:   r.ReportedBy,
		Validated:    r.Validated,
		ValidatedBy:  r.ValidatedBy,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ValidatedAt != nil {
		dto.ValidatedAt = r.ValidatedAt.Format(time.RFC3339)
	}
	return dto
}

func toRecordDTOs(records []domain.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

// =============================================================================
// DASHBOARDS
// =============================================================================

type GasTotalDTO struct {
	GasID   int64   `json:"gas_id"`
	GasName string  `json:"gas_nombre"`
	GasCode string  `json:"gas_codigo"`
	Unit    string  `json:"unidad"`
	Total   float64 `json:"total"`
	Records int     `json:"registros"`
}

type GasShareDTO struct {
	GasTotalDTO
	Percentage float64 `json:"porcentaje"`
}

type HospitalTotalDTO struct {
	HospitalID   int64   `json:"hospital_id"`
	HospitalName string  `json:"hospital_nombre"`
	HospitalCode string  `json:"hospital_codigo"`
	Total        float64 `json:"total"`
	Records      int     `json:"registros"`
}

type ModeTotalDTO struct {
	Mode    string  `json:"modalidad"`
	Total   float64 `json:"total"`
	Records int     `json:"registros"`
}

type DashboardDTO struct {
	ActiveHospitals        int64              `json:"hospitales_activos"`
	RecordsInPeriod        int                `json:"total_registros"`
	PendingValidation      int                `json:"pendientes_validacion"`
	CriticalGasTotal       float64            `json:"consumo_oxigeno"`
	CriticalGasCode        string             `json:"gas_critico"`
	PendingAlerts          int64              `json:"alertas_pendientes"`
	HospitalsWithoutReport []HospitalDTO      `json:"hospitales_sin_reporte"`
	TopHospitals           []HospitalTotalDTO `json:"top_hospitales"`
	Distribution           []GasShareDTO      `json:"distribucion_gases"`
}

type HospitalDashboardDTO struct {
	Hospital        HospitalDTO    `json:"hospital"`
	RecordsInPeriod int            `json:"total_registros"`
	Total           float64        `json:"consumo_total"`
	GasTotals       []GasTotalDTO  `json:"consumo_por_gas"`
	ModeTotals      []ModeTotalDTO `json:"consumo_por_modalidad"`
	RecentRecords   []RecordDTO    `json:"registros_recientes"`
}

type MonthlySeriesDTO struct {
	Year   int       `json:"anio"`
	Labels []string  `json:"meses"`
	Values []float64 `json:"valores"`
}

func toDashboardDTO(s *consumption.DashboardSummary) DashboardDTO {
	dto := DashboardDTO{
		ActiveHospitals:        s.ActiveHospitals,
		RecordsInPeriod:        s.RecordsInPeriod,
		PendingValidation:      s.PendingValidation,
		CriticalGasTotal:       s.CriticalGasTotal.InexactFloat64(),
		CriticalGasCode:        s.CriticalGasCode,
		PendingAlerts:          s.PendingAlerts,
		HospitalsWithoutReport: make([]HospitalDTO, 0, len(s.HospitalsWithoutReport)),
		TopHospitals:           make([]HospitalTotalDTO, 0, len(s.TopHospitals)),
		Distribution:           make([]GasShareDTO, 0, len(s.Distribution)),
	}
	for _, h := range s.HospitalsWithoutReport {
		dto.HospitalsWithoutReport = append(dto.HospitalsWithoutReport, toHospitalDTO(h))
	}
	for _, t := range s.TopHospitals {
		dto.TopHospitals = append(dto.TopHospitals, HospitalTotalDTO{
			HospitalID:   t.HospitalID,
			HospitalName: t.HospitalName,
			HospitalCode: t.HospitalCode,
			Total:        t.Total.InexactFloat64(),
			Records:      t.Count,
		})
	}
	for _, d := range s.Distribution {
		dto.Distribution = append(dto.Distribution, GasShareDTO{
			GasTotalDTO: toGasTotalDTO(d.GasTotal),
			Percentage:  d.Percentage,
		})
	}
	return dto
}

func toGasTotalDTO(t domain.GasTotal) GasTotalDTO {
	return GasTotalDTO{
		GasID:   t.GasID,
		GasName: t.GasName,
		GasCode: t.GasCode,
		Unit:    t.Unit,
		Total:   t.Total.InexactFloat64(),
		Records: t.Count,
	}
}

func toHospitalDashboardDTO(s *consumption.HospitalSummary) HospitalDashboardDTO {
	dto := HospitalDashboardDTO{
		Hospital:        toHospitalDTO(s.Hospital),
		RecordsInPeriod: s.RecordsInPeriod,
		Total:           s.Total.InexactFloat64(),
		GasTotals:       make([]GasTotalDTO, 0, len(s.GasTotals)),
		ModeTotals:      make([]ModeTotalDTO, 0, len(s.ModeTotals)),
		RecentRecords:   toRecordDTOs(s.RecentRecords),
	}
	for _, t := range s.GasTotals {
		dto.GasTotals = append(dto.GasTotals, toGasTotalDTO(t))
	}
	for _, m := range s.ModeTotals {
		dto.ModeTotals = append(dto.ModeTotals, ModeTotalDTO{
			Mode:    string(m.Mode),
			Total:   m.Total.InexactFloat64(),
			Records: m.Count,
		})
	}
	return dto
}

func toMonthlySeriesDTO(s *domain.MonthlySeries) MonthlySeriesDTO {
	values := s.Floats()
	return MonthlySeriesDTO{
		Year:   s.Year,
		Labels: domain.MonthLabels[:],
		Values: values[:],
	}
}

// =============================================================================
// ALERTS
// =============================================================================

type AlertDTO struct {
	ID         int64  `json:"id"`
	HospitalID *int64 `json:"hospital_id,omitempty"`
	Type       string `json:"tipo"`
	Severity   string `json:"severidad"`
	Message    string `json:"mensaje"`
	DetectedAt string `json:"fecha_deteccion"`
	Resolved   bool   `json:"resuelta"`
	ResolvedBy *int64 `json:"resuelta_por,omitempty"`
	ResolvedAt string `json:"fecha_resolucion,omitempty"`
	Notes      string `json:"notas,omitempty"`
}

type ResolveAlertRequest struct {
	Notes string `json:"notas"`
}

func toAlertDTO(a domain.Alert) AlertDTO {
	dto := AlertDTO{
		ID:         a.ID,
		HospitalID: a.HospitalID,
		Type:       a.Type,
		Severity:   a.Severity,
		Message:    a.Message,
		DetectedAt: a.DetectedAt.Format(time.RFC3339),
		Resolved:   a.Resolved,
		ResolvedBy: a.ResolvedBy,
		Notes:      a.Notes,
	}
	if a.ResolvedAt != nil {
		dto.ResolvedAt = a.ResolvedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditEventDTO struct {
	ID        string `json:"id"`
	ActorID   *int64 `json:"usuario_id,omitempty"`
	Action    string `json:"accion"`
	Detail    string `json:"detalle,omitempty"`
	Origin    string `json:"ip_origen,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	At        string `json:"fecha"`
}

type AuditStatsDTO struct {
	Total   int64              `json:"total_eventos"`
	Actions []AuditActionDTO   `json:"por_accion"`
	Actors  []AuditTopActorDTO `json:"usuarios_mas_activos"`
}

type AuditActionDTO struct {
	Action string `json:"accion"`
	Count  int    `json:"cantidad"`
}

type AuditTopActorDTO struct {
	ActorID int64  `json:"usuario_id"`
	Name    string `json:"nombre"`
	Count   int    `json:"cantidad"`
}

type PurgeResponse struct {
	Deleted int64 `json:"eventos_eliminados"`
}

func toAuditEventDTO(e audit.Event) AuditEventDTO {
	return AuditEventDTO{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Detail:    e.Detail,
		Origin:    e.Origin,
		UserAgent: e.UserAgent,
		At:        e.At.Format(time.RFC3339),
	}
}
