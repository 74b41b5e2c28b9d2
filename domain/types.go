/*
Package domain provides the core model and analytics computations for the
medical-gas consumption tracking system.

PURPOSE:
  This package contains the data model (hospitals, gases, consumption
  records, actors) and the pure analytics core that operates over it:
  role-based scope filtering, multi-dimensional aggregation, hospital
  ranking, percentage distribution, monthly series building and coverage
  detection.

KEY CONCEPTS IN THIS FILE (types.go):
  - Actor: an authenticated identity with a role and optional hospital
    affiliation
  - Hospital / Gas: reference catalogs, soft-deactivated, never deleted
  - Record: one reported consumption over a [start, end] period

DESIGN PRINCIPLES:
  1. Purity: every analytics function is a pure function over a record
     slice fetched for the request; no hidden I/O
  2. Precision: quantity math uses decimal.Decimal, never float64
  3. Closed roles: Role is a closed set matched exhaustively, not compared
     as free-form strings
  4. Materialized joins: records reach this package with hospital/gas
     display fields already resolved by the store

SEE ALSO:
  - scope.go: role-based effective filtering
  - aggregate.go, rank.go, distribution.go, series.go, coverage.go
  - errors.go: error taxonomy shared with the service layer
*/
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLES AND ACTORS
// =============================================================================

// Role is the closed set of actor roles. The string values match what is
// persisted and carried in access tokens.
type Role string

const (
	RoleAdministrator Role = "ADMIN"
	RoleHospitalUser  Role = "HOSPITAL_USER"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleHospitalUser:
		return true
	}
	return false
}

// Actor is an authenticated identity performing an operation.
// Invariant: RoleHospitalUser carries exactly one hospital affiliation;
// RoleAdministrator carries none.
type Actor struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	Role       Role
	HospitalID *int64
	Active     bool
	LastAccess *time.Time
}

// FullName returns the display name used in audit detail and reports.
func (a Actor) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// CheckInvariant verifies the role/affiliation consistency rule enforced at
// actor creation. A HospitalUser without an affiliation (or an Administrator
// with one) is a configuration defect, not client error.
func (a Actor) CheckInvariant() error {
	switch a.Role {
	case RoleAdministrator:
		if a.HospitalID != nil {
			return &ConfigError{ActorID: a.ID, Reason: "administrator must not carry a hospital affiliation"}
		}
	case RoleHospitalUser:
		if a.HospitalID == nil {
			return &ConfigError{ActorID: a.ID, Reason: "hospital user has no hospital affiliation"}
		}
	default:
		return &ConfigError{ActorID: a.ID, Reason: "unknown role " + string(a.Role)}
	}
	return nil
}

// =============================================================================
// REFERENCE CATALOGS
// =============================================================================

// Hospital is a reporting facility. Deactivation is soft: inactive
// hospitals stop appearing in coverage checks but their history remains.
type Hospital struct {
	ID           int64
	Name         string
	Code         string
	Type         string // hospital, centro_salud, instituto
	City         string
	Department   string
	Address      string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Region       string // sanitary region
	CareLevel    string // primario, secundario, terciario
	Active       bool
	CreatedAt    time.Time
}

// Gas is a catalog entry for a medical gas. Critical gases (e.g. oxygen)
// are subject to stricter monitoring and surface in dashboard summaries.
type Gas struct {
	ID          int64
	Name        string
	Code        string
	Description string
	Unit        string // base unit of measure: m³, L, kg
	Formula     string
	Critical    bool
	Active      bool
	CreatedAt   time.Time
}

// CriticalGasCode is the catalog code of the gas summarized on the admin
// dashboard.
const CriticalGasCode = "O2"

// =============================================================================
// SUPPLY MODES
// =============================================================================

type SupplyMode string

const (
	SupplyCryogenicTank  SupplyMode = "tanque_criogenico"
	SupplyCylinders      SupplyMode = "cilindros"
	SupplyCentralNetwork SupplyMode = "red_central"
	SupplyPSA            SupplyMode = "PSA"
	SupplyOther          SupplyMode = "otro"
)

func (m SupplyMode) Valid() bool {
	switch m {
	case SupplyCryogenicTank, SupplyCylinders, SupplyCentralNetwork, SupplyPSA, SupplyOther:
		return true
	}
	return false
}

// =============================================================================
// CONSUMPTION RECORD
// =============================================================================

// Record is one reported gas consumption for a hospital over a period.
// Invariants: Period.End >= Period.Start and Quantity > 0.
//
// The Hospital*/Gas* fields are display attributes materialized by the
// store's join; the analytics core never triggers secondary fetches.
type Record struct {
	ID         int64
	HospitalID int64
	GasID      int64
	Period     Period
	SupplyMode SupplyMode
	Quantity   decimal.Decimal
	Unit       string
	Notes      string
	ReportedBy int64

	Validated   bool
	ValidatedBy *int64
	ValidatedAt *time.Time

	CreatedAt time.Time

	// Joined display fields (read-only).
	HospitalName string
	HospitalCode string
	GasName      string
	GasCode      string
	GasUnit      string
	GasCritical  bool
}

// CheckInvariant validates the record-level invariants before any write is
// attempted.
func (r Record) CheckInvariant() error {
	if err := r.Period.CheckInvariant(); err != nil {
		return err
	}
	if !r.Quantity.IsPositive() {
		return &InputError{Field: "cantidad", Reason: "quantity must be positive"}
	}
	if !r.SupplyMode.Valid() {
		return &InputError{Field: "modo_suministro", Reason: "unknown supply mode " + string(r.SupplyMode)}
	}
	return nil
}

// =============================================================================
// ALERTS
// =============================================================================

// Alert flags an anomaly detected over the consumption data, e.g. an active
// hospital with no report in the monitored window.
type Alert struct {
	ID         int64
	HospitalID *int64
	Type       string // consumo_alto, consumo_bajo, sin_registro
	Severity   string // info, warning, critical
	Message    string
	DetectedAt time.Time
	Resolved   bool
	ResolvedBy *int64
	ResolvedAt *time.Time
	Notes      string
}

const (
	AlertMissingReport   = "sin_registro"
	AlertHighConsumption = "consumo_alto"
	AlertLowConsumption  = "consumo_bajo"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)
