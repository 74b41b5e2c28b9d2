package sqlite

// Hospital and gas catalogs. Both are soft-deactivated: deactivation flips
// the active flag so historical consumption rows keep resolving their joins.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mspbs/medgas/domain"
)

// HospitalQuery narrows ListHospitals. Zero values mean "no constraint".
type HospitalQuery struct {
	Type       string
	Department string
	Active     *bool
	Search     string // matches name or code, case-insensitive
	Offset     int
	Limit      int
}

const hospitalColumns = `
	id, name, code, type, city, department, address, contact_name,
	contact_phone, contact_email, region, care_level, active, created_at`

// CreateHospital inserts a hospital and fills in its assigned id.
// A duplicate code yields an InputError.
func (s *Store) CreateHospital(ctx context.Context, h *domain.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO hospitals
		(name, code, type, city, department, address, contact_name,
		 contact_phone, contact_email, region, care_level, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Name, h.Code, h.Type, h.City, h.Department, h.Address,
		h.ContactName, h.ContactPhone, h.ContactEmail,
		h.Region, h.CareLevel, h.Active, now.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "codigo", Reason: fmt.Sprintf("code %q already registered", h.Code)}
	}
	if err != nil {
		return fmt.Errorf("failed to insert hospital: %w", err)
	}
	h.ID, err = res.LastInsertId()
	h.CreatedAt = now
	return err
}

// GetHospital returns a hospital by id, or nil when it does not exist.
func (s *Store) GetHospital(ctx context.Context, id int64) (*domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getHospitalBy(ctx, "id = ?", id)
}

// GetHospitalByCode returns a hospital by its DANE-style code, or nil.
func (s *Store) GetHospitalByCode(ctx context.Context, code string) (*domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getHospitalBy(ctx, "code = ?", code)
}

func (s *Store) getHospitalBy(ctx context.Context, cond string, arg any) (*domain.Hospital, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+hospitalColumns+" FROM hospitals WHERE "+cond, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospital: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	h, err := scanHospital(rows)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHospitals returns hospitals ordered by name.
func (s *Store) ListHospitals(ctx context.Context, q HospitalQuery) ([]domain.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any
	if q.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, q.Type)
	}
	if q.Department != "" {
		conds = append(conds, "department = ?")
		args = append(args, q.Department)
	}
	if q.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *q.Active)
	}
	if q.Search != "" {
		conds = append(conds, "(name LIKE ? COLLATE NOCASE OR code LIKE ? COLLATE NOCASE)")
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT" + hospitalColumns + " FROM hospitals"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []domain.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, rows.Err()
}

// ListActiveHospitals is the coverage-detector snapshot.
func (s *Store) ListActiveHospitals(ctx context.Context) ([]domain.Hospital, error) {
	active := true
	return s.ListHospitals(ctx, HospitalQuery{Active: &active})
}

// CountActiveHospitals counts hospitals with the active flag set.
func (s *Store) CountActiveHospitals(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM hospitals WHERE active = TRUE").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count hospitals: %w", err)
	}
	return n, nil
}

// ListDepartments returns the distinct non-empty departments of active
// hospitals, sorted.
func (s *Store) ListDepartments(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT department FROM hospitals
		WHERE active = TRUE AND department != ''
		ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// UpdateHospital persists every mutable field.
func (s *Store) UpdateHospital(ctx context.Context, h domain.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE hospitals
		SET name = ?, code = ?, type = ?, city = ?, department = ?,
		    address = ?, contact_name = ?, contact_phone = ?,
		    contact_email = ?, region = ?, care_level = ?, active = ?
		WHERE id = ?`,
		h.Name, h.Code, h.Type, h.City, h.Department, h.Address,
		h.ContactName, h.ContactPhone, h.ContactEmail,
		h.Region, h.CareLevel, h.Active, h.ID,
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "codigo", Reason: fmt.Sprintf("code %q already registered", h.Code)}
	}
	if err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}
	return requireRowAffected(res, "hospital", h.ID)
}

// DeactivateHospital flips the active flag off. Consumption history stays.
func (s *Store) DeactivateHospital(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE hospitals SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate hospital: %w", err)
	}
	return requireRowAffected(res, "hospital", id)
}

func scanHospital(rows rowScanner) (domain.Hospital, error) {
	var h domain.Hospital
	var createdAt string
	err := rows.Scan(
		&h.ID, &h.Name, &h.Code, &h.Type, &h.City, &h.Department,
		&h.Address, &h.ContactName, &h.ContactPhone, &h.ContactEmail,
		&h.Region, &h.CareLevel, &h.Active, &createdAt,
	)
	if err != nil {
		return h, fmt.Errorf("failed to scan hospital: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		h.CreatedAt = t
	}
	return h, nil
}

// =============================================================================
// GASES
// =============================================================================

const gasColumns = `
	id, name, code, description, unit, formula, critical, active, created_at`

// CreateGas inserts a gas and fills in its assigned id.
func (s *Store) CreateGas(ctx context.Context, g *domain.Gas) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gases
		(name, code, description, unit, formula, critical, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Code, g.Description, g.Unit, g.Formula,
		g.Critical, g.Active, now.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "codigo", Reason: fmt.Sprintf("code %q already registered", g.Code)}
	}
	if err != nil {
		return fmt.Errorf("failed to insert gas: %w", err)
	}
	g.ID, err = res.LastInsertId()
	g.CreatedAt = now
	return err
}

// GetGas returns a gas by id, or nil when it does not exist.
func (s *Store) GetGas(ctx context.Context, id int64) (*domain.Gas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGasBy(ctx, "id = ?", id)
}

// GetGasByCode returns a gas by code ("O2", "N2O", ...), or nil.
func (s *Store) GetGasByCode(ctx context.Context, code string) (*domain.Gas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGasBy(ctx, "code = ?", code)
}

func (s *Store) getGasBy(ctx context.Context, cond string, arg any) (*domain.Gas, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+gasColumns+" FROM gases WHERE "+cond, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query gas: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	g, err := scanGas(rows)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGases returns the gas catalog ordered by name. Pass a non-nil active
// flag to narrow.
func (s *Store) ListGases(ctx context.Context, active *bool) ([]domain.Gas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT" + gasColumns + " FROM gases"
	var args []any
	if active != nil {
		query += " WHERE active = ?"
		args = append(args, *active)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gases: %w", err)
	}
	defer rows.Close()

	var gases []domain.Gas
	for rows.Next() {
		g, err := scanGas(rows)
		if err != nil {
			return nil, err
		}
		gases = append(gases, g)
	}
	return gases, rows.Err()
}

// UpdateGas persists every mutable field.
func (s *Store) UpdateGas(ctx context.Context, g domain.Gas) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE gases
		SET name = ?, code = ?, description = ?, unit = ?, formula = ?,
		    critical = ?, active = ?
		WHERE id = ?`,
		g.Name, g.Code, g.Description, g.Unit, g.Formula,
		g.Critical, g.Active, g.ID,
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "codigo", Reason: fmt.Sprintf("code %q already registered", g.Code)}
	}
	if err != nil {
		return fmt.Errorf("failed to update gas: %w", err)
	}
	return requireRowAffected(res, "gas", g.ID)
}

// DeactivateGas flips the active flag off.
func (s *Store) DeactivateGas(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE gases SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate gas: %w", err)
	}
	return requireRowAffected(res, "gas", id)
}

func scanGas(rows rowScanner) (domain.Gas, error) {
	var g domain.Gas
	var createdAt string
	err := rows.Scan(
		&g.ID, &g.Name, &g.Code, &g.Description, &g.Unit, &g.Formula,
		&g.Critical, &g.Active, &createdAt,
	)
	if err != nil {
		return g, fmt.Errorf("failed to scan gas: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		g.CreatedAt = t
	}
	return g, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
