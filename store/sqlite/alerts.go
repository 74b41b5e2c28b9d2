package sqlite

// Alert persistence. The sweeper calls HasOpenAlert before creating a new
// missing-report alert so one condition never stacks duplicates.

import (
	"context"
	"fmt"
	"time"

	"github.com/mspbs/medgas/domain"
)

const alertColumns = `
	id, hospital_id, type, severity, message, detected_at,
	resolved, resolved_by, resolved_at, notes`

// CreateAlert inserts an alert and fills in its assigned id.
func (s *Store) CreateAlert(ctx context.Context, a *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts
		(hospital_id, type, severity, message, detected_at, resolved, notes)
		VALUES (?, ?, ?, ?, ?, FALSE, ?)`,
		nullInt64(a.HospitalID), a.Type, a.Severity, a.Message,
		a.DetectedAt.UTC().Format(time.RFC3339), a.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetAlert returns an alert by id, or nil when it does not exist.
func (s *Store) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT"+alertColumns+" FROM alerts WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	a, err := scanAlert(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns alerts newest first. Pass a non-nil resolved flag to
// narrow to open or closed alerts.
func (s *Store) ListAlerts(ctx context.Context, resolved *bool) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT" + alertColumns + " FROM alerts"
	var args []any
	if resolved != nil {
		query += " WHERE resolved = ?"
		args = append(args, *resolved)
	}
	query += " ORDER BY detected_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// CountPendingAlerts counts unresolved alerts for the dashboard card.
func (s *Store) CountPendingAlerts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alerts WHERE resolved = FALSE").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// HasOpenAlert reports whether an unresolved alert of the given type exists
// for the hospital.
func (s *Store) HasOpenAlert(ctx context.Context, hospitalID int64, alertType string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE hospital_id = ? AND type = ? AND resolved = FALSE`,
		hospitalID, alertType).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to probe open alert: %w", err)
	}
	return n > 0, nil
}

// ResolveAlert marks an alert handled, stamping who and when.
func (s *Store) ResolveAlert(ctx context.Context, id, actorID int64, at time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts
		SET resolved = TRUE, resolved_by = ?, resolved_at = ?, notes = ?
		WHERE id = ?`,
		actorID, at.UTC().Format(time.RFC3339), notes, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return requireRowAffected(res, "alerta", id)
}

func scanAlert(rows rowScanner) (domain.Alert, error) {
	var (
		a          domain.Alert
		hospitalID nullableInt64
		detectedAt string
		resolvedBy nullableInt64
		resolvedAt nullableString
	)

	err := rows.Scan(
		&a.ID, &hospitalID, &a.Type, &a.Severity, &a.Message, &detectedAt,
		&a.Resolved, &resolvedBy, &resolvedAt, &a.Notes,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan alert: %w", err)
	}

	a.HospitalID = hospitalID.ptr()
	a.ResolvedBy = resolvedBy.ptr()
	if t, err := time.Parse(time.RFC3339, detectedAt); err == nil {
		a.DetectedAt = t
	}
	if s := resolvedAt.ptr(); s != nil {
		if t, err := time.Parse(time.RFC3339, *s); err == nil {
			a.ResolvedAt = &t
		}
	}
	return a, nil
}
