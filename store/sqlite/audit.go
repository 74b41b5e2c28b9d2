package sqlite

// Audit trail persistence. Implements audit.Sink; the only mutation besides
// Emit is the age-based retention purge.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mspbs/medgas/audit"
)

// Emit appends one audit event. Implements audit.Sink.
func (s *Store) Emit(ctx context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, action, detail, origin, user_agent, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullInt64(e.ActorID), e.Action, e.Detail, e.Origin,
		e.UserAgent, e.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns events matching the query, newest first.
func (s *Store) ListAuditEvents(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any
	if q.ActorID != nil {
		conds = append(conds, "actor_id = ?")
		args = append(args, *q.ActorID)
	}
	if q.Action != "" {
		conds = append(conds, "action LIKE ?")
		args = append(args, "%"+q.Action+"%")
	}
	if q.From != nil {
		conds = append(conds, "at >= ?")
		args = append(args, q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		conds = append(conds, "at <= ?")
		args = append(args, q.To.UTC().Format(time.RFC3339))
	}

	query := "SELECT id, actor_id, action, detail, origin, user_agent, at FROM audit_events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY at DESC, id DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e       audit.Event
			actorID nullableInt64
			at      string
		)
		if err := rows.Scan(&e.ID, &actorID, &e.Action, &e.Detail,
			&e.Origin, &e.UserAgent, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.ActorID = actorID.ptr()
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.At = t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListAuditActions returns the distinct action tags present in the trail,
// sorted. Feeds the admin UI filter dropdown.
func (s *Store) ListAuditActions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT action FROM audit_events ORDER BY action")
	if err != nil {
		return nil, fmt.Errorf("failed to query audit actions: %w", err)
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// AuditStats summarizes the trail over a window: total events, per-action
// counts, and the most active actors (name resolved via the users table).
type AuditStats struct {
	Total   int64
	Actions []audit.ActionCount
	Actors  []audit.ActorCount
}

// AuditStatsSince computes stats for events at or after since.
func (s *Store) AuditStatsSince(ctx context.Context, since time.Time) (AuditStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := since.UTC().Format(time.RFC3339)
	var stats AuditStats

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_events WHERE at >= ?", cutoff).Scan(&stats.Total)
	if err != nil {
		return stats, fmt.Errorf("failed to count audit events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT action, COUNT(*) AS n FROM audit_events
		WHERE at >= ? GROUP BY action ORDER BY n DESC`, cutoff)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate audit actions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a audit.ActionCount
		if err := rows.Scan(&a.Action, &a.Count); err != nil {
			return stats, err
		}
		stats.Actions = append(stats.Actions, a)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	actorRows, err := s.db.QueryContext(ctx, `
		SELECT e.actor_id, COALESCE(u.first_name || ' ' || u.last_name, 'desconocido'),
		       COUNT(*) AS n
		FROM audit_events e
		LEFT JOIN users u ON u.id = e.actor_id
		WHERE e.at >= ? AND e.actor_id IS NOT NULL
		GROUP BY e.actor_id ORDER BY n DESC LIMIT 10`, cutoff)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate audit actors: %w", err)
	}
	defer actorRows.Close()
	for actorRows.Next() {
		var a audit.ActorCount
		if err := actorRows.Scan(&a.ActorID, &a.Name, &a.Count); err != nil {
			return stats, err
		}
		stats.Actors = append(stats.Actors, a)
	}
	return stats, actorRows.Err()
}

// PurgeAuditBefore deletes events older than cutoff and reports how many
// rows went away.
func (s *Store) PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_events WHERE at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events: %w", err)
	}
	return res.RowsAffected()
}
