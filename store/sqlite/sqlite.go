/*
Package sqlite provides the SQLite-backed store for all persistent state.

PURPOSE:
  Implements persistence for the reference catalogs (hospitals, gases),
  users, consumption records, alerts and the append-only audit trail. The
  analytics core never talks to this package directly: the service layer
  fetches a scoped snapshot here and hands plain slices to domain.

KEY TABLES:
  hospitals, gases:       reference catalogs, soft-deactivated
  users:                  actors with bcrypt hashes and recovery tokens
  consumption_records:    one row per reported consumption
  alerts:                 anomaly flags (missing report et al.)
  audit_events:           append-only, implements audit.Sink

JOIN MATERIALIZATION:
  Record listings join hospitals and gases so every domain.Record leaves
  this package with its display fields resolved; downstream code never
  triggers secondary fetches.

FILTER SEMANTICS:
  The SQL WHERE clauses mirror domain.Filter exactly, in particular the
  full-containment date window (start_date >= from AND end_date <= to).

CONCURRENCY:
  sync.RWMutex plus WAL mode, same trade-off as a single-node deployment
  needs. The validation write is a plain read-modify-write; concurrent
  validations are last-write-wins by design of the workflow.

USAGE:
  store, err := sqlite.New("./data/medgas.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - domain/filter.go: the filter this package translates to SQL
  - audit/audit.go:   the Sink interface implemented here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mspbs/medgas/domain"
)

// Store implements all persistence interfaces over a single SQLite file.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hospitals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL DEFAULT 'hospital',
		city TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		care_level TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hospitals_department ON hospitals(department);
	CREATE INDEX IF NOT EXISTS idx_hospitals_active ON hospitals(active);

	CREATE TABLE IF NOT EXISTS gases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL,
		formula TEXT NOT NULL DEFAULT '',
		critical BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		hospital_id INTEGER REFERENCES hospitals(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_access TEXT,
		recovery_token TEXT,
		recovery_expires TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_hospital ON users(hospital_id);
	CREATE INDEX IF NOT EXISTS idx_users_recovery
		ON users(recovery_token) WHERE recovery_token IS NOT NULL;

	CREATE TABLE IF NOT EXISTS consumption_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
		gas_id INTEGER NOT NULL REFERENCES gases(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		supply_mode TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		reported_by INTEGER NOT NULL REFERENCES users(id),
		validated BOOLEAN NOT NULL DEFAULT FALSE,
		validated_by INTEGER REFERENCES users(id),
		validated_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: scoped, date-contained listings for the dashboards.
	CREATE INDEX IF NOT EXISTS idx_records_hospital_dates
		ON consumption_records(hospital_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_records_gas ON consumption_records(gas_id);
	CREATE INDEX IF NOT EXISTS idx_records_validated ON consumption_records(validated);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hospital_id INTEGER REFERENCES hospitals(id),
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		detected_at TEXT NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_by INTEGER REFERENCES users(id),
		resolved_at TEXT,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_resolved ON alerts(resolved);
	CREATE INDEX IF NOT EXISTS idx_alerts_hospital_type ON alerts(hospital_id, type);

	-- Append-only: the only delete is the retention purge, no updates.
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		actor_id INTEGER,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_at ON audit_events(at);
	CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_events(action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONSUMPTION RECORDS
// =============================================================================

const recordColumns = `
	c.id, c.hospital_id, c.gas_id, c.start_date, c.end_date, c.supply_mode,
	c.quantity, c.unit, c.notes, c.reported_by, c.validated, c.validated_by,
	c.validated_at, c.created_at,
	h.name, h.code, g.name, g.code, g.unit, g.critical`

const recordJoin = `
	FROM consumption_records c
	JOIN hospitals h ON h.id = c.hospital_id
	JOIN gases g ON g.id = c.gas_id`

// CreateRecord inserts a record and fills in its assigned id.
func (s *Store) CreateRecord(ctx context.Context, r *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO consumption_records
		(hospital_id, gas_id, start_date, end_date, supply_mode, quantity,
		 unit, notes, reported_by, validated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)`,
		r.HospitalID, r.GasID,
		r.Period.Start.String(), r.Period.End.String(),
		string(r.SupplyMode), r.Quantity.String(),
		r.Unit, r.Notes, r.ReportedBy,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	r.ID, err = res.LastInsertId()
	r.CreatedAt = now
	return err
}

// GetRecord returns one record with joined display fields, or nil when the
// id does not resolve.
func (s *Store) GetRecord(ctx context.Context, id int64) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT"+recordColumns+recordJoin+" WHERE c.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecords returns the joined records matching the filter, newest first.
// A limit of zero means no paging bound.
func (s *Store) ListRecords(ctx context.Context, f domain.Filter, offset, limit int) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := recordWhere(f)
	query := "SELECT" + recordColumns + recordJoin + where +
		" ORDER BY c.created_at DESC, c.id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountRecords counts records matching the filter without loading them.
func (s *Store) CountRecords(ctx context.Context, f domain.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := recordWhere(f)
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM consumption_records c"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// recordWhere translates domain.Filter into SQL, reproducing the
// full-containment date semantics.
func recordWhere(f domain.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.HospitalID != nil {
		conds = append(conds, "c.hospital_id = ?")
		args = append(args, *f.HospitalID)
	}
	if f.GasID != nil {
		conds = append(conds, "c.gas_id = ?")
		args = append(args, *f.GasID)
	}
	if f.From != nil {
		conds = append(conds, "c.start_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, "c.end_date <= ?")
		args = append(args, f.To.String())
	}
	if f.SupplyMode != "" {
		conds = append(conds, "c.supply_mode = ?")
		args = append(args, string(f.SupplyMode))
	}
	if f.Validated != nil {
		conds = append(conds, "c.validated = ?")
		args = append(args, *f.Validated)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateRecord persists every mutable field, including the validation
// stamp. Re-validation overwrites the previous stamp (last write wins).
func (s *Store) UpdateRecord(ctx context.Context, r domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE consumption_records
		SET hospital_id = ?, gas_id = ?, start_date = ?, end_date = ?,
		    supply_mode = ?, quantity = ?, unit = ?, notes = ?,
		    validated = ?, validated_by = ?, validated_at = ?
		WHERE id = ?`,
		r.HospitalID, r.GasID,
		r.Period.Start.String(), r.Period.End.String(),
		string(r.SupplyMode), r.Quantity.String(), r.Unit, r.Notes,
		r.Validated, nullInt64(r.ValidatedBy), nullTime(r.ValidatedAt),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireRowAffected(res, "consumo", r.ID)
}

// DeleteRecord removes a record permanently.
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM consumption_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireRowAffected(res, "consumo", id)
}

func scanRecord(rows *sql.Rows) (domain.Record, error) {
	var (
		r           domain.Record
		startDate   string
		endDate     string
		supplyMode  string
		quantity    string
		validatedBy sql.NullInt64
		validatedAt sql.NullString
		createdAt   string
	)

	err := rows.Scan(
		&r.ID, &r.HospitalID, &r.GasID, &startDate, &endDate, &supplyMode,
		&quantity, &r.Unit, &r.Notes, &r.ReportedBy, &r.Validated,
		&validatedBy, &validatedAt, &createdAt,
		&r.HospitalName, &r.HospitalCode, &r.GasName, &r.GasCode,
		&r.GasUnit, &r.GasCritical,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	if r.Period.Start, err = domain.ParseDate(startDate); err != nil {
		return r, err
	}
	if r.Period.End, err = domain.ParseDate(endDate); err != nil {
		return r, err
	}
	r.SupplyMode = domain.SupplyMode(supplyMode)
	if r.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return r, fmt.Errorf("failed to parse quantity %q: %w", quantity, err)
	}
	if validatedBy.Valid {
		r.ValidatedBy = &validatedBy.Int64
	}
	if validatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, validatedAt.String); err == nil {
			r.ValidatedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}
	return r, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func requireRowAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// nullableInt64 and nullableString wrap the sql null types with a pointer
// accessor, which is what the domain structs want.
type nullableInt64 struct{ sql.NullInt64 }

func (n nullableInt64) ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

type nullableString struct{ sql.NullString }

func (n nullableString) ptr() *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
