package sqlite

// User persistence. The stored shape carries credential material the domain
// Actor never sees: bcrypt hash and the password-recovery token pair.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mspbs/medgas/domain"
)

// User is the persisted actor plus credential material.
type User struct {
	domain.Actor
	PasswordHash    string
	RecoveryToken   *string
	RecoveryExpires *time.Time
	CreatedAt       time.Time
}

// UserQuery narrows ListUsers. Zero values mean "no constraint".
type UserQuery struct {
	Role       domain.Role
	HospitalID *int64
	Active     *bool
	Offset     int
	Limit      int
}

const userColumns = `
	id, first_name, last_name, email, password_hash, role, hospital_id,
	active, last_access, recovery_token, recovery_expires, created_at`

// CreateUser inserts a user and fills in its assigned id.
// A duplicate email yields an InputError.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users
		(first_name, last_name, email, password_hash, role, hospital_id,
		 active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash,
		string(u.Role), nullInt64(u.HospitalID), u.Active,
		now.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "email", Reason: fmt.Sprintf("email %q already registered", u.Email)}
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	u.CreatedAt = now
	return err
}

// GetUser returns a user by id, or nil when it does not exist.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserBy(ctx, "id = ?", id)
}

// GetUserByEmail returns a user by email, or nil. The lookup is
// case-insensitive to match how login forms behave.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserBy(ctx, "email = ? COLLATE NOCASE", email)
}

// GetUserByRecoveryToken resolves a pending password-recovery token, or nil.
func (s *Store) GetUserByRecoveryToken(ctx context.Context, token string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserBy(ctx, "recovery_token = ?", token)
}

func (s *Store) getUserBy(ctx context.Context, cond string, arg any) (*User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+userColumns+" FROM users WHERE "+cond, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	u, err := scanUser(rows)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns users ordered by last name, first name.
func (s *Store) ListUsers(ctx context.Context, q UserQuery) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any
	if q.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(q.Role))
	}
	if q.HospitalID != nil {
		conds = append(conds, "hospital_id = ?")
		args = append(args, *q.HospitalID)
	}
	if q.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *q.Active)
	}

	query := "SELECT" + userColumns + " FROM users"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_name, first_name"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser persists profile fields. Credentials change through
// SetPassword and SetRecoveryToken only.
func (s *Store) UpdateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, role = ?,
		    hospital_id = ?, active = ?
		WHERE id = ?`,
		u.FirstName, u.LastName, u.Email, string(u.Role),
		nullInt64(u.HospitalID), u.Active, u.ID,
	)
	if isUniqueConstraintError(err) {
		return &domain.InputError{Field: "email", Reason: fmt.Sprintf("email %q already registered", u.Email)}
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRowAffected(res, "usuario", u.ID)
}

// SetPassword replaces the stored hash and clears any pending recovery
// token so a used or stale token cannot be replayed.
func (s *Store) SetPassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, recovery_token = NULL, recovery_expires = NULL
		WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return requireRowAffected(res, "usuario", id)
}

// SetRecoveryToken stores a recovery token with its expiry. Pass nil to
// clear.
func (s *Store) SetRecoveryToken(ctx context.Context, id int64, token *string, expires *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t any
	if token != nil {
		t = *token
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET recovery_token = ?, recovery_expires = ? WHERE id = ?`,
		t, nullTime(expires), id)
	if err != nil {
		return fmt.Errorf("failed to set recovery token: %w", err)
	}
	return requireRowAffected(res, "usuario", id)
}

// TouchLastAccess stamps a successful login.
func (s *Store) TouchLastAccess(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_access = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to stamp last access: %w", err)
	}
	return requireRowAffected(res, "usuario", id)
}

// DeactivateUser flips the active flag off. Audit history keeps the actor id.
func (s *Store) DeactivateUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return requireRowAffected(res, "usuario", id)
}

func scanUser(rows rowScanner) (User, error) {
	var (
		u               User
		role            string
		hospitalID      nullableInt64
		lastAccess      nullableString
		recoveryToken   nullableString
		recoveryExpires nullableString
		createdAt       string
	)

	err := rows.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&role, &hospitalID, &u.Active, &lastAccess,
		&recoveryToken, &recoveryExpires, &createdAt,
	)
	if err != nil {
		return u, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.HospitalID = hospitalID.ptr()
	if s := lastAccess.ptr(); s != nil {
		if t, err := time.Parse(time.RFC3339, *s); err == nil {
			u.LastAccess = &t
		}
	}
	u.RecoveryToken = recoveryToken.ptr()
	if s := recoveryExpires.ptr(); s != nil {
		if t, err := time.Parse(time.RFC3339, *s); err == nil {
			u.RecoveryExpires = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}
