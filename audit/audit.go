/*
Package audit defines the append-only audit trail emitted by every
privileged operation.

PURPOSE:
  Every mutating call (record create/update/delete/validate, catalog and
  user administration, authentication) emits exactly one Event to a Sink,
  for both successful and failed privileged actions. Events are never
  mutated after creation.

DESIGN:
  The Sink is an injected capability, not an inline store write, so the
  service layer stays testable and the emission rule lives in one place.
  Sink failures must never veto the business operation: callers log and
  continue.
*/
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action tags. The values match the original ministry deployment so the
// existing audit history stays queryable.
const (
	ActionLoginOK         = "LOGIN_EXITOSO"
	ActionLoginFailed     = "LOGIN_FALLIDO"
	ActionLogout          = "LOGOUT"
	ActionPasswordReset   = "PASSWORD_RESET"
	ActionPasswordChange  = "CAMBIAR_PASSWORD"
	ActionCreateUser      = "CREAR_USUARIO"
	ActionUpdateUser      = "ACTUALIZAR_USUARIO"
	ActionDeactivateUser  = "DESACTIVAR_USUARIO"
	ActionCreateHospital  = "CREAR_HOSPITAL"
	ActionUpdateHospital  = "ACTUALIZAR_HOSPITAL"
	ActionDeactivateHosp  = "DESACTIVAR_HOSPITAL"
	ActionCreateGas       = "CREAR_GAS"
	ActionUpdateGas       = "ACTUALIZAR_GAS"
	ActionDeactivateGas   = "DESACTIVAR_GAS"
	ActionCreateRecord    = "CREAR_CONSUMO"
	ActionUpdateRecord    = "ACTUALIZAR_CONSUMO"
	ActionDeleteRecord    = "ELIMINAR_CONSUMO"
	ActionValidateRecord  = "VALIDAR_CONSUMO"
	ActionGenerateReport  = "GENERAR_REPORTE"
	ActionResolveAlert    = "RESOLVER_ALERTA"
	ActionMissingReport   = "ALERTA_SIN_REGISTRO"
	ActionPurgeAudit      = "PURGAR_AUDITORIA"
)

// Event is one append-only audit entry. ActorID is nil for failed
// authentication attempts where no identity was established.
type Event struct {
	ID        string
	ActorID   *int64
	Action    string
	Detail    string
	Origin    string // client address
	UserAgent string
	At        time.Time
}

// New builds an event stamped now with a fresh id.
func New(actorID *int64, action, detail, origin string) Event {
	return Event{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
		Origin:  origin,
		At:      time.Now().UTC(),
	}
}

// Actor is a convenience for the common non-nil case.
func Actor(id int64) *int64 { return &id }

// Sink receives audit events. Implemented by the sqlite store in
// production and by MemorySink in tests.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// Query filters an audit listing (admin-only surface).
type Query struct {
	ActorID *int64
	Action  string // substring match
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

// ActionCount is one row of the per-action statistics.
type ActionCount struct {
	Action string
	Count  int
}

// ActorCount is one row of the most-active-users statistics.
type ActorCount struct {
	ActorID int64
	Name    string
	Count   int
}
