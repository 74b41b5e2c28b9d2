/*
scope.go - Role-based effective filtering

PURPOSE:
  Derives the subset of records an actor may see or act on from its role
  and hospital affiliation. Pure function of actor + request; the store
  applies the resulting filter, this package never reads anything.

RULES:
  Administrator: may request any hospital or all of them.
  HospitalUser:  always pinned to the affiliated hospital; a requested
                 hospital id is silently overridden, and a single-record
                 operation on another hospital's record is forbidden.
*/
package domain

// EffectiveFilter is the hospital scope a request is allowed to query.
// A nil HospitalID means all hospitals.
type EffectiveFilter struct {
	HospitalID *int64
}

// Scope computes the effective hospital filter for a read operation.
//
// For HospitalUsers the requested id is not an error: it is overridden by
// the affiliation, matching how list queries behave. A HospitalUser with no
// affiliation is a misconfigured account and fails loudly.
func Scope(actor Actor, requestedHospitalID *int64) (EffectiveFilter, error) {
	switch actor.Role {
	case RoleAdministrator:
		return EffectiveFilter{HospitalID: requestedHospitalID}, nil
	case RoleHospitalUser:
		if actor.HospitalID == nil {
			return EffectiveFilter{}, &ConfigError{ActorID: actor.ID, Reason: "hospital user has no hospital affiliation"}
		}
		id := *actor.HospitalID
		return EffectiveFilter{HospitalID: &id}, nil
	default:
		return EffectiveFilter{}, &ConfigError{ActorID: actor.ID, Reason: "unknown role " + string(actor.Role)}
	}
}

// AuthorizeRecordAccess decides whether the actor may read, update, delete
// or validate a single record belonging to hospitalID. Unlike Scope, a
// mismatched hospital here is an authorization failure, not an override.
func AuthorizeRecordAccess(actor Actor, hospitalID int64) error {
	switch actor.Role {
	case RoleAdministrator:
		return nil
	case RoleHospitalUser:
		if actor.HospitalID == nil {
			return &ConfigError{ActorID: actor.ID, Reason: "hospital user has no hospital affiliation"}
		}
		if *actor.HospitalID != hospitalID {
			return &ScopeError{ActorID: actor.ID, HospitalID: hospitalID}
		}
		return nil
	default:
		return &ConfigError{ActorID: actor.ID, Reason: "unknown role " + string(actor.Role)}
	}
}

// RequireAdministrator guards admin-only operations (validation, catalog
// writes, the global dashboard).
func RequireAdministrator(actor Actor) error {
	if actor.Role != RoleAdministrator {
		return &ScopeError{ActorID: actor.ID, HospitalID: 0}
	}
	return nil
}
