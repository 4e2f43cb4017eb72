package service

import (
	"context"
	"errors"
	"sort"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
)

// PermissionMode selects how users map to schemas: one global schema for
// everybody, or one schema per permission group.
type PermissionMode string

const (
	PermissionSingle   PermissionMode = "single"
	PermissionMultiple PermissionMode = "multiple"
)

// GroupSchema is the per-group scope configuration in multiple mode,
// decoded once at load time from the operator's granular-schemas map.
type GroupSchema struct {
	SchemaID          int64 `json:"schemaId"`
	AllowRegistration bool  `json:"allowRegistration"`

	// EntryQueries marks which sections are author-restricted: a true value
	// means queries against that section only return the caller's own
	// entries.
	EntryQueries map[string]bool `json:"entryQueries"`
}

// ScopeService resolves a caller to a schema id and narrows entry queries
// to what that schema permits. Configuration is read-only after startup.
type ScopeService struct {
	Store        store.Store
	Mode         PermissionMode
	SchemaID     int64                  // single mode
	GroupSchemas map[string]GroupSchema // multiple mode, keyed by group handle
}

// SchemaIDForUser resolves the schema governing the user's credentials. In
// multiple mode the user's effective group is the first of their ordered
// memberships; a user outside any configured group has no schema.
func (s *ScopeService) SchemaIDForUser(ctx context.Context, user domain.User) (int64, error) {
	if s.Mode == PermissionSingle {
		if s.SchemaID == 0 {
			return 0, ErrInvalidSchema
		}
		return s.SchemaID, nil
	}

	gs, err := s.groupSchemaForUser(ctx, user)
	if err != nil {
		return 0, err
	}
	return gs.SchemaID, nil
}

// SchemaIDForGroup resolves the schema a registration under the given group
// would be issued against, refusing groups that don't allow registration.
func (s *ScopeService) SchemaIDForGroup(handle string) (int64, error) {
	if s.Mode == PermissionSingle {
		if s.SchemaID == 0 {
			return 0, ErrInvalidSchema
		}
		return s.SchemaID, nil
	}

	gs, ok := s.GroupSchemas[handle]
	if !ok || !gs.AllowRegistration || gs.SchemaID == 0 {
		return 0, ErrInvalidSchema
	}
	return gs.SchemaID, nil
}

// RegistrableGroups returns the handles of groups open for registration,
// sorted for deterministic operation naming.
func (s *ScopeService) RegistrableGroups() []string {
	var handles []string
	for handle, gs := range s.GroupSchemas {
		if gs.AllowRegistration {
			handles = append(handles, handle)
		}
	}
	sort.Strings(handles)
	return handles
}

// PrepareEntryQuery narrows a caller's entry query before it is handed to
// the content engine.
//
// An owner filter is injected when the query targets an author-restricted
// section, or unconditionally when it names no section at all. The allowed
// set is then pinned to the sections readable under the caller's schema; an
// empty set means the query yields nothing rather than failing.
func (s *ScopeService) PrepareEntryQuery(ctx context.Context, user domain.User, schemaID int64, q domain.EntryQuery) (domain.EntryQuery, error) {
	schema, err := s.Store.Schemas().GetSchemaByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.EntryQuery{}, ErrInvalidSchema
		}
		return domain.EntryQuery{}, err
	}

	restricted, err := s.restrictedSections(ctx, user)
	if err != nil {
		return domain.EntryQuery{}, err
	}

	if len(q.Section) == 0 && len(q.SectionID) == 0 {
		// No section target: the caller only ever sees their own entries.
		q.AuthorID = user.ID
	} else {
		handles := append([]string(nil), q.Section...)
		for _, id := range q.SectionID {
			section, err := s.Store.Sections().GetSectionByID(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return domain.EntryQuery{}, err
			}
			handles = append(handles, section.Handle)
		}
		for _, handle := range handles {
			if restricted[handle] {
				q.AuthorID = user.ID
				break
			}
		}
	}

	q.AllowedSections = schema.Sections
	if q.AllowedSections == nil {
		q.AllowedSections = []string{}
	}
	return q, nil
}

// restrictedSections returns the author-restricted section set for the
// user's effective group. Single mode has no per-section restrictions.
func (s *ScopeService) restrictedSections(ctx context.Context, user domain.User) (map[string]bool, error) {
	if s.Mode == PermissionSingle {
		return nil, nil
	}
	gs, err := s.groupSchemaForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return gs.EntryQueries, nil
}

func (s *ScopeService) groupSchemaForUser(ctx context.Context, user domain.User) (GroupSchema, error) {
	groups, err := s.Store.Users().ListUserGroups(ctx, user.ID)
	if err != nil {
		return GroupSchema{}, err
	}
	if len(groups) == 0 {
		return GroupSchema{}, ErrInvalidSchema
	}

	// First group wins; membership order is the only tie-break.
	gs, ok := s.GroupSchemas[groups[0].Handle]
	if !ok || gs.SchemaID == 0 {
		return GroupSchema{}, ErrInvalidSchema
	}
	return gs, nil
}
