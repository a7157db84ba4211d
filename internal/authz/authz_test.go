package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/internal/session"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestAuthorizeWithoutSession(t *testing.T) {
	err := Authorize(nil, ActionJobRead, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestAuthorizeCapabilities(t *testing.T) {
	tests := []struct {
		role   session.Role
		action Action
		allow  bool
	}{
		{session.RoleAdmin, ActionJobWrite, true},
		{session.RoleAgencyAdmin, ActionJobWrite, true},
		{session.RoleDispatcher, ActionJobWrite, true},
		{session.RoleEngineer, ActionJobWrite, true},
		{session.RoleClient, ActionJobRead, true},
		{session.RoleClient, ActionJobWrite, false},
		{session.Role("unknown"), ActionJobRead, false},
	}

	for _, tt := range tests {
		err := Authorize(&session.Session{UserID: uuid.New(), Role: tt.role}, tt.action, nil)
		if tt.allow {
			assert.NoError(t, err, "%s should hold %s", tt.role, tt.action)
		} else {
			assert.True(t, apperr.IsKind(err, apperr.KindForbidden), "%s should not hold %s", tt.role, tt.action)
		}
	}
}

func TestAuthorizeOwnership(t *testing.T) {
	engineerID := uuid.New()
	agencyID := uuid.New()
	res := &Resource{AssignedEngineerID: ptr(engineerID), AssignedAgencyID: ptr(agencyID)}

	tests := []struct {
		name  string
		s     *session.Session
		allow bool
	}{
		{"assigned engineer", &session.Session{UserID: engineerID, Role: session.RoleEngineer}, true},
		{"other engineer", &session.Session{UserID: uuid.New(), Role: session.RoleEngineer}, false},
		{"agency dispatcher", &session.Session{UserID: uuid.New(), Role: session.RoleDispatcher, AgencyID: ptr(agencyID)}, true},
		{"other agency admin", &session.Session{UserID: uuid.New(), Role: session.RoleAgencyAdmin, AgencyID: ptr(uuid.New())}, false},
		{"agency admin without agency", &session.Session{UserID: uuid.New(), Role: session.RoleAgencyAdmin}, false},
		{"admin", &session.Session{UserID: uuid.New(), Role: session.RoleAdmin}, true},
		{"client", &session.Session{UserID: uuid.New(), Role: session.RoleClient}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.s, ActionJobRead, res)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
			}
		})
	}
}

func TestAuthorizeUnassignedJob(t *testing.T) {
	err := Authorize(&session.Session{UserID: uuid.New(), Role: session.RoleEngineer}, ActionJobWrite, &Resource{})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
