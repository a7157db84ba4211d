// Package authz is the single capability check for job operations.
package authz

import (
	"github.com/google/uuid"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/models"
)

// Action is a capability a caller may hold.
type Action string

const (
	ActionJobRead  Action = "job:read"
	ActionJobWrite Action = "job:write"
)

// Resource carries the ownership references of the job being acted on.
type Resource struct {
	AssignedEngineerID *uuid.UUID
	AssignedAgencyID   *uuid.UUID
}

// JobResource builds the ownership view of a job.
func JobResource(job *models.Job) *Resource {
	return &Resource{
		AssignedEngineerID: job.AssignedEngineerID,
		AssignedAgencyID:   job.AssignedAgencyID,
	}
}

var capabilities = map[session.Role]map[Action]bool{
	session.RoleAdmin:       {ActionJobRead: true, ActionJobWrite: true},
	session.RoleAgencyAdmin: {ActionJobRead: true, ActionJobWrite: true},
	session.RoleDispatcher:  {ActionJobRead: true, ActionJobWrite: true},
	session.RoleEngineer:    {ActionJobRead: true, ActionJobWrite: true},
	session.RoleClient:      {ActionJobRead: true},
}

// Authorize allows or denies action for the session. A nil resource checks
// the capability only; otherwise the caller must also own the resource.
func Authorize(s *session.Session, action Action, res *Resource) error {
	if s == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !capabilities[s.Role][action] {
		return apperr.Forbidden("Missing permission " + string(action)).
			WithDetails(map[string]interface{}{"permission": string(action)})
	}
	if res == nil || owns(s, res) {
		return nil
	}
	return apperr.Forbidden("You are not assigned to this job")
}

func owns(s *session.Session, res *Resource) bool {
	switch s.Role {
	case session.RoleAdmin:
		return true
	case session.RoleEngineer:
		return res.AssignedEngineerID != nil && *res.AssignedEngineerID == s.UserID
	case session.RoleAgencyAdmin, session.RoleDispatcher:
		return s.AgencyID != nil && res.AssignedAgencyID != nil && *res.AssignedAgencyID == *s.AgencyID
	}
	return false
}
