// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package authz decides which dashboard resources a role may manage, using
// a Casbin RBAC model:
//
//   - ADMIN manages every resource.
//   - EDITOR manages posts and categories and reads analytics.
//   - USER has no dashboard access.
package authz

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/runit/internal/models"
)

// Actions.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// Resources is every object the policy mentions, in menu order.
var Resources = []string{"posts", "categories", "races", "users", "memberships", "analytics", "audit"}

var actions = []string{ActionRead, ActionWrite, ActionDelete}

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicy grants EDITOR its resources and makes ADMIN inherit them
// on top of a wildcard grant.
const defaultPolicy = `
p, EDITOR, posts, *
p, EDITOR, categories, *
p, EDITOR, analytics, read
p, ADMIN, *, *
g, ADMIN, EDITOR
`

// Enforcer answers role/resource/action questions.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds the enforcer with the built-in policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, defaultPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: enforcer}, nil
}

// loadPolicy parses CSV policy lines of the form "p, sub, obj, act" and
// "g, member, role".
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether role may perform action on resource. Roles are
// compared case-insensitively.
func (e *Enforcer) Enforce(role, resource, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(strings.ToUpper(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// CanAccessDashboard reports whether role may read any dashboard resource.
func (e *Enforcer) CanAccessDashboard(role string) bool {
	for _, res := range Resources {
		if ok, _ := e.Enforce(role, res, ActionRead); ok {
			return true
		}
	}
	return false
}

// Permissions lists the allowed actions per resource for role. Resources
// with no allowed action are omitted.
func (e *Enforcer) Permissions(role string) map[string][]string {
	perms := make(map[string][]string)
	for _, res := range Resources {
		for _, act := range actions {
			if ok, _ := e.Enforce(role, res, act); ok {
				perms[res] = append(perms[res], act)
			}
		}
	}
	return perms
}

// ActionFor maps an HTTP method to an action.
func ActionFor(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// IsStaff reports whether role is one of the dashboard roles.
func IsStaff(role string) bool {
	role = strings.ToUpper(role)
	return role == models.RoleAdmin || role == models.RoleEditor
}
