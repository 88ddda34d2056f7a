// Package policy decides whether a caller may perform an action on a task.
// Every task read or mutation asks the Policy before touching the store.
package policy

import (
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

type Action string

const (
	ActionView                Action = "task:view"
	ActionUpdate              Action = "task:update"
	ActionDelete              Action = "task:delete"
	ActionUpdateStatus        Action = "task:update_status"
	ActionUpdateChecklist     Action = "task:update_checklist"
	ActionViewGlobalDashboard Action = "dashboard:global"
	ActionManageUsers         Action = "users:manage"
	ActionExportReports       Action = "reports:export"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

type Policy struct {
	cfg config.PolicyConfig
}

func New(cfg config.PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Evaluate checks action for actor. task may be nil for actions that do not
// target a single task.
func (p *Policy) Evaluate(actor auth.Identity, action Action, task *models.Task) Decision {
	switch action {
	case ActionUpdateStatus, ActionUpdateChecklist:
		return adminOrAssignee(actor, task)

	case ActionView:
		if !p.cfg.RestrictTaskReads {
			return allow("authenticated")
		}
		if d := adminOrAssignee(actor, task); d.Allowed {
			return d
		}
		return creator(actor, task)

	case ActionUpdate, ActionDelete:
		if !p.cfg.RestrictTaskEdits {
			return allow("authenticated")
		}
		if actor.IsAdmin() {
			return allow("admin")
		}
		return creator(actor, task)

	case ActionViewGlobalDashboard:
		if !p.cfg.AdminOnlyDashboard || actor.IsAdmin() {
			return allow("dashboard open")
		}
		return deny("Access Denied, admin only")

	case ActionManageUsers, ActionExportReports:
		if actor.IsAdmin() {
			return allow("admin")
		}
		return deny("Access Denied, admin only")
	}

	return deny("unknown action")
}

// ListScope limits task listings: admins see every task, everyone else only
// the tasks assigned to them. A nil result means no restriction.
func (p *Policy) ListScope(actor auth.Identity) *uuid.UUID {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.UserID
	return &id
}

func adminOrAssignee(actor auth.Identity, task *models.Task) Decision {
	if actor.IsAdmin() {
		return allow("admin")
	}
	if task != nil && task.IsAssignedTo(actor.UserID) {
		return allow("assignee")
	}
	return deny("Not authorized to modify this task")
}

func creator(actor auth.Identity, task *models.Task) Decision {
	if task != nil && task.CreatedBy == actor.UserID {
		return allow("creator")
	}
	return deny("Not authorized to access this task")
}
