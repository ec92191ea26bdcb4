// Package policy holds the access rules of the task board. Every function is
// a pure decision over the acting user and the ownership facts of the
// resource; callers load those facts first. A denial is always reported as
// an error wrapping domain.ErrForbidden.
package policy

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// CanAccessProject allows admins and the project owner.
// Being assigned tasks in a project does not grant project access.
func CanAccessProject(actor domain.Actor, project *domain.Project) error {
	if actor.IsAdmin() || project.OwnerID == actor.ID {
		return nil
	}
	return domain.Forbidden("you do not have access to this project")
}

// CanMutateProject allows admins and the project owner.
func CanMutateProject(actor domain.Actor, project *domain.Project) error {
	if actor.IsAdmin() || project.OwnerID == actor.ID {
		return nil
	}
	return domain.Forbidden("only the project owner can modify this project")
}

// CanDeleteProject allows admins and the project owner.
func CanDeleteProject(actor domain.Actor, project *domain.Project) error {
	if actor.IsAdmin() || project.OwnerID == actor.ID {
		return nil
	}
	return domain.Forbidden("only the project owner can delete this project")
}

// CanReorderProject gates a bulk reorder. Individual tasks in the batch are
// not re-checked.
func CanReorderProject(actor domain.Actor, project *domain.Project) error {
	if actor.IsAdmin() || project.OwnerID == actor.ID {
		return nil
	}
	return domain.Forbidden("only the project owner can reorder tasks")
}

// CanAccessTask allows admins, the owner of the task's project and the
// task's assignee.
func CanAccessTask(actor domain.Actor, task *domain.Task, projectOwnerID uuid.UUID) error {
	if actor.IsAdmin() || projectOwnerID == actor.ID || task.IsAssignedTo(actor.ID) {
		return nil
	}
	return domain.Forbidden("you do not have access to this task")
}

// CanMutateTask follows the same rule as CanAccessTask.
func CanMutateTask(actor domain.Actor, task *domain.Task, projectOwnerID uuid.UUID) error {
	if actor.IsAdmin() || projectOwnerID == actor.ID || task.IsAssignedTo(actor.ID) {
		return nil
	}
	return domain.Forbidden("you do not have permission to update this task")
}

// CanDeleteTask allows admins and the project owner. Assignees cannot delete.
func CanDeleteTask(actor domain.Actor, projectOwnerID uuid.UUID) error {
	if actor.IsAdmin() || projectOwnerID == actor.ID {
		return nil
	}
	return domain.Forbidden("only the project owner can delete this task")
}

// CanListUsers allows admins only.
func CanListUsers(actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return domain.Forbidden("only admins can list users")
}

// CanMutateUser allows a user to edit themselves and admins to edit anyone.
// Changing a role is reserved to admins, including on one's own account.
func CanMutateUser(actor domain.Actor, targetID uuid.UUID, changesRole bool) error {
	if changesRole && !actor.IsAdmin() {
		return domain.Forbidden("only admins can change roles")
	}
	if actor.IsAdmin() || actor.ID == targetID {
		return nil
	}
	return domain.Forbidden("you can only update your own profile")
}

// CanDeleteUser allows admins to delete any account except their own.
func CanDeleteUser(actor domain.Actor, targetID uuid.UUID) error {
	if !actor.IsAdmin() {
		return domain.Forbidden("only admins can delete users")
	}
	if actor.ID == targetID {
		return domain.Forbidden("admins cannot delete their own account")
	}
	return nil
}

// CanJoinProjectGroup decides whether actor may subscribe to a project's
// realtime events. assignedTaskCount is the number of live tasks in the
// project assigned to actor.
func CanJoinProjectGroup(actor domain.Actor, project *domain.Project, assignedTaskCount int) error {
	if actor.IsAdmin() || project.OwnerID == actor.ID || assignedTaskCount > 0 {
		return nil
	}
	return domain.Forbidden("you do not have access to this project's updates")
}
