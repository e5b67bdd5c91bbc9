// Package authz holds the pure decision functions gating task mutation.
// Ownership is absolute: only the task owner may update or delete it, and the
// ADMIN role never bypasses that check. ADMIN grants exactly one extra
// capability, setting a task's done flag to true.
package authz

import (
	"github.com/spec-kit/todo-service/internal/domain"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

// CanCreate reports whether the identity may create tasks. Any authenticated
// identity qualifies; the created task's owner is forced server-side.
func CanCreate(identity domain.Identity) bool {
	return identity.Username != ""
}

// ResolveDoneFlag applies the create-path policy for the done flag: a
// requested true value is silently clamped to false unless the creator holds
// ADMIN. No error is surfaced; this clamp is deliberate, and intentionally
// differs from the update path, which rejects instead.
func ResolveDoneFlag(requestedDone bool, identity domain.Identity) bool {
	if requestedDone && !identity.IsAdmin() {
		return false
	}
	return requestedDone
}

// AuthorizeUpdate decides whether identity may apply the requested change to
// the task. Title and description changes are always permitted once ownership
// passes. Flipping done to true additionally requires ADMIN and fails the
// whole operation otherwise; setting it to false is always permitted.
func AuthorizeUpdate(task *domain.Task, identity domain.Identity, requestedDone bool) error {
	if task.Owner != identity.Username {
		return apperrors.NewForbidden("only the owner may modify this task")
	}
	if requestedDone && !identity.IsAdmin() {
		return apperrors.NewForbidden("admin role required to mark a task done")
	}
	return nil
}

// AuthorizeDelete permits deletion for the owner only, independent of role.
func AuthorizeDelete(task *domain.Task, identity domain.Identity) error {
	if task.Owner != identity.Username {
		return apperrors.NewForbidden("only the owner may delete this task")
	}
	return nil
}
