package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TaskSaveHook transforms a task immediately before it is persisted. Hooks
// are composed explicitly at wiring time; the repository invokes them on
// every save, inside the same transaction as the write.
type TaskSaveHook func(ctx context.Context, task *domain.Task) error

const internalUsePrefix = "[Internal Use] "

// DescriptionStamp returns the production pre-save hook: it prefixes task
// descriptions with an internal-use marker. Tasks owned by an admin account
// are stamped on every save; for everyone else the stamp is applied once.
func DescriptionStamp(users UserRepository) TaskSaveHook {
	return func(ctx context.Context, task *domain.Task) error {
		owner, err := users.GetByUsername(ctx, task.Owner)
		if err != nil {
			return err
		}
		if owner.HasRole(domain.RoleAdmin) || !strings.HasPrefix(task.Description, internalUsePrefix) {
			task.Description = internalUsePrefix + task.Description
		}
		return nil
	}
}
