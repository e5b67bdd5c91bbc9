package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/todo-service/internal/authz"
	"github.com/spec-kit/todo-service/internal/cache"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/repository"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

// TaskService coordinates task workflows: authorization decisions come from
// the authz package, persistence runs one transaction per mutation, and
// successful mutations invalidate the owner's cached listing.
type TaskService struct {
	tasks      repository.TaskRepository
	taskCache  cache.TaskCache
	dispatcher events.Dispatcher
}

// TaskInput describes the client-supplied task fields. There is no owner
// field on the wire; ownership always derives from the caller identity.
type TaskInput struct {
	Title       string
	Description string
	Done        bool
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, taskCache cache.TaskCache, dispatcher events.Dispatcher) *TaskService {
	return &TaskService{tasks: tasks, taskCache: taskCache, dispatcher: dispatcher}
}

// List returns all tasks owned by the identity. An empty result set is
// reported as NotFound rather than an empty list.
func (s *TaskService) List(ctx context.Context, identity domain.Identity) ([]domain.Task, error) {
	if cached, ok := s.cacheGet(ctx, identity.Username); ok {
		return cached, nil
	}

	tasks, err := s.tasks.ListByOwner(ctx, identity.Username)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, apperrors.NewNotFound("tasks", map[string]any{"owner": identity.Username})
	}

	s.cacheSet(ctx, identity.Username, tasks)
	return tasks, nil
}

// Create stores a new task owned by the identity. A requested done=true is
// silently clamped to false unless the creator holds ADMIN.
func (s *TaskService) Create(ctx context.Context, identity domain.Identity, input TaskInput) (*domain.Task, error) {
	if !authz.CanCreate(identity) {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	task := &domain.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Done:        authz.ResolveDoneFlag(input.Done, identity),
		Owner:       identity.Username,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, identity.Username)
	s.publish(ctx, identity, events.EventTaskCreated, task)
	return task, nil
}

// Update applies the requested change to an owned task. The ownership and
// done-flag decisions run inside the repository transaction, against the
// locked row.
func (s *TaskService) Update(ctx context.Context, identity domain.Identity, id string, input TaskInput) (*domain.Task, error) {
	wasDone := false
	task, err := s.tasks.UpdateWithCheck(ctx, id, func(current *domain.Task) error {
		if err := authz.AuthorizeUpdate(current, identity, input.Done); err != nil {
			return err
		}
		wasDone = current.Done
		current.Title = strings.TrimSpace(input.Title)
		current.Description = input.Description
		current.Done = input.Done
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": id})
		}
		return nil, err
	}

	s.cacheInvalidate(ctx, identity.Username)
	if task.Done && !wasDone {
		s.publish(ctx, identity, events.EventTaskCompleted, task)
	} else {
		s.publish(ctx, identity, events.EventTaskUpdated, task)
	}
	return task, nil
}

// Delete removes an owned task, independent of role.
func (s *TaskService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	var deleted domain.Task
	err := s.tasks.DeleteWithCheck(ctx, id, func(current *domain.Task) error {
		if err := authz.AuthorizeDelete(current, identity); err != nil {
			return err
		}
		deleted = *current
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("task", map[string]any{"id": id})
		}
		return err
	}

	s.cacheInvalidate(ctx, identity.Username)
	s.publish(ctx, identity, events.EventTaskDeleted, &deleted)
	return nil
}

func (s *TaskService) cacheGet(ctx context.Context, owner string) ([]domain.Task, bool) {
	if s.taskCache == nil {
		return nil, false
	}
	tasks, ok := s.taskCache.Get(ctx, owner)
	if !ok || len(tasks) == 0 {
		return nil, false
	}
	return tasks, true
}

func (s *TaskService) cacheSet(ctx context.Context, owner string, tasks []domain.Task) {
	if s.taskCache != nil {
		s.taskCache.Set(ctx, owner, tasks)
	}
}

func (s *TaskService) cacheInvalidate(ctx context.Context, owner string) {
	if s.taskCache != nil {
		s.taskCache.Invalidate(ctx, owner)
	}
}

func (s *TaskService) publish(ctx context.Context, identity domain.Identity, eventType events.EventType, task *domain.Task) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TaskID:    task.ID,
		Actor:     events.Actor{Username: identity.Username, Admin: identity.IsAdmin()},
		Timestamp: time.Now(),
		Payload: events.TaskPayload{
			Title: task.Title,
			Done:  task.Done,
			Owner: task.Owner,
		},
	})
}
