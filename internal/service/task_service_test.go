package service_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/service"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

type mockTaskRepo struct{ mock.Mock }

func (m *mockTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	args := m.Called(ctx, owner)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Error(1)
}

// UpdateWithCheck mirrors the real repository: it hands the stored task to
// the check callback and aborts when the callback fails.
func (m *mockTaskRepo) UpdateWithCheck(ctx context.Context, id string, check func(*domain.Task) error) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	task := args.Get(0).(*domain.Task)
	if err := check(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *mockTaskRepo) DeleteWithCheck(ctx context.Context, id string, check func(*domain.Task) error) error {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return err
	}
	return check(args.Get(0).(*domain.Task))
}

type mockTaskCache struct{ mock.Mock }

func (m *mockTaskCache) Get(ctx context.Context, owner string) ([]domain.Task, bool) {
	args := m.Called(ctx, owner)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Bool(1)
}

func (m *mockTaskCache) Set(ctx context.Context, owner string, tasks []domain.Task) {
	m.Called(ctx, owner, tasks)
}

func (m *mockTaskCache) Invalidate(ctx context.Context, owner string) {
	m.Called(ctx, owner)
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

var (
	alice = domain.Identity{Username: "alice", Roles: []domain.Role{domain.RoleUser}}
	bob   = domain.Identity{Username: "bob", Roles: []domain.Role{domain.RoleUser}}
	root  = domain.Identity{Username: "root", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}
)

func newFixture(t *testing.T) (*service.TaskService, *mockTaskRepo, *mockTaskCache, *recordingDispatcher) {
	t.Helper()
	repo := new(mockTaskRepo)
	taskCache := new(mockTaskCache)
	dispatcher := &recordingDispatcher{}
	return service.NewTaskService(repo, taskCache, dispatcher), repo, taskCache, dispatcher
}

func requireDomainError(t *testing.T, err error, code string, status int) {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
	assert.Equal(t, status, de.HTTPStatus)
}

func TestCreate_ClampsDoneForNonAdmin(t *testing.T) {
	svc, repo, taskCache, dispatcher := newFixture(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	taskCache.On("Invalidate", mock.Anything, "alice").Return()

	task, err := svc.Create(context.Background(), alice, service.TaskInput{Title: "t", Description: "d", Done: true})
	require.NoError(t, err)

	assert.False(t, task.Done, "done must be silently downgraded, not rejected")
	assert.Equal(t, "alice", task.Owner)
	repo.AssertExpectations(t)
	taskCache.AssertExpectations(t)
	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTaskCreated, dispatcher.published[0].Type)
}

func TestCreate_AdminKeepsDone(t *testing.T) {
	svc, repo, taskCache, _ := newFixture(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	taskCache.On("Invalidate", mock.Anything, "root").Return()

	task, err := svc.Create(context.Background(), root, service.TaskInput{Title: "t", Done: true})
	require.NoError(t, err)
	assert.True(t, task.Done)
	assert.Equal(t, "root", task.Owner)
}

func TestCreate_OwnerForcedFromIdentity(t *testing.T) {
	svc, repo, taskCache, _ := newFixture(t)
	var saved *domain.Task
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Task)
	}).Return(nil)
	taskCache.On("Invalidate", mock.Anything, "alice").Return()

	_, err := svc.Create(context.Background(), alice, service.TaskInput{Title: "t"})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "alice", saved.Owner)
}

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("UpdateWithCheck", mock.Anything, "t1").Return(
		&domain.Task{ID: "t1", Title: "t", Owner: "alice"}, nil)

	_, err := svc.Update(context.Background(), bob, "t1", service.TaskInput{Title: "x"})
	requireDomainError(t, err, "FORBIDDEN", 403)
}

func TestUpdate_AdminNonOwnerStillForbidden(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("UpdateWithCheck", mock.Anything, "t1").Return(
		&domain.Task{ID: "t1", Title: "t", Owner: "alice"}, nil)

	_, err := svc.Update(context.Background(), root, "t1", service.TaskInput{Title: "x"})
	requireDomainError(t, err, "FORBIDDEN", 403)
}

func TestUpdate_DoneWithoutAdminForbidden(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("UpdateWithCheck", mock.Anything, "t1").Return(
		&domain.Task{ID: "t1", Title: "t", Owner: "alice"}, nil)

	_, err := svc.Update(context.Background(), alice, "t1", service.TaskInput{Title: "t", Done: true})
	requireDomainError(t, err, "FORBIDDEN", 403)
}

func TestUpdate_AdminOwnerMarksAndUnmarksDone(t *testing.T) {
	svc, repo, taskCache, dispatcher := newFixture(t)
	stored := &domain.Task{ID: "t1", Title: "t", Owner: "root"}
	repo.On("UpdateWithCheck", mock.Anything, "t1").Return(stored, nil)
	taskCache.On("Invalidate", mock.Anything, "root").Return()

	task, err := svc.Update(context.Background(), root, "t1", service.TaskInput{Title: "t", Done: true})
	require.NoError(t, err)
	assert.True(t, task.Done)

	task, err = svc.Update(context.Background(), root, "t1", service.TaskInput{Title: "t", Done: false})
	require.NoError(t, err)
	assert.False(t, task.Done)

	require.Len(t, dispatcher.published, 2)
	assert.Equal(t, events.EventTaskCompleted, dispatcher.published[0].Type)
	assert.Equal(t, events.EventTaskUpdated, dispatcher.published[1].Type)
}

func TestUpdate_MissingTaskNotFound(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("UpdateWithCheck", mock.Anything, "missing").Return(nil, pgx.ErrNoRows)

	_, err := svc.Update(context.Background(), alice, "missing", service.TaskInput{Title: "t"})
	requireDomainError(t, err, "NOT_FOUND", 404)
}

func TestDelete_OwnerSucceedsRegardlessOfRole(t *testing.T) {
	svc, repo, taskCache, dispatcher := newFixture(t)
	repo.On("DeleteWithCheck", mock.Anything, "t1").Return(
		&domain.Task{ID: "t1", Title: "t", Owner: "alice"}, nil)
	taskCache.On("Invalidate", mock.Anything, "alice").Return()

	require.NoError(t, svc.Delete(context.Background(), alice, "t1"))
	taskCache.AssertCalled(t, "Invalidate", mock.Anything, "alice")
	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTaskDeleted, dispatcher.published[0].Type)
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("DeleteWithCheck", mock.Anything, "t1").Return(
		&domain.Task{ID: "t1", Title: "t", Owner: "alice"}, nil)

	requireDomainError(t, svc.Delete(context.Background(), bob, "t1"), "FORBIDDEN", 403)
	requireDomainError(t, svc.Delete(context.Background(), root, "t1"), "FORBIDDEN", 403)
}

func TestDelete_MissingTaskNotFound(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	repo.On("DeleteWithCheck", mock.Anything, "missing").Return(nil, pgx.ErrNoRows)

	requireDomainError(t, svc.Delete(context.Background(), alice, "missing"), "NOT_FOUND", 404)
}

func TestList_EmptyIsNotFound(t *testing.T) {
	svc, repo, taskCache, _ := newFixture(t)
	taskCache.On("Get", mock.Anything, "alice").Return(nil, false)
	repo.On("ListByOwner", mock.Anything, "alice").Return([]domain.Task{}, nil)

	_, err := svc.List(context.Background(), alice)
	requireDomainError(t, err, "NOT_FOUND", 404)
}

func TestList_PopulatesAndServesCache(t *testing.T) {
	svc, repo, taskCache, _ := newFixture(t)
	tasks := []domain.Task{{ID: "t1", Title: "t", Owner: "alice"}}
	taskCache.On("Get", mock.Anything, "alice").Return(nil, false).Once()
	repo.On("ListByOwner", mock.Anything, "alice").Return(tasks, nil).Once()
	taskCache.On("Set", mock.Anything, "alice", tasks).Return().Once()

	got, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, tasks, got)

	// second call served from cache, repository untouched
	taskCache.On("Get", mock.Anything, "alice").Return(tasks, true).Once()
	got, err = svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, tasks, got)
	repo.AssertNumberOfCalls(t, "ListByOwner", 1)
}
