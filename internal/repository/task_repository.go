package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TaskRepository encapsulates task persistence. Mutations each run inside a
// single transaction wrapping read-check-write, so an ownership decision made
// by the check callback cannot race a concurrent write to the same row.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Task, error)
	UpdateWithCheck(ctx context.Context, id string, check func(*domain.Task) error) (*domain.Task, error)
	DeleteWithCheck(ctx context.Context, id string, check func(*domain.Task) error) error
}

type taskRepository struct {
	pool  *pgxpool.Pool
	hooks []TaskSaveHook
}

// NewTaskRepository instantiates the repository. Hooks run in order before
// every INSERT and UPDATE.
func NewTaskRepository(pool *pgxpool.Pool, hooks ...TaskSaveHook) TaskRepository {
	return &taskRepository{pool: pool, hooks: hooks}
}

func (r *taskRepository) applyHooks(ctx context.Context, task *domain.Task) error {
	for _, hook := range r.hooks {
		if err := hook(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.applyHooks(ctx, task); err != nil {
			return err
		}
		const query = `
            INSERT INTO tasks (title, description, done, owner_username)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at, updated_at`
		return tx.QueryRow(ctx, query,
			task.Title,
			task.Description,
			task.Done,
			task.Owner,
		).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	})
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
        SELECT id, title, description, done, owner_username, created_at, updated_at
        FROM tasks WHERE id=$1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	const query = `
        SELECT id, title, description, done, owner_username, created_at, updated_at
        FROM tasks WHERE owner_username=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

// UpdateWithCheck locks the task row, runs the check callback against the
// current state (the callback both authorizes and applies field changes),
// applies save hooks and writes the result. Returns pgx.ErrNoRows when the
// task does not exist.
func (r *taskRepository) UpdateWithCheck(ctx context.Context, id string, check func(*domain.Task) error) (*domain.Task, error) {
	var task *domain.Task
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const selectQuery = `
            SELECT id, title, description, done, owner_username, created_at, updated_at
            FROM tasks WHERE id=$1 FOR UPDATE`
		var err error
		task, err = scanTask(tx.QueryRow(ctx, selectQuery, id))
		if err != nil {
			return err
		}
		if err := check(task); err != nil {
			return err
		}
		if err := r.applyHooks(ctx, task); err != nil {
			return err
		}

		const updateQuery = `
            UPDATE tasks SET title=$1, description=$2, done=$3, updated_at=NOW()
            WHERE id=$4
            RETURNING updated_at`
		return tx.QueryRow(ctx, updateQuery,
			task.Title,
			task.Description,
			task.Done,
			task.ID,
		).Scan(&task.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteWithCheck locks the task row, runs the authorization callback and
// deletes the row. Returns pgx.ErrNoRows when the task does not exist.
func (r *taskRepository) DeleteWithCheck(ctx context.Context, id string, check func(*domain.Task) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const selectQuery = `
            SELECT id, title, description, done, owner_username, created_at, updated_at
            FROM tasks WHERE id=$1 FOR UPDATE`
		task, err := scanTask(tx.QueryRow(ctx, selectQuery, id))
		if err != nil {
			return err
		}
		if err := check(task); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, task.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Done,
		&task.Owner,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
