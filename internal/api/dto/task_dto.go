package dto

import "github.com/spec-kit/todo-service/internal/domain"

// TaskRequest payload for create and update. There is no owner field; the
// server forces ownership from the caller identity.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// TaskDTO is the wire shape for tasks. Id and owner are deliberately absent.
type TaskDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// FromTask maps a domain task to its wire shape.
func FromTask(task *domain.Task) TaskDTO {
	return TaskDTO{
		Title:       task.Title,
		Description: task.Description,
		Done:        task.Done,
	}
}

// FromTasks maps a task slice to wire shapes.
func FromTasks(tasks []domain.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		out = append(out, FromTask(&tasks[i]))
	}
	return out
}
