package domain

import "time"

// Task is the aggregate for to-do items. Owner holds the username of the
// account that created the task and never changes afterwards.
type Task struct {
	ID          string
	Title       string
	Description string
	Done        bool
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
