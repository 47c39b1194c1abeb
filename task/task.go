package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrDuplicate   = errors.New("duplicate task")
	ErrCycle       = errors.New("dependency cycle")
	ErrInvalidName = errors.New("invalid task name")
)

// Action is the work done by a [Task].
type Action = func(ctx context.Context) error

// Task is a named unit of work with prerequisites.
type Task struct {
	Name        string
	Deps        []string // Deps are task names run before this task, in order.
	Action      Action   // Action may be nil for a grouping task.
	Description string
}

// IsGroup reports whether the [Task] only groups its dependencies.
func (t Task) IsGroup() bool {
	return t.Action == nil
}

// Result records one executed task.
type Result struct {
	Task     string
	Group    bool
	Duration time.Duration
	Err      error
}

// Error identifies the task that stopped a run.
type Error struct {
	Task string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("task '%s' failed: %v", e.Task, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
