package ports

import (
	"context"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// TodoRepository persists todos. Every lookup, update and delete is filtered
// by ownerID; a todo that exists but belongs to another user is reported as
// domain.ErrTodoNotFound.
type TodoRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	FindByID(ctx context.Context, id, ownerID int64) (*domain.Todo, error)
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	Update(ctx context.Context, id, ownerID int64, patch domain.TodoPatch) (*domain.Todo, error)
	// Delete physically removes the todo and returns the removed record.
	Delete(ctx context.Context, id, ownerID int64) (*domain.Todo, error)
}

// IdempotencyReservation is the outcome of IdempotencyStore.Reserve.
type IdempotencyReservation struct {
	// Reserved means the caller now owns the key and must Complete or
	// Release it.
	Reserved bool
	// TodoID is the todo an earlier create stored under the key. It is zero
	// while that create is still in flight.
	TodoID int64
}

// IdempotencyStore remembers which todo a client-supplied Idempotency-Key
// produced, per owner. Reserve and Reclaim are atomic: of several concurrent
// callers for the same owner and key, at most one is handed the key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, ownerID int64, key string) (IdempotencyReservation, error)
	// Reclaim hands the key back to the caller when it still points at
	// staleTodoID, which has since been deleted.
	Reclaim(ctx context.Context, ownerID int64, key string, staleTodoID int64) (bool, error)
	Complete(ctx context.Context, ownerID int64, key string, todoID int64) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, ownerID int64, key string) error
}
