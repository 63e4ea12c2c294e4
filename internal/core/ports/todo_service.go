package ports

import (
	"context"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// CreateTodoInput carries the data needed to create a todo. OwnerID always
// comes from the authenticated identity.
type CreateTodoInput struct {
	OwnerID        int64
	Title          string
	Description    string
	IdempotencyKey string
}

// CreateTodoResult is returned by TodoService.Create.
type CreateTodoResult struct {
	Todo *domain.Todo
	// Replayed is true when the Idempotency-Key matched an earlier create.
	Replayed bool
}

// UpdateTodoInput carries a partial update for one of the owner's todos.
type UpdateTodoInput struct {
	OwnerID int64
	ID      int64
	Patch   domain.TodoPatch
}

// TodoService defines the owner-scoped todo use cases.
type TodoService interface {
	List(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error)
	Create(ctx context.Context, input CreateTodoInput) (*CreateTodoResult, error)
	Update(ctx context.Context, input UpdateTodoInput) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id int64) ([]domain.Todo, error)
}
