package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/todoapp/todo-api/internal/core/domain"
)

const todoColumns = `id, title, description, is_completed, user_id, created_at, updated_at`

// TodoRepository implements ports.TodoRepository. Every statement that
// addresses a single row is filtered by both id and user_id.
type TodoRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewTodoRepository(db DBTX) *TodoRepository {
	return &TodoRepository{db: db, timeout: defaultTimeout}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	t := &domain.Todo{}
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + todoColumns + ` FROM todos
		 WHERE user_id = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id, ownerID int64) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + todoColumns + ` FROM todos
		 WHERE id = $1 AND user_id = $2`

	return oneTodo(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`INSERT INTO todos (title, description, is_completed, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + todoColumns

	t, err := scanTodo(r.db.QueryRowContext(ctx, query, todo.Title, todo.Description, todo.IsCompleted, todo.UserID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Update leaves a column unchanged when the matching patch field is nil.
func (r *TodoRepository) Update(ctx context.Context, id, ownerID int64, patch domain.TodoPatch) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`UPDATE todos SET
		   title        = COALESCE($3, title),
		   description  = COALESCE($4, description),
		   is_completed = COALESCE($5, is_completed),
		   updated_at   = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + todoColumns

	return oneTodo(r.db.QueryRowContext(ctx, query, id, ownerID, patch.Title, patch.Description, patch.IsCompleted))
}

func (r *TodoRepository) Delete(ctx context.Context, id, ownerID int64) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query :=
		`DELETE FROM todos
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + todoColumns

	return oneTodo(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func oneTodo(row *sql.Row) (*domain.Todo, error) {
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
