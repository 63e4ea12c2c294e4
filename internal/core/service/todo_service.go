package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/todoapp/todo-api/internal/core/domain"
	"github.com/todoapp/todo-api/internal/core/ports"
)

// TodoService implements ports.TodoService. Every repository call is scoped
// to the owner passed in by the caller.
type TodoService struct {
	repo   ports.TodoRepository
	idem   ports.IdempotencyStore // optional
	logger zerolog.Logger
}

// NewTodoService returns a TodoService. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewTodoService(repo ports.TodoRepository, idem ports.IdempotencyStore, logger zerolog.Logger) *TodoService {
	return &TodoService{repo: repo, idem: idem, logger: logger}
}

func (s *TodoService) List(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (s *TodoService) Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id must be a number")
	}
	todo, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return todo, nil
}

// Create stores a new todo. With an idempotency key, the key is reserved
// before the insert so that concurrent retries cannot both create; a key that
// already produced a todo replays it without side effects.
func (s *TodoService) Create(ctx context.Context, in ports.CreateTodoInput) (*ports.CreateTodoResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	todo := &domain.Todo{
		Title:       title,
		Description: in.Description,
		IsCompleted: false,
		UserID:      in.OwnerID,
	}

	if in.IdempotencyKey == "" || s.idem == nil {
		return s.insert(ctx, todo)
	}

	log := s.logger.With().Str("idempotency_key", in.IdempotencyKey).Int64("user_id", in.OwnerID).Logger()

	res, err := s.idem.Reserve(ctx, in.OwnerID, in.IdempotencyKey)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency store unavailable, creating without key")
		return s.insert(ctx, todo)
	}

	if !res.Reserved {
		if res.TodoID == 0 {
			return nil, domain.ErrIdempotencyBusy
		}
		existing, err := s.repo.FindByID(ctx, res.TodoID, in.OwnerID)
		if err == nil {
			log.Info().Int64("todo_id", existing.ID).Msg("idempotent replay")
			return &ports.CreateTodoResult{Todo: existing, Replayed: true}, nil
		}
		if !errors.Is(err, domain.ErrTodoNotFound) {
			return nil, fmt.Errorf("create todo: replay lookup: %w", err)
		}

		// The replayed todo was deleted; only one retry may create its successor.
		reclaimed, err := s.idem.Reclaim(ctx, in.OwnerID, in.IdempotencyKey, res.TodoID)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency store unavailable, creating without key")
			return s.insert(ctx, todo)
		}
		if !reclaimed {
			return nil, domain.ErrIdempotencyBusy
		}
	}

	result, err := s.insert(ctx, todo)
	if err != nil {
		if rerr := s.idem.Release(context.WithoutCancel(ctx), in.OwnerID, in.IdempotencyKey); rerr != nil {
			log.Warn().Err(rerr).Msg("failed to release idempotency key")
		}
		return nil, err
	}

	if err := s.idem.Complete(ctx, in.OwnerID, in.IdempotencyKey, result.Todo.ID); err != nil {
		log.Warn().Err(err).Int64("todo_id", result.Todo.ID).Msg("failed to store idempotency key")
	}
	return result, nil
}

func (s *TodoService) insert(ctx context.Context, todo *domain.Todo) (*ports.CreateTodoResult, error) {
	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", todo.UserID).Msg("failed to create todo")
		return nil, fmt.Errorf("create todo: %w", err)
	}
	s.logger.Info().Int64("todo_id", created.ID).Int64("user_id", todo.UserID).Msg("todo created")
	return &ports.CreateTodoResult{Todo: created}, nil
}

func (s *TodoService) Update(ctx context.Context, in ports.UpdateTodoInput) (*domain.Todo, error) {
	if in.ID <= 0 {
		return nil, domain.NewValidationError("id must be a number")
	}
	if in.Patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}
	patch := in.Patch
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.NewValidationError("title must not be empty")
		}
		patch.Title = &title
	}

	todo, err := s.repo.Update(ctx, in.ID, in.OwnerID, patch)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id int64) ([]domain.Todo, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id must be a number")
	}
	removed, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	s.logger.Info().Int64("todo_id", removed.ID).Int64("user_id", ownerID).Msg("todo deleted")
	return []domain.Todo{*removed}, nil
}
