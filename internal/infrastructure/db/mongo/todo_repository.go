package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// TodoRepository implements ports.TodoRepository. Every filter includes
// user_id, so a foreign todo is indistinguishable from a missing one.
type TodoRepository struct {
	col *mongo.Collection
	ids *sequence
}

func NewTodoRepository(db *mongo.Database) *TodoRepository {
	return &TodoRepository{
		col: db.Collection(collectionTodos),
		ids: newSequence(db, collectionTodos),
	}
}

type todoDocument struct {
	ID          int64     `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	IsCompleted bool      `bson:"is_completed"`
	UserID      int64     `bson:"user_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d todoDocument) toDomain() domain.Todo {
	return domain.Todo{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		IsCompleted: d.IsCompleted,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func ownedBy(id, ownerID int64) bson.M {
	return bson.M{"_id": id, "user_id": ownerID}
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": ownerID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cur.Close(ctx)

	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	todos := make([]domain.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.toDomain())
	}
	return todos, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id, ownerID int64) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc todoDocument
	if err := r.col.FindOne(ctx, ownedBy(id, ownerID)).Decode(&doc); err != nil {
		return nil, notFound(err, "find todo")
	}
	todo := doc.toDomain()
	return &todo, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := todoDocument{
		ID:          id,
		Title:       todo.Title,
		Description: todo.Description,
		IsCompleted: todo.IsCompleted,
		UserID:      todo.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	created := doc.toDomain()
	return &created, nil
}

// Update applies the set fields of patch in one $set and returns the result.
func (r *TodoRepository) Update(ctx context.Context, id, ownerID int64, patch domain.TodoPatch) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsCompleted != nil {
		set["is_completed"] = *patch.IsCompleted
	}

	var doc todoDocument
	err := r.col.FindOneAndUpdate(ctx,
		ownedBy(id, ownerID),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err, "update todo")
	}
	todo := doc.toDomain()
	return &todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id, ownerID int64) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc todoDocument
	if err := r.col.FindOneAndDelete(ctx, ownedBy(id, ownerID)).Decode(&doc); err != nil {
		return nil, notFound(err, "delete todo")
	}
	todo := doc.toDomain()
	return &todo, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTodoNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
