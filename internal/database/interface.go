package database

import (
	"context"
	"errors"

	"github.com/Paul-frank/todo-app/internal/models"
)

// ErrNotFound wird geliefert, wenn keine ToDo mit der angefragten ID existiert
var ErrNotFound = errors.New("todo not found")

// TodoRepository ist der Speicherzugriff, den die Handler benötigen
type TodoRepository interface {
	Create(ctx context.Context, in models.TodoInput) (*models.ToDo, error)
	ListAll(ctx context.Context) ([]models.ToDo, error)
	GetByID(ctx context.Context, id int64) (*models.ToDo, error)
	Update(ctx context.Context, id int64, in models.TodoInput) error
	SetResolved(ctx context.Context, id int64, resolved bool) error
	Delete(ctx context.Context, id int64) error
}
