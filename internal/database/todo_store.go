package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Paul-frank/todo-app/internal/models"
)

const tracerName = "github.com/Paul-frank/todo-app/internal/database"

const selectTodo = `SELECT id, title, description, due_date, is_resolved, created_at, updated_at FROM todos`

// TodoStore implementiert TodoRepository mit einfachem SQL.
// Platzhalter stehen immer aufsteigend im Query ($1, $2, ...), SQLite bindet sie in Reihenfolge des Auftretens.
type TodoStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

var _ TodoRepository = (*TodoStore)(nil)

func NewTodoStore(db *Database) *TodoStore {
	return &TodoStore{
		db:     db.Connection,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TodoStore) Create(ctx context.Context, in models.TodoInput) (*models.ToDo, error) {
	ctx, span := s.tracer.Start(ctx, "todos.create")
	defer span.End()

	now := time.Now().UTC()
	todo := &models.ToDo{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     normalizeDate(in.DueDate),
		IsResolved:  false, // neue ToDo ist nie schon erledigt
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO todos (title, description, due_date, is_resolved, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := s.db.QueryRowContext(ctx, query,
		todo.Title, todo.Description, dateArg(todo.DueDate), todo.IsResolved, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("insert todo: %w", err))
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	return todo, nil
}

// ListAll liefert alle ToDos in Erstellungsreihenfolge
func (s *TodoStore) ListAll(ctx context.Context) ([]models.ToDo, error) {
	ctx, span := s.tracer.Start(ctx, "todos.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, selectTodo+` ORDER BY id ASC`)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("list todos: %w", err))
	}
	defer rows.Close()

	todos := []models.ToDo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, recordError(span, err)
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, recordError(span, fmt.Errorf("list todos: %w", err))
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

func (s *TodoStore) GetByID(ctx context.Context, id int64) (*models.ToDo, error) {
	ctx, span := s.tracer.Start(ctx, "todos.get", trace.WithAttributes(attribute.Int64("todo.id", id)))
	defer span.End()

	todo, err := scanTodo(s.db.QueryRowContext(ctx, selectTodo+` WHERE id = $1`, id))
	if err != nil {
		return nil, recordError(span, err)
	}
	return todo, nil
}

// Update überschreibt Titel, Beschreibung und Fälligkeitsdatum
func (s *TodoStore) Update(ctx context.Context, id int64, in models.TodoInput) error {
	ctx, span := s.tracer.Start(ctx, "todos.update", trace.WithAttributes(attribute.Int64("todo.id", id)))
	defer span.End()

	query := `UPDATE todos SET title = $1, description = $2, due_date = $3, updated_at = $4 WHERE id = $5`
	result, err := s.db.ExecContext(ctx, query,
		in.Title, in.Description, dateArg(normalizeDate(in.DueDate)), time.Now().UTC(), id)
	return recordError(span, checkAffected(result, err, "update todo"))
}

func (s *TodoStore) SetResolved(ctx context.Context, id int64, resolved bool) error {
	ctx, span := s.tracer.Start(ctx, "todos.set_resolved", trace.WithAttributes(
		attribute.Int64("todo.id", id),
		attribute.Bool("todo.resolved", resolved),
	))
	defer span.End()

	query := `UPDATE todos SET is_resolved = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, resolved, time.Now().UTC(), id)
	return recordError(span, checkAffected(result, err, "set resolved"))
}

// Delete entfernt die Zeile endgültig
func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "todos.delete", trace.WithAttributes(attribute.Int64("todo.id", id)))
	defer span.End()

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	return recordError(span, checkAffected(result, err, "delete todo"))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.ToDo, error) {
	var (
		todo    models.ToDo
		dueDate sql.NullTime
	)
	err := row.Scan(&todo.ID, &todo.Title, &todo.Description, &dueDate, &todo.IsResolved, &todo.CreatedAt, &todo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	if dueDate.Valid {
		todo.DueDate = normalizeDate(&dueDate.Time)
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return &todo, nil
}

// checkAffected wertet RowsAffected aus: keine betroffene Zeile heißt, die ID existiert nicht
func checkAffected(result sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// normalizeDate schneidet die Uhrzeit ab, gespeichert wird nur der Kalendertag (UTC)
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func recordError(span trace.Span, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
