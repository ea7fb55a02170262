// Package forms wandelt übermittelte Formularfelder in normalisierte Eingaben um.
package forms

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Paul-frank/todo-app/internal/models"
)

// Namen der Formularfelder
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "due_date"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Values hält die Rohwerte, damit ein abgelehntes Formular erneut befüllt werden kann
type Values struct {
	Title       string
	Description string
	DueDate     string
}

// ValuesFromTodo befüllt das Bearbeitungsformular
func ValuesFromTodo(t models.ToDo) Values {
	return Values{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDateString(),
	}
}

// ParseDueDate: leerer String bedeutet "kein Datum" und wird nie als Text gespeichert
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
	if err != nil {
		return nil, &ValidationError{Field: FieldDueDate, Message: "must be a date in YYYY-MM-DD format"}
	}
	return &d, nil
}

// Parse prüft die Rohwerte und liefert die Eingabe für die Speicherschicht
func (v Values) Parse() (models.TodoInput, error) {
	// gespeichert wird der getrimmte Titel, die Beschreibung bleibt unverändert
	title := strings.TrimSpace(v.Title)
	if title == "" {
		return models.TodoInput{}, &ValidationError{Field: FieldTitle, Message: "is required"}
	}

	dueDate, err := ParseDueDate(v.DueDate)
	if err != nil {
		return models.TodoInput{}, err
	}

	return models.TodoInput{
		Title:       title,
		Description: v.Description,
		DueDate:     dueDate,
	}, nil
}

// ReadTodo liest title, description und due_date aus dem Request.
// Die Rohwerte werden auch im Fehlerfall zurückgegeben.
func ReadTodo(r *http.Request) (Values, models.TodoInput, error) {
	if err := r.ParseForm(); err != nil {
		return Values{}, models.TodoInput{}, fmt.Errorf("parse form: %w", err)
	}

	values := Values{
		Title:       r.PostFormValue(FieldTitle),
		Description: r.PostFormValue(FieldDescription),
		DueDate:     r.PostFormValue(FieldDueDate),
	}
	in, err := values.Parse()
	return values, in, err
}
