package forms

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Paul-frank/todo-app/internal/models"
)

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "empty", raw: "", wantNil: true},
		{name: "whitespace", raw: "   ", wantNil: true},
		{name: "iso date", raw: "2026-10-22", want: "2026-10-22"},
		{name: "padded", raw: " 2026-01-02 ", want: "2026-01-02"},
		{name: "wrong format", raw: "22.10.2026", wantErr: true},
		{name: "impossible date", raw: "2026-02-30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(tt.raw)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Field != FieldDueDate {
					t.Fatalf("ParseDueDate(%q) error = %v, want due_date ValidationError", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDueDate(%q) error = %v", tt.raw, err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseDueDate(%q) = %v, want nil", tt.raw, got)
				}
				return
			}
			if got.Format(models.DateLayout) != tt.want {
				t.Errorf("ParseDueDate(%q) = %v, want %s", tt.raw, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseDueDate(%q) location = %v, want UTC", tt.raw, got.Location())
			}
		})
	}
}

func TestValues_Parse(t *testing.T) {
	in, err := Values{Title: "  Buy milk ", Description: "2 liters", DueDate: ""}.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if in.Title != "Buy milk" {
		t.Errorf("Title = %q, want trimmed", in.Title)
	}
	if in.Description != "2 liters" {
		t.Errorf("Description = %q", in.Description)
	}
	if in.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", in.DueDate)
	}
}

// Titelprüfung passiert hier an der Grenze, nicht in der Speicherschicht
func TestValues_ParseRejectsEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   "} {
		_, err := Values{Title: title}.Parse()
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != FieldTitle {
			t.Errorf("Parse() with title %q error = %v, want title ValidationError", title, err)
		}
	}
}

func TestReadTodo(t *testing.T) {
	form := url.Values{
		"title":    {"New TODO"},
		"due_date": {"2026-10-20"},
	}
	r := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	values, in, err := ReadTodo(r)
	if err != nil {
		t.Fatalf("ReadTodo() error = %v", err)
	}
	if values.DueDate != "2026-10-20" {
		t.Errorf("raw due date = %q", values.DueDate)
	}
	if in.Title != "New TODO" || in.Description != "" {
		t.Errorf("ReadTodo() input = %+v", in)
	}
	if in.DueDate == nil || in.DueDate.Format(models.DateLayout) != "2026-10-20" {
		t.Errorf("DueDate = %v", in.DueDate)
	}
}

func TestValuesFromTodo(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	v := ValuesFromTodo(models.ToDo{Title: "A", Description: "B", DueDate: &due})
	if v != (Values{Title: "A", Description: "B", DueDate: "2026-11-01"}) {
		t.Errorf("ValuesFromTodo() = %+v", v)
	}
	if ValuesFromTodo(models.ToDo{Title: "A"}).DueDate != "" {
		t.Error("todo without due date should yield empty due_date value")
	}
}
