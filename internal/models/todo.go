package models

import (
	"time"
)

// DateLayout ist das Format, in dem Fälligkeitsdaten übertragen werden (HTML date input)
const DateLayout = "2006-01-02"

type ToDo struct {
	ID          int64      `json:"id"`          // ID der ToDo, wird von der Datenbank vergeben
	Title       string     `json:"title"`       // Titel der ToDo
	Description string     `json:"description"` // Beschreibung der ToDo
	DueDate     *time.Time `json:"due_date"`    // Fälligkeitsdatum, nil = keine Frist
	IsResolved  bool       `json:"is_resolved"` // Status ob ToDo erledigt
	CreatedAt   time.Time  `json:"created_at"`  // Erstellungsdatum
	UpdatedAt   time.Time  `json:"updated_at"`  // Datum der letzten Änderung
}

// TodoInput enthält die veränderbaren Felder einer ToDo, bereits normalisiert
type TodoInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// DueDateString liefert das Fälligkeitsdatum im Formular-Format oder "" ohne Frist
func (t ToDo) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

func (t ToDo) String() string {
	return t.Title
}
