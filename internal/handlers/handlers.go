package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Paul-frank/todo-app/internal/database"
	"github.com/Paul-frank/todo-app/internal/forms"
	"github.com/Paul-frank/todo-app/internal/logger"
	"github.com/Paul-frank/todo-app/internal/middleware"
	"github.com/Paul-frank/todo-app/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Seiten, die jeweils zusammen mit layout.html und form.html geparst werden
var pageFiles = []string{"home.html", "create.html", "edit.html", "delete.html", "error.html"}

type ToDoHandler struct {
	repo  database.TodoRepository // Speicherzugriff, wird von außen übergeben
	pages map[string]*template.Template
	log   *logrus.Logger
}

// pageData ist der gemeinsame Datensatz für alle Templates
type pageData struct {
	Title     string
	Todos     []models.ToDo
	Todo      *models.ToDo
	Form      forms.Values
	Error     string
	Message   string
	CSRFToken string
}

func NewToDoHandler(repo database.TodoRepository, log *logrus.Logger) (*ToDoHandler, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/form.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = tmpl
	}

	return &ToDoHandler{
		repo:  repo,
		pages: pages,
		log:   log,
	}, nil
}

// Routes registriert die fünf Handler
func (h *ToDoHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", h.Home)               // GET /: Liste aller ToDos
	mux.HandleFunc("/create", h.CreateToDo)      // GET/POST /create: Formular bzw. Anlegen
	mux.HandleFunc("/edit/{id}", h.EditToDo)     // GET/POST /edit/{id}: Formular bzw. Speichern
	mux.HandleFunc("/delete/{id}", h.DeleteToDo) // GET/POST /delete/{id}: Bestätigung bzw. Löschen
	mux.HandleFunc("/toggle/{id}", h.ToggleToDo) // GET /toggle/{id}: Status umschalten
	mux.HandleFunc("/", h.pageNotFound)          // alles andere: Fehlerseite statt Klartext-404
	return mux
}

func (h *ToDoHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, r, http.MethodGet, http.MethodHead)
		return
	}

	todos, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.serverError(w, r, err, "failed to list todos")
		return
	}

	h.render(w, r, http.StatusOK, "home.html", pageData{Title: "TODOs", Todos: todos})
}

func (h *ToDoHandler) CreateToDo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, http.StatusOK, "create.html", pageData{Title: "Create New TODO"})
	case http.MethodPost:
		h.createToDo(w, r)
	default:
		h.methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (h *ToDoHandler) createToDo(w http.ResponseWriter, r *http.Request) {
	values, in, err := forms.ReadTodo(r)
	if err != nil {
		h.invalidForm(w, r, "create.html", pageData{Title: "Create New TODO", Form: values}, err)
		return
	}

	todo, err := h.repo.Create(r.Context(), in)
	if err != nil {
		h.serverError(w, r, err, "failed to create todo")
		return
	}

	h.entry(r).WithField("todo_id", todo.ID).Debug("todo created")
	redirectHome(w, r)
}

func (h *ToDoHandler) EditToDo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	todo, ok := h.loadToDo(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "edit.html", pageData{Title: "Edit TODO", Todo: todo, Form: forms.ValuesFromTodo(*todo)})
		return
	}

	values, in, err := forms.ReadTodo(r)
	if err != nil {
		h.invalidForm(w, r, "edit.html", pageData{Title: "Edit TODO", Todo: todo, Form: values}, err)
		return
	}

	// Alle drei Felder werden überschrieben, leeres Datum entfernt die Frist
	err = h.repo.Update(r.Context(), todo.ID, in)
	if errors.Is(err, database.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "failed to update todo")
		return
	}

	h.entry(r).WithField("todo_id", todo.ID).Debug("todo updated")
	redirectHome(w, r)
}

func (h *ToDoHandler) DeleteToDo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		todo, ok := h.loadToDo(w, r)
		if !ok {
			return
		}
		h.render(w, r, http.StatusOK, "delete.html", pageData{Title: "Delete TODO", Todo: todo})
	case http.MethodPost:
		id, ok := parseID(r)
		if !ok {
			h.notFound(w, r)
			return
		}
		err := h.repo.Delete(r.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		if err != nil {
			h.serverError(w, r, err, "failed to delete todo")
			return
		}
		h.entry(r).WithField("todo_id", id).Debug("todo deleted")
		redirectHome(w, r)
	default:
		h.methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// ToggleToDo ändert den Status schon beim GET, wie die Links in der Liste es erwarten.
// Nur GET: HEAD von Link-Prüfern oder Prefetchern darf nichts umschalten.
func (h *ToDoHandler) ToggleToDo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	todo, ok := h.loadToDo(w, r)
	if !ok {
		return
	}

	// Lesen und Schreiben sind zwei Statements, bei gleichzeitigen Requests gewinnt der letzte
	err := h.repo.SetResolved(r.Context(), todo.ID, !todo.IsResolved)
	if errors.Is(err, database.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "failed to toggle todo")
		return
	}

	redirectHome(w, r)
}

// Pinger wird vom Health-Check benötigt
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler meldet, ob die Datenbank erreichbar ist
func HealthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "UP", http.StatusOK
		if err := p.Ping(r.Context()); err != nil {
			status, code = "DOWN", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
		}{
			Status: status,
		})
	}
}

// parseID liest {id} aus dem Pfad; keine gültige Zahl wird wie eine unbekannte ID behandelt
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// loadToDo schreibt bei Fehlern selbst die Antwort und liefert dann false
func (h *ToDoHandler) loadToDo(w http.ResponseWriter, r *http.Request) (*models.ToDo, bool) {
	id, ok := parseID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}

	todo, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.notFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err, "failed to get todo")
		return nil, false
	}
	return todo, true
}

func (h *ToDoHandler) invalidForm(w http.ResponseWriter, r *http.Request, page string, data pageData, err error) {
	var vErr *forms.ValidationError
	if errors.As(err, &vErr) {
		data.Error = vErr.Error()
	} else {
		data.Error = "could not read the submitted form"
	}
	h.entry(r).WithError(err).Debug("invalid form submission")
	h.render(w, r, http.StatusBadRequest, page, data)
}

func (h *ToDoHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.CSRFToken = middleware.CSRFToken(r.Context())

	// Erst in einen Puffer rendern, damit ein Templatefehler keine halbe Seite hinterlässt
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.entry(r).WithError(err).WithField("template", page).Error("failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *ToDoHandler) sendErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.html", pageData{Title: http.StatusText(status), Message: message})
}

func (h *ToDoHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.sendErrorPage(w, r, http.StatusNotFound, "TODO not found.")
}

func (h *ToDoHandler) pageNotFound(w http.ResponseWriter, r *http.Request) {
	h.sendErrorPage(w, r, http.StatusNotFound, "Page not found.")
}

func (h *ToDoHandler) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.entry(r).WithError(err).Error(msg)
	h.sendErrorPage(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func (h *ToDoHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	h.sendErrorPage(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
}

func (h *ToDoHandler) entry(r *http.Request) *logrus.Entry {
	return logger.WithRequestID(h.log, middleware.GetRequestID(r.Context())).WithField("component", "http_handler")
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
