package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/listkeep-io/listkeep/internal/store"
)

// TodoHandler groups the CRUD handlers over the todo collection.
type TodoHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(s store.Store, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		store:  s,
		logger: logger.Named("todo_handler"),
	}
}

// todoRequest is the JSON body accepted by POST /todos and PUT /todos/{id}.
// The _id field is only meaningful on PUT, where it must match the path.
type todoRequest struct {
	ID     string    `json:"_id"`
	Title  string    `json:"title"`
	Due    time.Time `json:"due"`
	Status int       `json:"status"`
}

// notFound writes the 404 body the browser client expects.
func notFound(w http.ResponseWriter, id string) {
	Err(w, http.StatusNotFound, fmt.Sprintf("Todo with id %s not found", id))
}

// List handles GET /todos. Returns every todo in the store's natural order.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.FindAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list todos", zap.Error(err))
		ErrInternal(w)
		return
	}

	if todos == nil {
		// Always an array on the wire, even when the store is empty.
		todos = []store.Todo{}
	}
	JSON(w, http.StatusOK, todos)
}

// GetByID handles GET /todos/{id}.
func (h *TodoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	todo, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, id)
			return
		}
		h.logger.Error("failed to fetch todo", zap.String("id", id), zap.Error(err))
		ErrInternal(w)
		return
	}

	JSON(w, http.StatusOK, todo)
}

// Create handles POST /todos. Validation runs before any store call; the
// store assigns the id.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo := store.Todo{Title: req.Title, Due: req.Due, Status: req.Status}
	if err := todo.Validate(); err != nil {
		ErrBadRequest(w, err.Error())
		return
	}

	created, err := h.store.Insert(r.Context(), todo)
	if err != nil {
		h.logger.Error("failed to insert todo", zap.Error(err))
		ErrInternal(w)
		return
	}

	if claims := claimsFromCtx(r.Context()); claims != nil {
		h.logger.Debug("todo created",
			zap.String("id", created.ID),
			zap.String("sub", claims.Subject),
		)
	}

	JSON(w, http.StatusCreated, created)
}

// Update handles PUT /todos/{id}. The body must carry the same _id as
// the path — the id is immutable and a mismatch is rejected before the
// store is touched.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ID != id {
		ErrBadRequest(w, "body _id does not match path id")
		return
	}

	todo := store.Todo{Title: req.Title, Due: req.Due, Status: req.Status}
	if err := todo.Validate(); err != nil {
		ErrBadRequest(w, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), id, todo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, id)
			return
		}
		h.logger.Error("failed to update todo", zap.String("id", id), zap.Error(err))
		ErrInternal(w)
		return
	}

	JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /todos/{id}. Removal is idempotent from the
// client's view: the first call returns 204, later calls 404.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, id)
			return
		}
		h.logger.Error("failed to delete todo", zap.String("id", id), zap.Error(err))
		ErrInternal(w)
		return
	}

	NoContent(w)
}
