package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/repository"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// UsersHandler serves the user directory.
type UsersHandler struct {
	users repository.UserRepository
}

func NewUsersHandler(users repository.UserRepository) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("GET /api/users/{id}", h.getUser)
}

type createUserPayload struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func (h *UsersHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.DisplayName == "" || payload.Email == "" {
		http.Error(w, "displayName and email are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(r.Context(), model.User{
		ID:          uuid.New(),
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
		CreatedAt:   timeutil.Now(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
