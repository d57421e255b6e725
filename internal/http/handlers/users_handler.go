package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apporbit/apporbit-server/internal/domain"
	mw "github.com/apporbit/apporbit-server/internal/http/middleware"
	"github.com/apporbit/apporbit-server/internal/http/response"
)

type registerUserResponse struct {
	Message  string       `json:"message"`
	Inserted bool         `json:"inserted"`
	User     *domain.User `json:"user,omitempty"`
}

// RegisterUser handles idempotent first-sign-in registration. Registering
// an existing email is a non-error no-op.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	if !strings.Contains(req.Email, "@") {
		response.BadRequest(w, "a valid email is required")
		return
	}

	user, created, err := h.users.Register(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, registerUserResponse{Message: "user already exists", Inserted: false})
		return
	}
	writeJSON(w, http.StatusCreated, registerUserResponse{Message: "user registered", Inserted: true, User: user})
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	user, err := h.users.Get(r.Context(), email)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type roleResponse struct {
	Role domain.Role `json:"role"`
}

// GetUserRole looks up a role by email, defaulting to "user".
func (h *Handlers) GetUserRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	role, err := h.users.Role(r.Context(), email)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		response.BadRequest(w, "role must be user, moderator, or admin")
		return
	}

	if err := h.users.SetRole(r.Context(), id, role); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

// SubscribeUser sets the subscription flag after a successful payment.
func (h *Handlers) SubscribeUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	id := mw.Identity(r)
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}
	// Subscriptions are self-service only.
	if !strings.EqualFold(id.Email, email) {
		response.Forbidden(w, "cannot subscribe another user")
		return
	}

	if err := h.users.Subscribe(r.Context(), email); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscription activated"})
}
