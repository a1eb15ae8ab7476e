package httpapi

import (
	"net/http"

	"crowdguard/internal/models"

	"github.com/go-chi/chi/v5"
)

// loginResponse POST /login 响应
type loginResponse struct {
	Message string              `json:"message"`
	User    *models.UserProfile `json:"user"`
}

// Login POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.svcs.Users.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: profile})
}

// ListUsers GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svcs.Users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser GET /users/{userID}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svcs.Users.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUser POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.NewUserRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svcs.Users.CreateUser(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "User created successfully")
}

// UpdateUser PUT /users/{userID}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := readBodyJSON(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svcs.Users.UpdateUser(r.Context(), chi.URLParam(r, "userID"), patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "User updated successfully")
}

// DeleteUser DELETE /users/{userID}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svcs.Users.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "User deleted successfully")
}
