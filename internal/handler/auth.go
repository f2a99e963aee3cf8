package handler

import (
	"net/http"
	"strings"

	"github.com/msomdec/estate-listings/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role"`
}

// HandleRegister creates an account.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"...","role":"buyer|agent"}
// Response: 201 {"message":"...","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode register request", err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    toUserDTO(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin issues a bearer token.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"token":"...","user":{...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode login request", err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserDTO(user),
	})
}

// HandleMe returns the caller's profile.
// GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

type profileRequest struct {
	Name string `json:"name" validate:"max=100"`
	// Username is the older field name for Name.
	Username string `json:"username" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

// HandleUpdateProfile changes the caller's name and/or email.
// PUT /api/auth/profile
// Request:  {"name":"...","email":"..."}
// Response: {...user}
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req profileRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode profile request", err)
		return
	}
	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = req.Username
	}

	user, err := h.auth.UpdateProfile(r.Context(), who.ID, name, req.Email)
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// HandleChangePassword replaces the caller's password.
// PUT /api/auth/change-password
// Request:  {"currentPassword":"...","newPassword":"..."}
// Response: {"message":"Password updated"}
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req changePasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode change password request", err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), who.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, "change password", err)
		return
	}
	writeMessage(w, "Password updated")
}
