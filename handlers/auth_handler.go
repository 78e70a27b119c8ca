package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/middleware"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      models.Credentials  true  "Email and password"
// @Success      200          {object}  map[string]interface{}
// @Failure      401          {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	token, admin, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"token": token,
		"admin": admin,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
