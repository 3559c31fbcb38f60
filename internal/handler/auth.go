package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleSignup handles POST /api/auth/signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeJSON(w, r, &req, 1<<20) {
		return
	}

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrPasswordRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrDuplicateEmail):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, 1<<20) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnverifiedAccount):
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleRefresh handles GET /api/auth/refresh_token requests. The refresh
// token is presented as a Bearer token in the Authorization header.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("missing refresh token"))
		return
	}

	resp, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrRevokedToken):
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleConfirmEmail handles GET /api/auth/confirm_email/{token} requests.
// Confirming an already confirmed address reports success.
func (h *AuthHandler) HandleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid verification token"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("email confirmed"))
}

// HandleRequestEmail handles POST /api/auth/request_email requests. The
// response never reveals whether an account exists for the address.
func (h *AuthHandler) HandleRequestEmail(w http.ResponseWriter, r *http.Request) {
	var req model.RequestEmailRequest
	if !decodeJSON(w, r, &req, 1<<20) {
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(service.ErrEmailRequired.Error()))
		return
	}

	if err := h.service.RequestVerification(r.Context(), req.Email); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("check your email for confirmation"))
}

// HandleLogout handles POST /api/auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
