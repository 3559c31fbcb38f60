package handler

import (
	"errors"
	"net/http"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/repository"
	"github.com/contactbook/contactbook-go/internal/service"
)

const maxAvatarBytes = 10 << 20 // 10MB

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleMe handles GET /api/users/me requests.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	resp, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateAvatar handles PATCH /api/users/avatar requests. The image is
// expected as a multipart form field named "file".
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("missing file upload"))
		return
	}
	defer file.Close()

	resp, err := h.service.UpdateAvatar(r.Context(), userID, file)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
