package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/service"
)

// ContactHandler handles HTTP requests for address book operations.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

// HandleCreate handles POST /api/contacts requests.
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.ContactRequest
	if !decodeJSON(w, r, &req, 1<<20) {
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if isContactValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /api/contacts requests with optional limit and
// offset query parameters.
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	contacts, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// HandleGet handles GET /api/contacts/{contact_id} requests.
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := contactRequestIDs(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), userID, contactID)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /api/contacts/{contact_id} requests.
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := contactRequestIDs(w, r)
	if !ok {
		return
	}

	var req model.ContactRequest
	if !decodeJSON(w, r, &req, 1<<20) {
		return
	}

	resp, err := h.service.Update(r.Context(), userID, contactID, req)
	if err != nil {
		switch {
		case isContactValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrContactNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/contacts/{contact_id} requests.
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, contactID, ok := contactRequestIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, contactID); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSearch handles GET /api/contacts/search/{query} requests.
func (h *ContactHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	query := chi.URLParam(r, "query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("search query is required"))
		return
	}

	contacts, err := h.service.Search(r.Context(), userID, query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// HandleUpcomingBirthdays handles GET /api/contacts/birthdays requests.
func (h *ContactHandler) HandleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// contactRequestIDs extracts the authenticated user ID and the contact_id
// path parameter, writing the error response on failure.
func contactRequestIDs(w http.ResponseWriter, r *http.Request) (userID, contactID int64, ok bool) {
	userID, ok = middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return 0, 0, false
	}

	contactID, err := strconv.ParseInt(chi.URLParam(r, "contact_id"), 10, 64)
	if err != nil || contactID < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid contact id"))
		return 0, 0, false
	}

	return userID, contactID, true
}

func isContactValidationError(err error) bool {
	return errors.Is(err, service.ErrFirstNameRequired) ||
		errors.Is(err, service.ErrLastNameRequired) ||
		errors.Is(err, service.ErrEmailRequired) ||
		errors.Is(err, service.ErrInvalidBirthday)
}
