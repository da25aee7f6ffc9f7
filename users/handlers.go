package users

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
)

// UserHandlers provides HTTP handlers for user record management.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// HandleList godoc
// @Summary List users
// @Description Lists user records with filtering, sorting, and pagination.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param name query string false "Filter by name substring"
// @Param email query string false "Filter by email substring"
// @Param sort_by query string false "Sort column: id, name, or email" default(id)
// @Param sort_order query string false "Sort order: asc or desc" default(asc)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Success 200 {object} users.ListResponse "Page of users"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Router /users [get]
func (h *UserHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := auth.ListParams{
			NameContains:  q.Get("name"),
			EmailContains: q.Get("email"),
			SortBy:        q.Get("sort_by"),
			SortOrder:     q.Get("sort_order"),
			Page:          intQuery(q.Get("page"), 1),
			PerPage:       intQuery(q.Get("per_page"), 0),
		}

		items, pagination, err := h.service.List(r.Context(), params)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if pagination.CurrentPage < pagination.LastPage {
			pagination.NextPageURL = pageURL(r, pagination.CurrentPage+1)
		}
		if pagination.CurrentPage > 1 {
			pagination.PrevPageURL = pageURL(r, pagination.CurrentPage-1)
		}
		if items == nil {
			items = []auth.User{}
		}

		writeJSON(w, http.StatusOK, ListResponse{
			Status:     "success",
			Data:       items,
			Pagination: pagination,
		})
	}
}

// HandleGet godoc
// @Summary Get a user
// @Description Retrieves a user record. Only the record's owner may view it.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} users.UserResponse "User record"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Failure 403 {object} apperror.ErrorResponse "Forbidden - Not the record owner"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such user"
// @Router /users/{id} [get]
func (h *UserHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := actorAndID(w, r)
		if !ok {
			return
		}

		user, err := h.service.Get(r.Context(), actor.ID, id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{Status: "success", Data: *user})
	}
}

// HandleUpdate godoc
// @Summary Update a user
// @Description Updates a user record. Only the record's owner may update it.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param updateBody body users.UpdateUserRequest true "Fields to update"
// @Success 200 {object} users.MessageResponse "User updated successfully"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Failure 403 {object} apperror.ErrorResponse "Forbidden - Not the record owner"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such user"
// @Failure 422 {object} apperror.ErrorResponse "Unprocessable Entity - Field validation failed"
// @Router /users/{id} [put]
func (h *UserHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := actorAndID(w, r)
		if !ok {
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := h.service.Update(r.Context(), actor.ID, id, req); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{
			Status:  "success",
			Message: "User updated successfully",
		})
	}
}

// HandleDelete godoc
// @Summary Delete a user
// @Description Hard-deletes a user record. Only the record's owner may delete it.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} users.MessageResponse "User deleted successfully"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Failure 403 {object} apperror.ErrorResponse "Forbidden - Not the record owner"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such user"
// @Router /users/{id} [delete]
func (h *UserHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := actorAndID(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), actor.ID, id); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{
			Status:  "success",
			Message: "User deleted successfully",
		})
	}
}

// actorAndID resolves the authenticated actor and the {id} route parameter,
// writing the error response itself when either is missing.
func actorAndID(w http.ResponseWriter, r *http.Request) (*auth.User, int, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewTokenAbsentError(nil))
		return nil, 0, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		auth.WriteError(w, r, apperror.NewNotFoundError("User not found", err))
		return nil, 0, false
	}
	return actor, id, true
}

// intQuery parses a query parameter as int, falling back on absence or
// garbage.
func intQuery(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// pageURL rebuilds the request URL with the page parameter swapped, for the
// next/prev pagination links. The links are absolute: host from the request,
// scheme from TLS state or the X-Forwarded-Proto header when a proxy sits in
// front.
func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}

	s := u.String()
	return &s
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}
