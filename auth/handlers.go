package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/user/accounts-go/apperror"
)

// Handlers wraps the AuthService to provide HTTP handlers for the auth
// endpoints.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user and returns the user with a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.RegisterResponse "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Malformed JSON body"
// @Failure 422 {object} apperror.ErrorResponse "Unprocessable Entity - Field validation failed"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := ValidateStruct(req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, token, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			Status:  "success",
			Message: "User created successfully",
			User:    publicUser(user),
			Authorisation: Authorization{
				Token: token.Token,
				Type:  "bearer",
			},
		})
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in an existing user and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 202 {object} auth.TokenResponse "Login accepted, token provided"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid credentials"
// @Failure 422 {object} apperror.ErrorResponse "Unprocessable Entity - Field validation failed"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := ValidateStruct(req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, token, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusAccepted, TokenResponse{
			Status: "success",
			User:   publicUser(user),
			Authorization: Authorization{
				Token:     token.Token,
				Type:      "bearer",
				ExpiresIn: token.ExpiresIn,
			},
		})
	}
}

// HandleLogout godoc
// @Summary User Logout
// @Description Invalidates the presented bearer token.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.MessageResponse "Successfully logged out"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - Token subject no longer exists"
// @Router /logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, claims, ok := TokenFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewTokenAbsentError(nil))
			return
		}

		if err := h.service.Logout(r.Context(), raw, claims); err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{
			Status:  "success",
			Message: "Successfully logged out",
		})
	}
}

// HandleMe godoc
// @Summary Current User
// @Description Returns the profile of the authenticated user.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.MeResponse "Current user"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Router /me [get]
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewTokenAbsentError(nil))
			return
		}

		writeJSON(w, http.StatusOK, MeResponse{
			Status: "success",
			User:   publicUser(actor),
		})
	}
}

// HandleRefresh godoc
// @Summary Refresh Token
// @Description Issues a new bearer token with a fresh TTL for the authenticated user.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.TokenResponse "Token refreshed"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Token expired, invalid, or absent"
// @Router /refresh [post]
func (h *Handlers) HandleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewTokenAbsentError(nil))
			return
		}

		raw, _, ok := TokenFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewTokenAbsentError(nil))
			return
		}

		token, err := h.service.Refresh(r.Context(), raw)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			Status: "success",
			User:   publicUser(actor),
			Authorization: Authorization{
				Token:     token.Token,
				Type:      "bearer",
				ExpiresIn: token.ExpiresIn,
			},
		})
	}
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError converts any error into the standardized error response shape.
// Non-AppError values are wrapped as internal errors so clients always see
// a consistent body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("error handling %s %s: %v", r.Method, r.URL.Path, err)
	}

	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
