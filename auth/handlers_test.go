package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/accounts-go/apperror"
)

// inMemoryUsers backs the handler tests with registration-capable storage.
type inMemoryUsers struct {
	nextID int
	byID   map[int]*User
}

func newInMemoryUsers() *inMemoryUsers {
	return &inMemoryUsers{byID: make(map[int]*User)}
}

func (s *inMemoryUsers) Create(ctx context.Context, user *User) (*User, error) {
	for _, existing := range s.byID {
		if existing.Email == user.Email {
			return nil, apperror.NewFieldError("email", "The email has already been taken.")
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.byID[user.ID] = user
	return user, nil
}

func (s *inMemoryUsers) ByID(ctx context.Context, id int) (*User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	return user, nil
}

func (s *inMemoryUsers) ByEmail(ctx context.Context, email string) (*User, error) {
	for _, user := range s.byID {
		if user.Email == strings.ToLower(email) {
			return user, nil
		}
	}
	return nil, apperror.NewNotFoundError("User not found", nil)
}

func (s *inMemoryUsers) Update(ctx context.Context, user *User) error {
	if _, ok := s.byID[user.ID]; !ok {
		return apperror.NewNotFoundError("User not found", nil)
	}
	s.byID[user.ID] = user
	return nil
}

func (s *inMemoryUsers) Delete(ctx context.Context, id int) error {
	if _, ok := s.byID[id]; !ok {
		return apperror.NewNotFoundError("User not found", nil)
	}
	delete(s.byID, id)
	return nil
}

func (s *inMemoryUsers) List(ctx context.Context, params ListParams) ([]User, int, error) {
	var all []User
	for _, user := range s.byID {
		all = append(all, *user)
	}
	return all, len(all), nil
}

// newAuthRouter wires the auth routes exactly as the server does.
func newAuthRouter(store UserStore, tokens *TokenService) http.Handler {
	handlers := NewHandlers(NewAuthService(store, tokens))

	r := chi.NewRouter()
	r.Post("/register", handlers.HandleRegister())
	r.Post("/login", handlers.HandleLogin())
	r.Group(func(r chi.Router) {
		r.Use(RequireToken(tokens, store))
		r.Post("/logout", handlers.HandleLogout())
		r.Get("/me", handlers.HandleMe())
		r.Post("/refresh", handlers.HandleRefresh())
	})
	return r
}

func postJSON(handler http.Handler, target, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginScenario(t *testing.T) {
	store := newInMemoryUsers()
	tokens := newTestTokenService(t, time.Hour, nil)
	router := newAuthRouter(store, tokens)

	// Register Alice.
	rec := postJSON(router, "/register", `{"name":"Alice","email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.Equal(t, "success", registered.Status)
	assert.Equal(t, "User created successfully", registered.Message)
	assert.Equal(t, "Alice", registered.User.Name)
	assert.Equal(t, "a@x.com", registered.User.Email)
	assert.Equal(t, "bearer", registered.Authorisation.Type)
	assert.NotEmpty(t, registered.Authorisation.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	claims, err := tokens.Verify(context.Background(), registered.Authorisation.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID, "token subject resolves to the created user")

	// Login with the same credentials.
	rec = postJSON(router, "/login", `{"email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var loggedIn TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))
	assert.Equal(t, "success", loggedIn.Status)
	assert.Equal(t, "bearer", loggedIn.Authorization.Type)
	assert.Equal(t, int64(3600), loggedIn.Authorization.ExpiresIn)

	// Login with a wrong password is a bare 401.
	rec = postJSON(router, "/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRegisterValidationFailure(t *testing.T) {
	router := newAuthRouter(newInMemoryUsers(), newTestTokenService(t, time.Hour, nil))

	rec := postJSON(router, "/register", `{"name":"","email":"nope","password":"x"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Errors["name"], "The name field is required.")
	assert.Contains(t, body.Errors["email"], "The email must be a valid email address.")
	assert.Contains(t, body.Errors["password"], "The password must be at least 6 characters.")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newAuthRouter(newInMemoryUsers(), newTestTokenService(t, time.Hour, nil))

	rec := postJSON(router, "/register", `{"name":"Alice","email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/register", `{"name":"Alice Again","email":"A@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The email has already been taken.")
}

func TestMeAndRefresh(t *testing.T) {
	store := newInMemoryUsers()
	tokens := newTestTokenService(t, time.Hour, nil)
	router := newAuthRouter(store, tokens)

	rec := postJSON(router, "/register", `{"name":"Alice","email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	token := registered.Authorisation.Token

	t.Run("me", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body MeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Alice", body.User.Name)
		assert.Equal(t, "a@x.com", body.User.Email)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := postJSON(router, "/refresh", "", token)
		require.Equal(t, http.StatusOK, rec.Code)

		var body TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Authorization.Token)
		assert.Equal(t, int64(3600), body.Authorization.ExpiresIn)

		claims, err := tokens.Verify(context.Background(), body.Authorization.Token)
		require.NoError(t, err)
		assert.Equal(t, 1, claims.UserID)
	})

	t.Run("no token", func(t *testing.T) {
		rec := postJSON(router, "/refresh", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Token absent"}`, rec.Body.String())
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := newInMemoryUsers()
	tokens := newTestTokenService(t, time.Hour, NewRedisDenylist(client))
	router := newAuthRouter(store, tokens)

	rec := postJSON(router, "/register", `{"name":"Alice","email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	token := registered.Authorisation.Token

	rec = postJSON(router, "/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Successfully logged out")

	// The denylisted token no longer authenticates.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.JSONEq(t, `{"error":"Token invalid"}`, rec2.Body.String())
}
