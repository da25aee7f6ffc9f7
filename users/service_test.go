package users

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
)

// memStore is an in-memory UserStore fake mirroring PGStore semantics.
type memStore struct {
	nextID int
	users  map[int]*auth.User
}

func newMemStore(seed ...*auth.User) *memStore {
	s := &memStore{users: make(map[int]*auth.User)}
	for _, u := range seed {
		s.nextID++
		u.ID = s.nextID
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, apperror.NewFieldError("email", "The email has already been taken.")
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return user, nil
}

func (s *memStore) ByID(ctx context.Context, id int) (*auth.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (s *memStore) ByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, user := range s.users {
		if user.Email == strings.ToLower(email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFoundError("User not found", nil)
}

func (s *memStore) Update(ctx context.Context, user *auth.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return apperror.NewNotFoundError("User not found", nil)
	}
	for _, existing := range s.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return apperror.NewFieldError("email", "The email has already been taken.")
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int) error {
	if _, ok := s.users[id]; !ok {
		return apperror.NewNotFoundError("User not found", nil)
	}
	delete(s.users, id)
	return nil
}

func (s *memStore) List(ctx context.Context, params auth.ListParams) ([]auth.User, int, error) {
	var matched []auth.User
	for _, user := range s.users {
		if params.NameContains != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(params.NameContains)) {
			continue
		}
		if params.EmailContains != "" && !strings.Contains(user.Email, strings.ToLower(params.EmailContains)) {
			continue
		}
		matched = append(matched, *user)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch params.SortBy {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "email":
			less = matched[i].Email < matched[j].Email
		default:
			less = matched[i].ID < matched[j].ID
		}
		if strings.EqualFold(params.SortOrder, "desc") {
			return !less
		}
		return less
	})

	total := len(matched)
	start := (params.Page - 1) * params.PerPage
	if start > total {
		start = total
	}
	end := start + params.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func seedUser(name, email, password string) *auth.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &auth.User{Name: name, Email: email, HashedPassword: string(hash)}
}

func TestUserServiceGet(t *testing.T) {
	store := newMemStore(
		seedUser("Alice", "a@x.com", "secret1"),
		seedUser("Bob", "b@x.com", "secret2"),
	)
	svc := NewUserService(store)
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		user, err := svc.Get(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("foreign record", func(t *testing.T) {
		_, err := svc.Get(ctx, 1, 2)
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))

		appErr, _ := apperror.FromError(err)
		assert.Equal(t, "You can not view this user.", appErr.Message)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.Get(ctx, 99, 99)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err), "absence wins over ownership for get")
	})
}

func TestUserServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("update round-trips", func(t *testing.T) {
		store := newMemStore(seedUser("Alice", "a@x.com", "secret1"))
		svc := NewUserService(store)

		require.NoError(t, svc.Update(ctx, 1, 1, UpdateUserRequest{Name: "X", Email: "a@x.com"}))

		user, err := svc.Get(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, "X", user.Name)
		assert.Equal(t, "a@x.com", user.Email)
	})

	t.Run("password kept when omitted", func(t *testing.T) {
		store := newMemStore(seedUser("Alice", "a@x.com", "secret1"))
		svc := NewUserService(store)

		require.NoError(t, svc.Update(ctx, 1, 1, UpdateUserRequest{Name: "X", Email: "a@x.com"}))

		user, err := store.ByID(ctx, 1)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret1")))
	})

	t.Run("password is rehashed when present", func(t *testing.T) {
		store := newMemStore(seedUser("Alice", "a@x.com", "secret1"))
		svc := NewUserService(store)

		password := "newsecret"
		require.NoError(t, svc.Update(ctx, 1, 1, UpdateUserRequest{Name: "Alice", Email: "a@x.com", Password: &password}))

		user, err := store.ByID(ctx, 1)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("newsecret")))
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret1")))
	})

	t.Run("name and email are required", func(t *testing.T) {
		store := newMemStore(seedUser("Alice", "a@x.com", "secret1"))
		svc := NewUserService(store)

		err := svc.Update(ctx, 1, 1, UpdateUserRequest{})
		require.Error(t, err)
		assert.True(t, apperror.IsValidationError(err))

		appErr, ok := apperror.FromError(err)
		require.True(t, ok)
		assert.Contains(t, appErr.Fields["name"], "The name field is required.")
		assert.Contains(t, appErr.Fields["email"], "The email field is required.")

		user, getErr := store.ByID(ctx, 1)
		require.NoError(t, getErr)
		assert.Equal(t, "Alice", user.Name, "rejected update leaves the record untouched")
	})

	t.Run("short password rejected", func(t *testing.T) {
		store := newMemStore(seedUser("Alice", "a@x.com", "secret1"))
		svc := NewUserService(store)

		password := "short"
		err := svc.Update(ctx, 1, 1, UpdateUserRequest{Name: "Alice", Email: "a@x.com", Password: &password})
		require.Error(t, err)
		assert.True(t, apperror.IsValidationError(err))
	})

	t.Run("foreign record", func(t *testing.T) {
		store := newMemStore(
			seedUser("Alice", "a@x.com", "secret1"),
			seedUser("Bob", "b@x.com", "secret2"),
		)
		svc := NewUserService(store)

		err := svc.Update(ctx, 1, 2, UpdateUserRequest{Name: "X", Email: "b@x.com"})
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newMemStore(
			seedUser("Alice", "a@x.com", "secret1"),
			seedUser("Bob", "b@x.com", "secret2"),
		)
		svc := NewUserService(store)

		err := svc.Update(ctx, 1, 1, UpdateUserRequest{Name: "Alice", Email: "B@X.com"})
		require.Error(t, err)
		assert.True(t, apperror.IsValidationError(err))
	})
}

func TestUserServiceDelete(t *testing.T) {
	store := newMemStore(
		seedUser("Alice", "a@x.com", "secret1"),
		seedUser("Bob", "b@x.com", "secret2"),
	)
	svc := NewUserService(store)
	ctx := context.Background()

	t.Run("foreign record", func(t *testing.T) {
		err := svc.Delete(ctx, 1, 2)
		require.Error(t, err)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("delete is idempotently not found afterwards", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, 1, 1))

		err := svc.Delete(ctx, 1, 1)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))

		err = svc.Delete(ctx, 1, 1)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err), "repeat delete stays NotFound")
	})
}

func TestUserServiceListPagination(t *testing.T) {
	var seed []*auth.User
	for _, u := range []struct{ name, email string }{
		{"Alice", "alice@x.com"},
		{"Bob", "bob@x.com"},
		{"Carol", "carol@y.com"},
		{"Dave", "dave@y.com"},
		{"Erin", "erin@z.com"},
	} {
		seed = append(seed, seedUser(u.name, u.email, "secret1"))
	}
	svc := NewUserService(newMemStore(seed...))
	ctx := context.Background()

	t.Run("metadata arithmetic", func(t *testing.T) {
		items, pagination, err := svc.List(ctx, auth.ListParams{Page: 2, PerPage: 2})
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, 5, pagination.Total)
		assert.Equal(t, 2, pagination.CurrentPage)
		assert.Equal(t, 3, pagination.LastPage)
		assert.Equal(t, 2, pagination.PerPage)
	})

	t.Run("defaults applied", func(t *testing.T) {
		items, pagination, err := svc.List(ctx, auth.ListParams{})
		require.NoError(t, err)
		assert.Len(t, items, 5)
		assert.Equal(t, 1, pagination.CurrentPage)
		assert.Equal(t, 10, pagination.PerPage)
		assert.Equal(t, 1, pagination.LastPage)
	})

	t.Run("per_page capped at 100", func(t *testing.T) {
		_, pagination, err := svc.List(ctx, auth.ListParams{PerPage: 1000})
		require.NoError(t, err)
		assert.Equal(t, 100, pagination.PerPage)
	})

	t.Run("name filter", func(t *testing.T) {
		items, pagination, err := svc.List(ctx, auth.ListParams{NameContains: "ar"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Carol", items[0].Name)
		assert.Equal(t, 1, pagination.Total)
	})

	t.Run("email filter with sort desc", func(t *testing.T) {
		items, _, err := svc.List(ctx, auth.ListParams{EmailContains: "@y.com", SortBy: "name", SortOrder: "desc"})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Dave", items[0].Name)
		assert.Equal(t, "Carol", items[1].Name)
	})

	t.Run("unknown sort column falls back to id", func(t *testing.T) {
		items, _, err := svc.List(ctx, auth.ListParams{SortBy: "password"})
		require.NoError(t, err)
		require.Len(t, items, 5)
		assert.Equal(t, 1, items[0].ID)
	})
}
