package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// UserService implements the user CRUD operations over the credential
// store, applying the ownership policy on per-record access.
type UserService struct {
	store auth.UserStore
}

// NewUserService creates a new UserService.
func NewUserService(store auth.UserStore) *UserService {
	return &UserService{store: store}
}

// normalizeListParams clamps paging, defaults sorting, and whitelists the
// sort column so client input never reaches the store unchecked.
func normalizeListParams(params auth.ListParams) auth.ListParams {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = defaultPerPage
	}
	if params.PerPage > maxPerPage {
		params.PerPage = maxPerPage
	}
	switch params.SortBy {
	case "id", "name", "email":
	default:
		params.SortBy = "id"
	}
	if !strings.EqualFold(params.SortOrder, "desc") {
		params.SortOrder = "asc"
	}
	return params
}

// List returns a page of users with pagination metadata. Listing is open to
// any authenticated caller; ownership only gates per-record access.
func (s *UserService) List(ctx context.Context, params auth.ListParams) ([]auth.User, Pagination, error) {
	params = normalizeListParams(params)

	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return nil, Pagination{}, err
	}

	lastPage := (total + params.PerPage - 1) / params.PerPage
	if lastPage < 1 {
		lastPage = 1
	}

	return items, Pagination{
		Total:       total,
		CurrentPage: params.Page,
		LastPage:    lastPage,
		PerPage:     params.PerPage,
	}, nil
}

// Get fetches a user record. A missing record is a 404 before the policy
// runs; a foreign record is a 403.
func (s *UserService) Get(ctx context.Context, actorID, id int) (*auth.User, error) {
	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := Can(ActionView, actorID, id); !d.Allowed {
		return nil, apperror.NewForbiddenError(d.Reason, nil)
	}
	return user, nil
}

// Update applies an update to a user record. The ownership check runs
// first (it needs only the ids), then the fields are validated as on
// registration, the target fetched, and a provided password rehashed.
func (s *UserService) Update(ctx context.Context, actorID, id int, req UpdateUserRequest) error {
	if d := Can(ActionUpdate, actorID, id); !d.Allowed {
		return apperror.NewForbiddenError(d.Reason, nil)
	}

	if err := auth.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return err
	}

	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperror.NewInternalError("failed to hash password", err)
		}
		user.HashedPassword = string(hashed)
	}

	return s.store.Update(ctx, user)
}

// Delete hard-deletes a user record after the ownership check. Deleting an
// absent record is a 404, every time.
func (s *UserService) Delete(ctx context.Context, actorID, id int) error {
	if d := Can(ActionDelete, actorID, id); !d.Allowed {
		return apperror.NewForbiddenError(d.Reason, nil)
	}
	return s.store.Delete(ctx, id)
}
