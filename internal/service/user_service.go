package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "userhub/internal/errors"
	"userhub/internal/model"
	"userhub/internal/repository"
)

// TokenIssuer mints bearer tokens bound to an already-persisted user id.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// UserInput carries the fields of a create request.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneInput
}

// UserUpdate carries the mutable user fields for full and partial updates.
// Pointer fields distinguish absent from empty so both update flavors run
// through one merge path: full updates arrive with every scalar set, partial
// updates with any subset. A nil Phones leaves the stored collection
// untouched; a non-nil empty one clears it.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Phones   *[]PhoneInput
}

// UserService exposes the user account workflow. Caller identity is an
// explicit parameter: ownership checks are pure functions of
// (callerID, targetID).
type UserService interface {
	Create(ctx context.Context, in UserInput) (*model.User, error)
	Get(ctx context.Context, callerID, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, callerID, id uuid.UUID, upd UserUpdate) (*model.User, error)
	Patch(ctx context.Context, callerID, id uuid.UUID, upd UserUpdate) (*model.User, error)
	Delete(ctx context.Context, callerID, id uuid.UUID) error
}

type userService struct {
	repo   repository.UserRepository
	tokens TokenIssuer
}

// NewUserService builds a UserService with repository and token issuer.
func NewUserService(repo repository.UserRepository, tokens TokenIssuer) UserService {
	return &userService{repo: repo, tokens: tokens}
}

// Create registers a new user. The insert and the token-bearing follow-up
// save run in one transaction as a two-step protocol: the id must be
// persisted before a token can be minted from it, so a token never encodes
// an id that was not stored.
func (s *userService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	taken, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email existence: %w", err)
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	user.Phones = MapPhones(in.Phones, user)

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		token, err := s.tokens.Issue(user.ID)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		now := time.Now()
		user.Token = token
		user.Created = now
		user.LastLogin = now
		user.Active = true

		if err := repo.Save(ctx, user); err != nil {
			return fmt.Errorf("finalize user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Get loads a user by id. It has no ownership gate: any authenticated
// caller may read any user. Reading counts as caller activity, so the
// caller's own lastLogin is refreshed; the returned record is the target
// as loaded before that refresh.
func (s *userService) Get(ctx context.Context, callerID, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	s.touchLastLogin(ctx, callerID)
	return user, nil
}

// Update replaces the user's mutable fields. The transport layer requires
// every scalar field on this path, so upd arrives fully populated.
func (s *userService) Update(ctx context.Context, callerID, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	return s.applyUpdate(ctx, callerID, id, upd)
}

// Patch applies only the fields present in upd; absent fields keep their
// prior values.
func (s *userService) Patch(ctx context.Context, callerID, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	return s.applyUpdate(ctx, callerID, id, upd)
}

// applyUpdate is the shared merge path for full and partial updates.
// Ownership is checked before existence: a non-owner probing a nonexistent
// id gets ErrNotOwner, not ErrUserNotFound. That ordering is part of the
// API contract.
func (s *userService) applyUpdate(ctx context.Context, callerID, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	if callerID != id {
		return nil, apperrors.ErrNotOwner
	}

	var user *model.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}

		// Changing email requires it to be free; keeping the current one
		// must never conflict with itself.
		if upd.Email != nil && *upd.Email != existing.Email {
			taken, err := repo.ExistsByEmail(ctx, *upd.Email)
			if err != nil {
				return fmt.Errorf("check email existence: %w", err)
			}
			if taken {
				return apperrors.ErrEmailTaken
			}
		}

		if upd.Name != nil {
			existing.Name = *upd.Name
		}
		if upd.Email != nil {
			existing.Email = *upd.Email
		}
		if upd.Password != nil {
			hash, err := hashPassword(*upd.Password)
			if err != nil {
				return err
			}
			existing.PasswordHash = hash
		}

		now := time.Now()
		existing.Modified = &now
		existing.LastLogin = now

		if upd.Phones != nil {
			if err := repo.ReplacePhones(ctx, existing, MapPhones(*upd.Phones, existing)); err != nil {
				return fmt.Errorf("replace phones: %w", err)
			}
		}

		if err := repo.Save(ctx, existing); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Redundant with the lastLogin set above (caller == target here), kept
	// so every authenticated operation funnels through the same helper.
	s.touchLastLogin(ctx, callerID)
	return user, nil
}

// Delete hard-deletes the user. Same precondition order as the update
// paths: ownership first, then existence.
func (s *userService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if callerID != id {
		return apperrors.ErrNotOwner
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.repo.Delete(ctx, user); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// touchLastLogin refreshes lastLogin for the given id. Best-effort by
// contract: a missing user or a storage failure is reported in the return
// value and never aborts the enclosing operation.
func (s *userService) touchLastLogin(ctx context.Context, id uuid.UUID) bool {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false
	}
	user.LastLogin = time.Now()
	if err := s.repo.Save(ctx, user); err != nil {
		return false
	}
	return true
}
