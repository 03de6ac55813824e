package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"userhub/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, user *model.User) error
	ReplacePhones(ctx context.Context, user *model.User, phones []model.Phone) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user together with any attached phones.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save upserts the user's scalar fields by id. Phones are managed
// exclusively through ReplacePhones so a save never diffs the collection.
func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

// FindByID loads a user with its phone collection.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Phones").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by email with its phone collection.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Phones").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail reports whether any user owns the given email.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete hard-deletes the user row. Owned phones go with it via the
// ON DELETE CASCADE constraint.
func (r *userRepository) Delete(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Delete(user).Error
}

// ReplacePhones drops the user's stored phones and recreates them from the
// given list. Phones are value records: replacement never diffs.
func (r *userRepository) ReplacePhones(ctx context.Context, user *model.User, phones []model.Phone) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&model.Phone{}).Error; err != nil {
		return err
	}
	if len(phones) > 0 {
		if err := r.db.WithContext(ctx).Create(&phones).Error; err != nil {
			return err
		}
	}
	user.Phones = phones
	return nil
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
