package repository

import (
	"context"

	"crowdmint-backend/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for User data access
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAddress(ctx context.Context, address string) (*models.User, error)
	FindOrCreateByAddress(ctx context.Context, address string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("address = ?", address).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByAddress returns the user for address, creating it on first sign-in
func (r *userRepository) FindOrCreateByAddress(ctx context.Context, address string) (*models.User, error) {
	user := models.User{Address: address}
	err := r.db.WithContext(ctx).Where("address = ?", address).FirstOrCreate(&user).Error
	if IsUniqueViolation(err) {
		// concurrent first sign-in
		return r.GetByAddress(ctx, address)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
