package repository

import (
	"context"
	"errors"

	"studybud/internal/models"
	"studybud/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", models.NormalizeUsername(username))
}

// GetByEmail returns (nil, nil) when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translateError(err, "User", user.Username)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return translateError(err, "User", user.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

// Delete removes the user. Hosted rooms survive with no host; authored
// messages and participant rows are removed.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Room{}).Where("host_id = ?", id).
			UpdateColumn("host_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RoomParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return translateError(err, "User", id)
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": id})
	return nil
}
