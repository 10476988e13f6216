package repositories

import (
	"context"
	"time"

	"github.com/sayfoods/sayfoods-api/models"
	"gorm.io/gorm"
)

// AccountRepository stores user accounts
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account store backed by db
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "failed to create user")
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find user")
	}
	return &user, nil
}

func (r *AccountRepository) FindByName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, translate(err, "failed to find user")
	}
	return &user, nil
}

// Save writes every column of user
func (r *AccountRepository) Save(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "failed to update user")
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, translate(err, "failed to count users")
}

// SessionRepository is the server-side session store
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a session store backed by db
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return translate(r.db.WithContext(ctx).Create(session).Error, "failed to create session")
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to find session")
	}
	return &session, nil
}

// Revoke marks the session as revoked; revoking twice is not an error
func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	return translate(res.Error, "failed to revoke session")
}

// DeleteExpired removes sessions that expired before now and returns how many were removed
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	return res.RowsAffected, translate(res.Error, "failed to delete expired sessions")
}
