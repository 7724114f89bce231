package repository

import (
	"time"

	"weekly_trivia_backend/internal/model"

	"gorm.io/gorm"
)

type TokenRepository struct {
	DB *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func (r *TokenRepository) FindByJTI(jti string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.DB.Where("jti = ?", jti).First(&token).Error
	return &token, err
}

func (r *TokenRepository) Create(token *model.RefreshToken) error {
	return r.DB.Create(token).Error
}

func (r *TokenRepository) RevokeByJTI(jti string, when time.Time) error {
	return r.DB.Model(&model.RefreshToken{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", when).Error
}

// RevokeAllForUser invalidates every outstanding refresh token for the user.
// Called on ban, password change, and logout-everywhere.
func (r *TokenRepository) RevokeAllForUser(userID uint, when time.Time) (int64, error) {
	res := r.DB.Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", when)
	return res.RowsAffected, res.Error
}

func (r *TokenRepository) DeleteAllForUser(userID uint) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

// CleanupExpiredOrRevoked removes dead rows; driven by the daily scheduler
// job.
func (r *TokenRepository) CleanupExpiredOrRevoked(now time.Time) (int64, error) {
	res := r.DB.
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
