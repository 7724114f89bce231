package repository

import (
	"time"

	"weekly_trivia_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx returns a copy bound to the given transaction handle.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) ExistsUsername(username string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsEmail(email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailBanned(email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("email = ? AND user_status = ?", email, model.StatusBanned).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateJoinStatus(userID uint, status model.JoinStatus) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("join_status", status).Error
}

// AddPoints increments the cumulative points atomically in the database.
func (r *UserRepository) AddPoints(userID uint, delta int) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", delta)).Error
}

func (r *UserRepository) UpdatePasswordHash(userID uint, hash string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}

func (r *UserRepository) SetWarnedTimeout(userID uint, until time.Time) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"user_status":   model.StatusWarned,
			"timeout":       true,
			"timeout_until": until,
		}).Error
}

// SetBanned makes the timeout permanent: timeout set with no bound.
func (r *UserRepository) SetBanned(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"user_status":   model.StatusBanned,
			"timeout":       true,
			"timeout_until": nil,
		}).Error
}

// ClearTimeout lazily lifts an expired warned timeout back to normal.
func (r *UserRepository) ClearTimeout(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"user_status":   model.StatusNormal,
			"timeout":       false,
			"timeout_until": nil,
		}).Error
}

// CountParticipants counts users currently joined to or submitted for the
// active cycle.
func (r *UserRepository) CountParticipants() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("join_status IN ?", []model.JoinStatus{model.Joined, model.Submitted}).
		Count(&count).Error
	return count, err
}

// ResetJoinStatuses returns every participating user to not_joined. Global by
// design: at most one quiz is active at a time.
func (r *UserRepository) ResetJoinStatuses() (int64, error) {
	res := r.DB.Model(&model.User{}).
		Where("join_status <> ?", model.NotJoined).
		Update("join_status", model.NotJoined)
	return res.RowsAffected, res.Error
}
