package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"
	"weekly_trivia_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenService owns the refresh-token store. Raw tokens are never persisted;
// each row keeps an HMAC of the token keyed on the JWT secret.
type TokenService struct {
	Repo *repository.TokenRepository
	cfg  *config.Config
}

func NewTokenService(repo *repository.TokenRepository, cfg *config.Config) *TokenService {
	return &TokenService{Repo: repo, cfg: cfg}
}

func (s *TokenService) hashToken(raw string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.JWT.Secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func deviceLabel(device string) string {
	if device == "" {
		return "unknown"
	}
	if len(device) > 80 {
		return device[:80]
	}
	return device
}

// Issue creates a refresh JWT and stores its hash keyed by jti.
func (s *TokenService) Issue(userID uint, device string) (string, error) {
	jti := uuid.New().String()
	raw, err := util.GenerateRefreshJWT(userID, jti, s.cfg.JWT.Secret, s.cfg.JWT.RefreshExpire)
	if err != nil {
		return "", err
	}
	row := &model.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		TokenHash: s.hashToken(raw),
		ExpiresAt: time.Now().Add(s.cfg.JWT.RefreshExpire),
		Device:    deviceLabel(device),
	}
	if err := s.Repo.Create(row); err != nil {
		return "", err
	}
	return raw, nil
}

// Validate checks the raw refresh token against its stored row and returns
// the owning user id.
func (s *TokenService) Validate(raw string) (uint, string, error) {
	claims, err := util.ParseJWT(raw, s.cfg.JWT.Secret)
	if err != nil {
		return 0, "", err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return 0, "", util.ErrNotRefreshToken
	}
	row, err := s.Repo.FindByJTI(claims.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, "", util.ErrTokenNotFound
		}
		return 0, "", err
	}
	if !row.Active(time.Now()) {
		return 0, "", util.ErrTokenNotFound
	}
	if !hmac.Equal([]byte(row.TokenHash), []byte(s.hashToken(raw))) {
		return 0, "", util.ErrTokenMismatch
	}
	return row.UserID, claims.ID, nil
}

// Rotate revokes the presented token and issues a replacement.
func (s *TokenService) Rotate(raw, device string) (uint, string, error) {
	userID, jti, err := s.Validate(raw)
	if err != nil {
		return 0, "", err
	}
	if err := s.Repo.RevokeByJTI(jti, time.Now()); err != nil {
		return 0, "", err
	}
	next, err := s.Issue(userID, device)
	if err != nil {
		return 0, "", err
	}
	return userID, next, nil
}

func (s *TokenService) Revoke(raw string) error {
	_, jti, err := s.Validate(raw)
	if err != nil {
		return err
	}
	return s.Repo.RevokeByJTI(jti, time.Now())
}

// RevokeAllForUser invalidates every outstanding session credential; called
// on ban and password change.
func (s *TokenService) RevokeAllForUser(userID uint) error {
	revoked, err := s.Repo.RevokeAllForUser(userID, time.Now())
	if err != nil {
		return err
	}
	logger.Log.Info("revoked refresh tokens",
		zap.Uint("user_id", userID), zap.Int64("count", revoked))
	return nil
}

// CleanupExpired sweeps dead rows; the daily scheduler job drives it.
func (s *TokenService) CleanupExpired() error {
	removed, err := s.Repo.CleanupExpiredOrRevoked(time.Now())
	if err != nil {
		return err
	}
	logger.Log.Info("refresh token cleanup", zap.Int64("removed", removed))
	return nil
}
