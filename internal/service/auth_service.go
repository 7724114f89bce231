package service

import (
	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Tokens   *TokenService
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, tokens *TokenService, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, Tokens: tokens, cfg: cfg}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	if taken, err := s.UserRepo.ExistsUsername(req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, util.ErrUsernameTaken
	}
	// A banned user's email stays burned; re-registering with it is not a
	// way back in.
	if banned, err := s.UserRepo.EmailBanned(req.Email); err != nil {
		return nil, err
	} else if banned {
		return nil, util.ErrUserBanned
	}
	if exists, err := s.UserRepo.ExistsEmail(req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, util.ErrEmailRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     model.RoleUser,
	}
	if err := s.UserRepo.Create(user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

type LoginResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (s *AuthService) Login(username, password, device string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, util.ErrInvalidCredentials
	}
	if user.UserStatus == model.StatusBanned {
		return nil, util.ErrUserBanned
	}

	access, err := util.GenerateAccessJWT(user.ID, string(user.Role), s.cfg.JWT.Secret, s.cfg.JWT.AccessExpire)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.Issue(user.ID, device)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates the refresh token and returns a fresh access token.
func (s *AuthService) Refresh(rawRefresh, device string) (*LoginResult, error) {
	userID, next, err := s.Tokens.Rotate(rawRefresh, device)
	if err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	access, err := util.GenerateAccessJWT(user.ID, string(user.Role), s.cfg.JWT.Secret, s.cfg.JWT.AccessExpire)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: access, RefreshToken: next}, nil
}

func (s *AuthService) Logout(rawRefresh string) error {
	return s.Tokens.Revoke(rawRefresh)
}

// ChangePassword verifies the old password, stores the new hash, and revokes
// every outstanding session.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.ErrUserNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return util.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePasswordHash(userID, string(hash)); err != nil {
		return err
	}
	return s.Tokens.RevokeAllForUser(userID)
}

func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
