package service

import (
	"errors"
	"testing"
	"time"

	"weekly_trivia_backend/internal/util"
)

func register(t *testing.T, env *testEnv, username string) {
	t.Helper()
	_, err := env.auth.Register(RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	_, err := env.auth.Register(RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "correct-horse",
	})
	if !errors.Is(err, util.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = env.auth.Register(RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
}

func TestBannedEmailStaysBurned(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)
	register(t, env, "alice")

	user, err := env.users.FindByUsername("alice")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	env.setNow(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	if err := env.quiz.BanUser(user.ID, quiz.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	_, err = env.auth.Register(RegisterRequest{
		Username: "alice-reborn",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if !errors.Is(err, util.ErrUserBanned) {
		t.Fatalf("expected ErrUserBanned, got %v", err)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	if _, err := env.auth.Login("alice", "wrong-password", ""); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	result, err := env.auth.Login("alice", "correct-horse", "cli")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}

	rotated, err := env.auth.Refresh(result.RefreshToken, "cli")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == result.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// the presented token was revoked by rotation
	if _, err := env.auth.Refresh(result.RefreshToken, "cli"); !errors.Is(err, util.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for rotated token, got %v", err)
	}
}

func TestBanRevokesRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.mondayQuiz(t)
	register(t, env, "alice")

	result, err := env.auth.Login("alice", "correct-horse", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := env.users.FindByUsername("alice")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	env.setNow(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	if err := env.quiz.BanUser(user.ID, quiz.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if _, err := env.auth.Refresh(result.RefreshToken, ""); !errors.Is(err, util.ErrTokenNotFound) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	result, err := env.auth.Login("alice", "correct-horse", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user, err := env.users.FindByUsername("alice")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}

	if err := env.auth.ChangePassword(user.ID, "wrong", "new-password-1"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := env.auth.ChangePassword(user.ID, "correct-horse", "new-password-1"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := env.auth.Login("alice", "new-password-1", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := env.auth.Refresh(result.RefreshToken, ""); !errors.Is(err, util.ErrTokenNotFound) {
		t.Fatalf("expected old session revoked, got %v", err)
	}
}
