package model

import (
	"errors"
	"testing"
	"time"

	"weekly_trivia_backend/internal/util"
)

func TestJoinStatusTransitions(t *testing.T) {
	if next, err := NotJoined.Join(); err != nil || next != Joined {
		t.Fatalf("not_joined.Join() = %v, %v", next, err)
	}
	// joining again is a no-op refresh
	if next, err := Joined.Join(); err != nil || next != Joined {
		t.Fatalf("joined.Join() = %v, %v", next, err)
	}
	if _, err := Submitted.Join(); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("submitted.Join() err = %v", err)
	}

	if err := Joined.CanAnswer(); err != nil {
		t.Fatalf("joined.CanAnswer() = %v", err)
	}
	if err := NotJoined.CanAnswer(); !errors.Is(err, util.ErrNotJoined) {
		t.Fatalf("not_joined.CanAnswer() err = %v", err)
	}
	if err := Submitted.CanAnswer(); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("submitted.CanAnswer() err = %v", err)
	}

	if next, err := Joined.Submit(); err != nil || next != Submitted {
		t.Fatalf("joined.Submit() = %v, %v", next, err)
	}
	if _, err := NotJoined.Submit(); !errors.Is(err, util.ErrNotJoined) {
		t.Fatalf("not_joined.Submit() err = %v", err)
	}
	if _, err := Submitted.Submit(); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("submitted.Submit() err = %v", err)
	}
}

func TestUserStatusTransitions(t *testing.T) {
	if next, err := StatusNormal.Warn(); err != nil || next != StatusWarned {
		t.Fatalf("normal.Warn() = %v, %v", next, err)
	}
	// re-warning re-anchors the timeout window
	if next, err := StatusWarned.Warn(); err != nil || next != StatusWarned {
		t.Fatalf("warned.Warn() = %v, %v", next, err)
	}
	if _, err := StatusBanned.Warn(); !errors.Is(err, util.ErrUserBanned) {
		t.Fatalf("banned.Warn() err = %v", err)
	}

	if next, err := StatusWarned.Ban(); err != nil || next != StatusBanned {
		t.Fatalf("warned.Ban() = %v, %v", next, err)
	}
	if _, err := StatusBanned.Ban(); !errors.Is(err, util.ErrAlreadyBanned) {
		t.Fatalf("banned.Ban() err = %v", err)
	}
}

func TestTimeoutExpired(t *testing.T) {
	now := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"no timeout", User{}, false},
		{"bounded, still running", User{Timeout: true, TimeoutUntil: &future}, false},
		{"bounded, ran out", User{Timeout: true, TimeoutUntil: &past}, true},
		{"permanent never expires", User{Timeout: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.TimeoutExpired(now); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
