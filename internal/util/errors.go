package util

import (
	"errors"
	"net/http"
)

// Domain errors, grouped by how the request boundary reports them. Every
// mutating operation rolls back its transaction before one of these reaches
// the caller.
var (
	// not found
	ErrUserNotFound       = errors.New("user not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrOptionNotFound     = errors.New("option not found")
	ErrSubmissionNotFound = errors.New("no answers found for this quiz")
	ErrTokenNotFound      = errors.New("refresh token not found")

	// invalid transition
	ErrNotJoined         = errors.New("user not joined on this quiz")
	ErrAlreadySubmitted  = errors.New("user already submitted this quiz")
	ErrUserBanned        = errors.New("user banned from this application")
	ErrAlreadyBanned     = errors.New("user is already banned")
	ErrUserTimeout       = errors.New("user has a timeout for quizzes")
	ErrInvalidJoinStatus = errors.New("unknown join status")
	ErrInvalidUserStatus = errors.New("unknown user status")

	// time window
	ErrQuizNotOpen       = errors.New("quiz not opened yet")
	ErrQuizNotStarted    = errors.New("quiz not started yet")
	ErrQuizAlreadyClosed = errors.New("quiz already finished")
	ErrQuizStartedNoEdit = errors.New("quiz started, no chance to edit")

	// conflict
	ErrDuplicateSubmission = errors.New("submission already exists for this quiz")
	ErrWeekTaken           = errors.New("there is already a quiz for this week")
	ErrUsernameTaken       = errors.New("username already in use")
	ErrEmailRegistered     = errors.New("email already registered")

	// validation
	ErrInvalidTimeWindow    = errors.New("opens_at must be before closes_at")
	ErrInvalidDifficulty    = errors.New("difficulty must be easy, medium, or hard")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPoints        = errors.New("points must be 5, 10, or 20")
	ErrOptionTextRequired   = errors.New("each option needs text")
	ErrQuestionTextRequired = errors.New("question text required")
	ErrOptionMismatch       = errors.New("option does not belong to this question")

	// auth
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenMismatch      = errors.New("token does not match stored hash")
	ErrNotRefreshToken    = errors.New("provided token is not a refresh token")
)

var (
	notFoundErrs = []error{
		ErrUserNotFound, ErrQuizNotFound, ErrQuestionNotFound,
		ErrOptionNotFound, ErrSubmissionNotFound, ErrTokenNotFound,
	}
	conflictErrs = []error{
		ErrDuplicateSubmission, ErrWeekTaken, ErrUsernameTaken, ErrEmailRegistered,
	}
	forbiddenErrs = []error{
		ErrUserBanned, ErrUserTimeout,
	}
)

func isAny(err error, group []error) bool {
	for _, target := range group {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// StatusFor maps a domain error to the HTTP status the controllers respond
// with. Unrecognized errors are treated as internal.
func StatusFor(err error) int {
	switch {
	case isAny(err, notFoundErrs):
		return http.StatusNotFound
	case isAny(err, conflictErrs):
		return http.StatusConflict
	case isAny(err, forbiddenErrs):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
