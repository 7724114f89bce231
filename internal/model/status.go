package model

import "weekly_trivia_backend/internal/util"

// JoinStatus tracks a user's eligibility state for the currently active quiz
// cycle. Only the scheduled (or forced) reset returns it to NotJoined.
type JoinStatus string

const (
	NotJoined JoinStatus = "not_joined"
	Joined    JoinStatus = "joined"
	Submitted JoinStatus = "submitted"
)

// Join transitions not_joined -> joined. Joining again while already joined
// is a no-op refresh; a submitted user must wait for the cycle reset.
func (s JoinStatus) Join() (JoinStatus, error) {
	switch s {
	case NotJoined, Joined:
		return Joined, nil
	case Submitted:
		return s, util.ErrAlreadySubmitted
	default:
		return s, util.ErrInvalidJoinStatus
	}
}

// CanAnswer gates answer saves: only a joined user may mutate the draft.
func (s JoinStatus) CanAnswer() error {
	switch s {
	case Joined:
		return nil
	case Submitted:
		return util.ErrAlreadySubmitted
	default:
		return util.ErrNotJoined
	}
}

// Submit transitions joined -> submitted.
func (s JoinStatus) Submit() (JoinStatus, error) {
	switch s {
	case Joined:
		return Submitted, nil
	case Submitted:
		return s, util.ErrAlreadySubmitted
	default:
		return s, util.ErrNotJoined
	}
}

// UserStatus is the long-lived moderation standing of a user, independent of
// any single quiz cycle.
type UserStatus string

const (
	StatusNormal UserStatus = "normal"
	StatusWarned UserStatus = "warned"
	StatusBanned UserStatus = "banned"
)

// Warn moves normal or warned users to warned. Re-warning re-anchors the
// timeout window. Banned is terminal.
func (s UserStatus) Warn() (UserStatus, error) {
	switch s {
	case StatusNormal, StatusWarned:
		return StatusWarned, nil
	case StatusBanned:
		return s, util.ErrUserBanned
	default:
		return s, util.ErrInvalidUserStatus
	}
}

// Ban moves any non-banned user to banned. Banning twice is an invalid
// transition so callers notice stale state.
func (s UserStatus) Ban() (UserStatus, error) {
	switch s {
	case StatusNormal, StatusWarned:
		return StatusBanned, nil
	case StatusBanned:
		return s, util.ErrAlreadyBanned
	default:
		return s, util.ErrInvalidUserStatus
	}
}
