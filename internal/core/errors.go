package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound    = "room_not_found"
	ErrCodeAlreadyMember   = "already_member"
	ErrCodeNotMember       = "not_member"
	ErrCodeRoomExists      = "room_exists"
	ErrCodeIdentityInvalid = "identity_invalid"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeInternal        = "internal_error"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member")
	ErrRoomExists    = errors.New("room already exists")
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Fatal reports whether the error must terminate the connection instead of
// only failing the in-flight request.
func (e *Error) Fatal() bool {
	return e.Code == ErrCodeIdentityInvalid
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
