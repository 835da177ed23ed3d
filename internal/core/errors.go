package core

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeRoomInactive = "room_inactive"
	ErrCodeRoomFull     = "room_full"
	ErrCodeUserNotFound = "user_not_found"
	ErrCodeBadRequest   = "bad_request"
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func domainError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
