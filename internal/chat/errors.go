package chat

// Reason codes surfaced to the client when a command is rejected.
const (
	CodeUserHasToLogin   = "USER_HAS_TO_LOGIN"
	CodeRoomInvalid      = "ROOM_INVALID"
	CodeRoomAccessDenied = "ROOM_ACCESS_DENIED"
)

// ClientError is a control-flow signal for rejected commands. It is caught at
// the dispatch boundary and turned into a single error event on the offending
// connection; it never terminates the connection and never reaches other
// sessions.
type ClientError struct {
	Code string
}

func (e *ClientError) Error() string {
	return e.Code
}

func clientError(code string) *ClientError {
	return &ClientError{Code: code}
}
