package chat

// Identity is the principal behind a session as resolved at connect time.
type Identity struct {
	UserID    int64
	Username  string
	Staff     bool
	Anonymous bool
}
