// Package archive is the extension point for message durability. Sessions
// hand every sent message to an Archiver after fan-out; nothing in the server
// depends on the archiver actually storing it.
package archive

import (
	"context"

	"github.com/rs/zerolog"
)

// Archiver receives a copy of every message a session publishes.
// Implementations must return quickly and must not block fan-out.
type Archiver interface {
	SaveMessage(ctx context.Context, room, username, text string)
}

// LogArchiver records messages at debug level and drops them. It stands in
// for a real archival pipeline.
type LogArchiver struct {
	log *zerolog.Logger
}

// NewLogArchiver creates an archiver that only logs.
func NewLogArchiver(logger *zerolog.Logger) *LogArchiver {
	return &LogArchiver{log: logger}
}

// SaveMessage implements Archiver.
func (a *LogArchiver) SaveMessage(_ context.Context, room, username, text string) {
	a.log.Debug().
		Str("room", room).
		Str("username", username).
		Int("text_len", len(text)).
		Msg("message handed to archiver stub")
}
