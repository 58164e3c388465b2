package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/archive"
	"github.com/chatter-hq/chatter-server/internal/auth"
	"github.com/chatter-hq/chatter-server/internal/broker"
	"github.com/chatter-hq/chatter-server/internal/chat"
	"github.com/chatter-hq/chatter-server/internal/directory"
	"github.com/chatter-hq/chatter-server/internal/proto"
)

const cleanupTimeout = 5 * time.Second

// WSHandler upgrades HTTP connections and bridges them to chat sessions.
type WSHandler struct {
	auth     *auth.Service
	dir      directory.Directory
	broker   broker.Broker
	archiver archive.Archiver
	notify   bool
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(deps Deps, notify bool, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		auth:     deps.Auth,
		dir:      deps.Directory,
		broker:   deps.Broker,
		archiver: deps.Archiver,
		notify:   notify,
		log:      logger,
	}
}

// Handle runs one session socket. Commands are dispatched strictly in
// arrival order; the next frame is not read until the previous dispatch has
// completed.
func (h *WSHandler) Handle(c *gin.Context) {
	identity := h.identify(c.Request)

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// Anonymous connections are terminated before a session exists; no
	// events are ever sent to them.
	if identity.Anonymous {
		conn.Close(websocket.StatusPolicyViolation, "login required")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sess := chat.NewSession(identity, h.dir, h.broker, h.archiver, h.notify, h.log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// Unwind the session's subscriptions with a fresh context: cleanup must
	// run even though the request context is gone.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), cleanupTimeout)
	sess.Close(closeCtx)
	closeCancel()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("username", identity.Username).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// identify resolves the connection's identity from a bearer token passed in
// the Authorization header or the token query parameter. A missing or
// invalid token yields the anonymous identity.
func (h *WSHandler) identify(r *stdhttp.Request) chat.Identity {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		return chat.Identity{Anonymous: true}
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		return chat.Identity{Anonymous: true}
	}

	return chat.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Staff:    claims.IsStaff,
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *chat.Session) error {
	for {
		var inbound proto.Command
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, ok, err := commandFromWire(inbound)
		if err != nil {
			h.log.Warn().Err(err).Msg("malformed command frame")
			return err
		}
		if !ok {
			// Unknown command verbs are ignored.
			continue
		}

		if err := sess.Dispatch(ctx, cmd); err != nil {
			h.log.Error().Err(err).Msg("command dispatch failed")
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *chat.Session) error {
	for {
		select {
		case event, ok := <-sess.Events():
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, wireFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
