package http

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chatter-hq/chatter-server/internal/proto"
)

func wsURL(ts string, token string) string {
	url := strings.Replace(ts, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(env.ts.URL, token), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendCommand(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd proto.Command) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, cmd); err != nil {
		t.Fatalf("write command %+v: %v", cmd, err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]any {
	t.Helper()

	var frame map[string]any
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestAnonymousConnectionTerminated(t *testing.T) {
	env := newTestEnv(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(env.ts.URL, ""), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The handshake is accepted and the socket closed immediately without
	// any event.
	var frame map[string]any
	err = wsjson.Read(ctx, conn, &frame)
	if err == nil {
		t.Fatalf("expected closed connection, read %+v", frame)
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got status %d (%v)", status, err)
	}
}

func TestInvalidTokenTerminated(t *testing.T) {
	env := newTestEnv(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(env.ts.URL, "not-a-token"), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var frame map[string]any
	if err := wsjson.Read(ctx, conn, &frame); websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestJoinAckAndMessageFanOut(t *testing.T) {
	env := newTestEnv(t, false)
	roomID := env.createRoom(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, env.createUser(t, "alice", false))
	bob := dialWS(t, ctx, env, env.createUser(t, "bob", false))

	sendCommand(t, ctx, alice, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, alice); frame["join"] != roomID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}

	sendCommand(t, ctx, bob, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, bob); frame["join"] != roomID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}

	sendCommand(t, ctx, alice, proto.Command{Command: "send", Room: roomID, Message: "hi"})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		frame := readFrame(t, ctx, conn)
		if frame["msg_type"] != "message" || frame["room"] != roomID ||
			frame["username"] != "alice" || frame["message"] != "hi" {
			t.Fatalf("unexpected message frame for %s: %+v", name, frame)
		}
	}
}

func TestEnterNoticeWireFormat(t *testing.T) {
	env := newTestEnv(t, true)
	roomID := env.createRoom(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, env.createUser(t, "alice", false))
	bob := dialWS(t, ctx, env, env.createUser(t, "bob", false))

	sendCommand(t, ctx, alice, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, alice); frame["join"] != roomID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}

	sendCommand(t, ctx, bob, proto.Command{Command: "join", Room: roomID})

	frame := readFrame(t, ctx, alice)
	if frame["msg_type"] != "enter" || frame["room"] != roomID || frame["username"] != "bob" {
		t.Fatalf("unexpected enter notice: %+v", frame)
	}

	sendCommand(t, ctx, bob, proto.Command{Command: "leave", Room: roomID})
	frame = readFrame(t, ctx, alice)
	if frame["msg_type"] != "leave" || frame["username"] != "bob" {
		t.Fatalf("unexpected leave notice: %+v", frame)
	}
}

func TestSendWithoutJoinYieldsError(t *testing.T) {
	env := newTestEnv(t, false)
	roomID := env.createRoom(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, env.createUser(t, "alice", false))

	sendCommand(t, ctx, alice, proto.Command{Command: "send", Room: roomID, Message: "hi"})

	frame := readFrame(t, ctx, alice)
	if frame["error"] != "ROOM_ACCESS_DENIED" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestStaffOnlyRoomOverWire(t *testing.T) {
	env := newTestEnv(t, false)
	roomID := env.createRoom(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outsider := dialWS(t, ctx, env, env.createUser(t, "mallory", false))
	admin := dialWS(t, ctx, env, env.createUser(t, "root", true))

	sendCommand(t, ctx, outsider, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, outsider); frame["error"] != "ROOM_ACCESS_DENIED" {
		t.Fatalf("unexpected frame: %+v", frame)
	}

	sendCommand(t, ctx, admin, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, admin); frame["join"] != roomID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}
}

func TestUnknownRoomOverWire(t *testing.T) {
	env := newTestEnv(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, env.createUser(t, "alice", false))

	sendCommand(t, ctx, alice, proto.Command{Command: "join", Room: "no-such-room"})
	if frame := readFrame(t, ctx, alice); frame["error"] != "ROOM_INVALID" {
		t.Fatalf("unexpected frame: %+v", frame)
	}

	// The connection stays open after a rejected command.
	roomID := env.createRoom(t, false)
	sendCommand(t, ctx, alice, proto.Command{Command: "join", Room: roomID})
	if frame := readFrame(t, ctx, alice); frame["join"] != roomID {
		t.Fatalf("unexpected join ack: %+v", frame)
	}
}
