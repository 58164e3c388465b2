package chat

import (
	"context"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/broker"
)

func benchmarkSendFanOut(b *testing.B, recipients int) {
	ctx := context.Background()
	dir := publicRooms("bench")
	bk := broker.NewMemory()
	logger := zerolog.Nop()

	sender := NewSession(Identity{UserID: 0, Username: "sender"}, dir, bk, nil, false, &logger)
	if err := sender.Dispatch(ctx, Command{Kind: CommandJoin, Room: "bench"}); err != nil {
		b.Fatalf("join: %v", err)
	}

	for i := range recipients {
		s := NewSession(Identity{UserID: int64(i + 1), Username: "r" + strconv.Itoa(i)}, dir, bk, nil, false, &logger)
		if err := s.Dispatch(ctx, Command{Kind: CommandJoin, Room: "bench"}); err != nil {
			b.Fatalf("join recipient %d: %v", i, err)
		}
	}

	cmd := Command{Kind: CommandSend, Room: "bench", Message: "payload"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := sender.Dispatch(ctx, cmd); err != nil {
			b.Fatalf("send: %v", err)
		}
		// Drain the sender's own copy so the buffer never fills.
		<-sender.Events()
	}
}

func BenchmarkSendFanOut_10(b *testing.B)  { benchmarkSendFanOut(b, 10) }
func BenchmarkSendFanOut_100(b *testing.B) { benchmarkSendFanOut(b, 100) }
func BenchmarkSendFanOut_500(b *testing.B) { benchmarkSendFanOut(b, 500) }
