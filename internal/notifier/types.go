package notifier

import (
	"context"
	"time"

	kit "remindbot/internal/transport"
)

// Config controls outbound pacing.
type Config struct {
	RatePerSec  int           // token bucket rate; <=0 means 25
	SendTimeout time.Duration // per call; <=0 means 10s
	HistorySize int           // <=0 means 300
}

// TextSender is the part of transport.Adapter the notifier uses.
type TextSender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
}

type HistoryItem struct {
	At     time.Time
	ChatID int64
	Text   string
	Err    string
}

// SendEvent is the Data of reminder.sent and reminder.send_failed events.
type SendEvent struct {
	ChatID int64     `json:"chat_id"`
	Bytes  int       `json:"bytes"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}
