package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

// Conn is the subset of *nats.Conn used by the client.
type Conn interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// Credentials are forwarded to the gateway, which logs into Telegram's
// call servers on the bot's behalf.
type Credentials struct {
	APIID    int    `json:"api_id"`
	APIHash  string `json:"api_hash"`
	BotToken string `json:"bot_token"`
}

type chatRequest struct {
	ChatID int64  `json:"chat_id"`
	File   string `json:"file,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type streamEndEvent struct {
	ChatID int64  `json:"chat_id"`
	File   string `json:"file"`
}

// client talks to the voice-call gateway over NATS request/reply and
// receives its stream-end events.
type client struct {
	conn    Conn
	prefix  string
	timeout time.Duration
	creds   Credentials
	sub     *nats.Subscription
}

// Connect dials NATS. credsFile may be empty.
func Connect(url, credsFile string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("voicechat-telegram-bot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("Disconnected from calls gateway bus", logger.Err(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to calls gateway bus", "url", nc.ConnectedUrl())
		}),
	}
	if credsFile != "" {
		opts = append(opts, nats.UserCredentials(credsFile))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return nc, nil
}

func NewClient(conn Conn, prefix string, timeout time.Duration, creds Credentials) (*client, error) {
	if conn == nil {
		return nil, errors.New("nats connection is nil")
	}
	if prefix == "" {
		return nil, errors.New("subject prefix is empty")
	}
	return &client{
		conn:    conn,
		prefix:  prefix,
		timeout: timeout,
		creds:   creds,
	}, nil
}

func (c *client) Name() string { return "calls_client" }

// Start registers the bot with the gateway and subscribes to stream-end
// events. Each event is handed to onStreamEnd on its own goroutine.
func (c *client) Start(ctx context.Context, onStreamEnd func(chatID int64, file string)) error {
	if err := c.request(ctx, "start", c.creds); err != nil {
		return fmt.Errorf("starting calls gateway session: %w", err)
	}

	sub, err := c.conn.Subscribe(c.subject("stream_end"), func(msg *nats.Msg) {
		var event streamEndEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error("Decoding stream end event", logger.Err(err))
			return
		}
		slog.Info("Stream ended", "chatID", event.ChatID, "file", event.File)
		go onStreamEnd(event.ChatID, event.File)
	})
	if err != nil {
		return fmt.Errorf("subscribing to stream end events: %w", err)
	}
	c.sub = sub

	slog.Info("Calls client started", "prefix", c.prefix)
	return nil
}

func (c *client) Join(ctx context.Context, chatID int64, file string) error {
	return c.request(ctx, "join", chatRequest{ChatID: chatID, File: file})
}

func (c *client) Leave(ctx context.Context, chatID int64) error {
	return c.request(ctx, "leave", chatRequest{ChatID: chatID})
}

func (c *client) Pause(ctx context.Context, chatID int64) error {
	return c.request(ctx, "pause", chatRequest{ChatID: chatID})
}

func (c *client) Resume(ctx context.Context, chatID int64) error {
	return c.request(ctx, "resume", chatRequest{ChatID: chatID})
}

// Stop drops the event subscription and drains the connection.
func (c *client) Stop() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			slog.Warn("Unsubscribing from stream end events", logger.Err(err))
		}
	}
	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("draining nats connection: %w", err)
	}
	return nil
}

func (c *client) subject(op string) string {
	return c.prefix + "." + op
}

func (c *client) request(ctx context.Context, op string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.conn.RequestWithContext(ctx, c.subject(op), data)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", c.subject(op), err)
	}

	var r reply
	if err := json.Unmarshal(msg.Data, &r); err != nil {
		return fmt.Errorf("decoding %s reply: %w", op, err)
	}
	if !r.OK {
		if r.Error == "" {
			r.Error = "unknown error"
		}
		return fmt.Errorf("gateway %s: %s", op, r.Error)
	}
	return nil
}
