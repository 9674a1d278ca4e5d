// AngelaMos | 2026
// notify.go

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/carterperez-dev/learnhub/internal/config"
)

type Kind string

const (
	KindResetCode Kind = "password_reset_code"
	KindResetLink Kind = "password_reset_link"
)

// Message is the payload handed to the delivery channel. Exactly one of
// Code or Link is set depending on Kind.
type Message struct {
	Kind      Kind      `json:"kind"`
	Recipient string    `json:"recipient"`
	Code      string    `json:"code,omitempty"`
	Link      string    `json:"link,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg config.NotifyConfig, logger *slog.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "amqp":
		return NewAMQPNotifier(cfg, logger), nil
	case "log", "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}

// LogNotifier writes messages to the application log. Development only.
// The code and the link token are credentials, so neither is logged.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"recipient", msg.Recipient,
		"code", redactCode(msg.Code),
		"link", redactLink(msg.Link),
		"expires_at", msg.ExpiresAt,
	)
	return nil
}

func redactCode(code string) string {
	if code == "" {
		return ""
	}
	return strings.Repeat("*", len(code))
}

// redactLink keeps the destination and drops the query string, which
// carries the reset token.
func redactLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return "[redacted]"
	}
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	u.Fragment = ""
	return u.String()
}
