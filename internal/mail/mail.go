package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gamexhub/gamex-panel/internal/config"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the transport selected by MAIL_DRIVER.
func New(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	switch cfg.MailDriver {
	case config.MailDriverSMTP:
		return NewSMTPMailer(cfg), nil
	case config.MailDriverSendGrid:
		return NewSendGridMailer(cfg), nil
	case config.MailDriverLog:
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.MailDriver)
	}
}

// LogMailer writes messages to the logger instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail not delivered (log driver)", "to", msg.To, "subject", msg.Subject)
	m.logger.DebugContext(ctx, "mail body", "to", msg.To, "text", msg.Text)
	return nil
}

// Recorder keeps every message in memory. Err, when set, is returned by Send
// and nothing is recorded.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Message{}, false
	}
	return r.sent[len(r.sent)-1], true
}
